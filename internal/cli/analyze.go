package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
	"github.com/pixeljudge/pixeljudge/pkg/report"
)

// analyzeCommand creates the analyze command.
func (c *CLI) analyzeCommand() *cobra.Command {
	var (
		output      string
		maxColors   int
		method      string
		profiles    string
		visionModel string
		visionURL   string
		noCache     bool
		refresh     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <screenshot>",
		Short: "Analyze a UI screenshot",
		Long: `Analyze extracts the color palette from a UI screenshot, identifies the
brand it belongs to, and (when a vision model is configured) produces a
structured description of the layout.

The vision model is optional: pass --vision-model and set ` + envVisionKey + `
(or OPENAI_API_KEY) to enable it. Without it the analysis is fully
deterministic.`,
		Example: `  # Basic palette and brand analysis
  pixeljudge analyze screenshot.png

  # K-means palette with 8 colors, written to a report file
  pixeljudge analyze screenshot.png --method kmeans --colors 8 -o report.json

  # Include a vision description
  pixeljudge analyze screenshot.png --vision-model gpt-4o-mini`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(runnerOptions{
				noCache:     noCache,
				profiles:    profiles,
				visionModel: visionModel,
				visionURL:   visionURL,
			})
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := pipeline.Options{
				ImagePath: args[0],
				MaxColors: maxColors,
				Method:    palette.Method(method),
				Refresh:   refresh,
				Logger:    c.Logger,
			}

			prog := newProgress(c.Logger)
			analysis, info, err := runner.AnalyzeWithInfo(cmd.Context(), opts)
			if err != nil {
				printError("Analysis failed: %v", err)
				return err
			}
			prog.done("Analyzed screenshot")

			printAnalysis(analysis, info)

			if output != "" {
				if err := report.WriteAnalysis(output, analysis); err != nil {
					return err
				}
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the analysis report to a JSON file")
	cmd.Flags().IntVar(&maxColors, "colors", pipeline.DefaultMaxColors, "maximum palette size")
	cmd.Flags().StringVar(&method, "method", string(pipeline.DefaultMethod), "palette extraction method (quantize, kmeans, dominant)")
	cmd.Flags().StringVar(&profiles, "profiles", "", "TOML file with additional brand profiles")
	cmd.Flags().StringVar(&visionModel, "vision-model", "", "vision model for layout description (e.g. gpt-4o-mini)")
	cmd.Flags().StringVar(&visionURL, "vision-url", "", "vision API base URL override")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached result exists")

	return cmd
}

// printAnalysis renders an analysis summary to the terminal.
func printAnalysis(a *report.Analysis, info pipeline.RunInfo) {
	printNewline()
	printKeyValue("Image", fmt.Sprintf("%s (%dx%d)", a.Image.Path, a.Image.Width, a.Image.Height))

	for i, s := range a.Palette {
		label := "Palette"
		if i > 0 {
			label = ""
		}
		printKeyValue(label, fmt.Sprintf("%s %s  %4.1f%%", swatch(s.Hex), s.Hex, s.Coverage*100))
	}

	if a.Brand.Identified() {
		printKeyValue("Brand", fmt.Sprintf("%s (%.0f%% confidence)", a.Brand.Name, a.Brand.Confidence*100))
	} else {
		printKeyValue("Brand", StyleDim.Render("not identified"))
	}

	if a.VisionUsed {
		printKeyValue("Summary", a.Vision.Summary)
		printKeyValue("Layout", a.Vision.Layout)
		if n := a.Vision.InteractiveCount(); n > 0 {
			printKeyValue("Interactive", fmt.Sprintf("%d elements", n))
		}
	}

	parts := runStatsParts(info, fmt.Sprintf("%d colors", len(a.Palette)))
	printStats(parts, info.Cache.AnalysisHit)
}
