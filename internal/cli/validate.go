package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
	"github.com/pixeljudge/pixeljudge/pkg/renderer"
	"github.com/pixeljudge/pixeljudge/pkg/report"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var (
		output       string
		analysisPath string
		rendered     string
		sourceFile   string
		sourceType   string
		viewport     string
		threshold    float64
		maxColors    int
		method       string
		profiles     string
		visionModel  string
		visionURL    string
		rendererURL  string
		noCache      bool
		refresh      bool

		// Structural sub-scores come from markup inspection done outside this
		// tool; -1 means "not supplied", which keeps the neutral score.
		layoutScore      float64
		typographyScore  float64
		interactionScore float64
	)

	cmd := &cobra.Command{
		Use:   "validate [original]",
		Short: "Validate a rendered reproduction against the original screenshot",
		Long: `Validate analyzes the original screenshot, obtains the rendered
reproduction (from --rendered, or by sending --source to a screenshot
service), compares the two pixel by pixel, and aggregates six metric scores
into one weighted quality assessment.

A saved analysis report (from analyze -o) can be supplied with --analysis
instead of re-analyzing the original; the report then also provides the
original image path when no positional argument is given.

When the reproduction cannot be obtained, the comparison degrades to a
neutral score instead of failing, so a report is always produced.`,
		Example: `  # Compare against a pre-rendered screenshot
  pixeljudge validate original.png --rendered candidate.png

  # Render HTML through a screenshot service and compare
  pixeljudge validate original.png --source page.html --renderer-url http://localhost:3000/render

  # Reuse a saved analysis report
  pixeljudge validate --analysis report.json --rendered candidate.png

  # Supply structural sub-scores from an external markup audit
  pixeljudge validate original.png --rendered candidate.png --layout-score 85 --typography-score 90`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && analysisPath == "" {
				return errors.New(errors.ErrCodeInvalidInput,
					"an original screenshot or an --analysis report is required")
			}

			vp, err := parseViewport(viewport)
			if err != nil {
				return err
			}

			src, err := loadSource(sourceFile, sourceType)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(runnerOptions{
				noCache:     noCache,
				profiles:    profiles,
				visionModel: visionModel,
				visionURL:   visionURL,
				rendererURL: rendererURL,
			})
			if err != nil {
				return err
			}
			defer runner.Close()

			var imagePath string
			if len(args) > 0 {
				imagePath = args[0]
			}

			opts := pipeline.Options{
				ImagePath:        imagePath,
				MaxColors:        maxColors,
				Method:           palette.Method(method),
				Refresh:          refresh,
				RenderedPath:     rendered,
				Source:           src,
				Viewport:         vp,
				Threshold:        threshold,
				LayoutScore:      optionalScore(layoutScore),
				TypographyScore:  optionalScore(typographyScore),
				InteractionScore: optionalScore(interactionScore),
				Logger:           c.Logger,
			}

			prog := newProgress(c.Logger)
			var (
				result *report.Validation
				info   pipeline.RunInfo
			)
			if analysisPath != "" {
				saved, err := report.ReadAnalysis(analysisPath)
				if err != nil {
					return err
				}
				result, info, err = runner.ValidateAnalyzed(cmd.Context(), saved, opts)
				if err != nil {
					printError("Validation failed: %v", err)
					return err
				}
			} else {
				result, info, err = runner.ValidateWithInfo(cmd.Context(), opts)
				if err != nil {
					printError("Validation failed: %v", err)
					return err
				}
			}
			prog.done("Validated reproduction")

			printValidation(result, info)

			if output != "" {
				if err := report.WriteValidation(output, result); err != nil {
					return err
				}
				printFile(output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the validation report to a JSON file")
	cmd.Flags().StringVar(&analysisPath, "analysis", "", "saved analysis report to reuse instead of re-analyzing")
	cmd.Flags().StringVar(&rendered, "rendered", "", "pre-rendered reproduction image file")
	cmd.Flags().StringVar(&sourceFile, "source", "", "UI source file to render through the screenshot service")
	cmd.Flags().StringVar(&sourceType, "source-type", string(renderer.SourceHTML), "source type (html, react, vue, svelte)")
	cmd.Flags().StringVar(&viewport, "viewport", "", "render viewport as WIDTHxHEIGHT (default 1280x800)")
	cmd.Flags().Float64Var(&threshold, "threshold", pipeline.DefaultThreshold, "per-pixel difference threshold (0-255)")
	cmd.Flags().IntVar(&maxColors, "colors", pipeline.DefaultMaxColors, "maximum palette size")
	cmd.Flags().StringVar(&method, "method", string(pipeline.DefaultMethod), "palette extraction method (quantize, kmeans, dominant)")
	cmd.Flags().StringVar(&profiles, "profiles", "", "TOML file with additional brand profiles")
	cmd.Flags().StringVar(&visionModel, "vision-model", "", "vision model for layout description")
	cmd.Flags().StringVar(&visionURL, "vision-url", "", "vision API base URL override")
	cmd.Flags().StringVar(&rendererURL, "renderer-url", "", "screenshot service endpoint for --source rendering")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even if a cached result exists")
	cmd.Flags().Float64Var(&layoutScore, "layout-score", -1, "layout accuracy sub-score from external markup audit (0-100)")
	cmd.Flags().Float64Var(&typographyScore, "typography-score", -1, "typography match sub-score from external markup audit (0-100)")
	cmd.Flags().Float64Var(&interactionScore, "interaction-score", -1, "interaction elements sub-score from external markup audit (0-100)")

	return cmd
}

// parseViewport parses a "WIDTHxHEIGHT" string. Empty input returns the zero
// viewport, which the pipeline replaces with its default.
func parseViewport(s string) (renderer.Viewport, error) {
	if s == "" {
		return renderer.Viewport{}, nil
	}
	w, h, ok := strings.Cut(s, "x")
	if !ok {
		return renderer.Viewport{}, errors.New(errors.ErrCodeInvalidInput,
			"invalid viewport %q (expected WIDTHxHEIGHT, e.g. 1280x800)", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return renderer.Viewport{}, errors.New(errors.ErrCodeInvalidInput, "invalid viewport width %q", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return renderer.Viewport{}, errors.New(errors.ErrCodeInvalidInput, "invalid viewport height %q", h)
	}
	return renderer.Viewport{Width: width, Height: height}, nil
}

// loadSource reads the render source file, if one was given.
func loadSource(path, sourceType string) (renderer.Source, error) {
	if path == "" {
		return renderer.Source{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return renderer.Source{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "read source file %s", path)
	}
	src := renderer.Source{Type: renderer.SourceType(sourceType), Content: string(data)}
	if err := src.Validate(); err != nil {
		return renderer.Source{}, err
	}
	return src, nil
}

// optionalScore converts a flag value to an optional sub-score.
// Negative values mean the flag was not supplied.
func optionalScore(v float64) *float64 {
	if v < 0 {
		return nil
	}
	if v > 100 {
		v = 100
	}
	return &v
}

// printValidation renders a validation summary to the terminal.
func printValidation(v *report.Validation, info pipeline.RunInfo) {
	printNewline()
	fmt.Println(StyleTitle.Render("Quality Assessment"))
	printNewline()

	printScore("Overall", float64(v.Overall))
	printScore("Confidence", v.Confidence)
	printNewline()

	printScore("Visual similarity", v.Breakdown.VisualSimilarity)
	printScore("Layout accuracy", v.Breakdown.LayoutAccuracy)
	printScore("Color matching", v.Breakdown.ColorMatching)
	printScore("Typography match", v.Breakdown.TypographyMatch)
	printScore("Interaction elements", v.Breakdown.InteractionElements)
	printScore("Brand consistency", v.Breakdown.BrandConsistency)

	if v.Comparison.Degraded {
		printNewline()
		printWarning("Pixel comparison unavailable; visual similarity uses the neutral fallback")
	} else {
		printNewline()
		printDetail("Pixel similarity %.3f across %d difference regions",
			v.Comparison.Similarity, len(v.Comparison.Regions))
	}

	if len(v.Issues) > 0 {
		printNewline()
		fmt.Println(StyleTitle.Render("Issues"))
		for _, issue := range v.Issues {
			printIssue(issue)
		}
	}

	printQualityStats(v, info)
}

func printQualityStats(v *report.Validation, info pipeline.RunInfo) {
	parts := []string{
		fmt.Sprintf("%d issues", len(v.Issues)),
		fmt.Sprintf("%d palette colors", len(v.Analysis.Palette)),
	}
	if v.Analysis.Brand.Identified() {
		parts = append(parts, "brand: "+v.Analysis.Brand.Name)
	}
	if info.Cache.AnalysisHit {
		parts = append(parts, "analysis reused")
	}
	printStats(runStatsParts(info, parts...), info.Cache.ComparisonHit)
}
