package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/pixeljudge/pixeljudge/pkg/brand"
	"github.com/pixeljudge/pixeljudge/pkg/buildinfo"
	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/pipeline"
	"github.com/pixeljudge/pixeljudge/pkg/renderer"
	"github.com/pixeljudge/pixeljudge/pkg/vision"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pixeljudge"

	// envVisionKey is the environment variable holding the vision API key.
	envVisionKey = "PIXELJUDGE_VISION_KEY"

	// envVisionKeyFallback is checked when envVisionKey is unset.
	envVisionKeyFallback = "OPENAI_API_KEY"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "pixeljudge",
		Short:        "Pixeljudge analyzes UI screenshots and scores reproductions",
		Long:         `Pixeljudge is a CLI tool for analyzing UI screenshots (color palette, brand identity, vision description) and validating rendered reproductions against them with a weighted quality score.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.analyzeCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.brandsCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// runnerOptions configures the pipeline runner built for a command run.
type runnerOptions struct {
	noCache     bool
	profiles    string // optional TOML brand profile file
	visionModel string // vision model name; empty disables the oracle
	visionURL   string // optional vision API base URL override
	rendererURL string // optional screenshot service endpoint
}

// newRunner creates a pipeline runner for CLI use. The vision oracle is
// attached only when a model is requested and an API key is present; the
// renderer only when an endpoint is given.
func (c *CLI) newRunner(opts runnerOptions) (*pipeline.Runner, error) {
	backend, err := newCache(opts.noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(backend, nil, c.Logger)

	if opts.profiles != "" {
		registry, err := brand.LoadRegistry(opts.profiles)
		if err != nil {
			return nil, err
		}
		runner.WithRegistry(registry)
	}

	if opts.visionModel != "" {
		key := os.Getenv(envVisionKey)
		if key == "" {
			key = os.Getenv(envVisionKeyFallback)
		}
		if key == "" {
			c.Logger.Warn("vision model requested but no API key found, skipping vision analysis",
				"env", envVisionKey)
		} else {
			oracle, err := vision.NewOpenAIOracle(vision.Config{
				APIKey:  key,
				BaseURL: opts.visionURL,
				Model:   opts.visionModel,
			})
			if err != nil {
				return nil, err
			}
			runner.WithOracle(oracle, opts.visionModel)
		}
	}

	if opts.rendererURL != "" {
		rd, err := renderer.NewHTTPRenderer(opts.rendererURL)
		if err != nil {
			return nil, err
		}
		runner.WithRenderer(rd)
	}

	return runner, nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/pixeljudge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
