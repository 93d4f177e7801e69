package pipeline

import (
	"github.com/charmbracelet/log"

	"github.com/pixeljudge/pixeljudge/pkg/brand"
	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/renderer"
	"github.com/pixeljudge/pixeljudge/pkg/vision"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating orchestration logic.
//
// The Runner is stateless apart from its collaborators — it stores no run
// results. Multiple goroutines can safely share one Runner.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
	Registry *brand.Registry

	// Oracle is the optional vision-model collaborator. When nil, analysis
	// proceeds with deterministic defaults.
	Oracle vision.Oracle

	// OracleModel names the oracle's model for cache keying, so switching
	// models invalidates cached analyses.
	OracleModel string

	// Renderer is the optional rendering collaborator, needed only when a
	// validation run passes source code instead of a rendered image file.
	Renderer renderer.Renderer
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
// If registry is nil, the builtin brand registry is used.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
		Registry: brand.Builtin(),
	}
}

// WithRegistry replaces the brand registry and returns the runner.
func (r *Runner) WithRegistry(reg *brand.Registry) *Runner {
	if reg != nil {
		r.Registry = reg
	}
	return r
}

// WithOracle attaches the vision oracle and returns the runner.
func (r *Runner) WithOracle(o vision.Oracle, model string) *Runner {
	r.Oracle = o
	r.OracleModel = model
	return r
}

// WithRenderer attaches the rendering collaborator and returns the runner.
func (r *Runner) WithRenderer(rd renderer.Renderer) *Runner {
	r.Renderer = rd
	return r
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
