// Package pipeline provides the core analysis and validation pipeline.
//
// This package implements the screenshot → analysis → validation flow shared
// by the CLI and the HTTP API. Centralizing it keeps behavior consistent
// across entry points.
//
// # Architecture
//
// Two operations are exposed:
//
//  1. Analyze: decode a screenshot, extract its color palette, describe it
//     through the vision oracle, and identify the brand.
//  2. Validate: analyze the original, obtain a rendered reproduction (from a
//     file or the renderer collaborator), compare the two pixel by pixel,
//     and aggregate the metric scores into one assessment.
//
// Palette extraction and the vision call depend only on the source image and
// run concurrently. The comparison is a later stage because it needs the
// rendered bitmap.
//
// Collaborator failures (vision model, renderer) degrade to documented
// fallback values so a validation run always produces a complete report.
// Input errors (missing file, unsupported format) fail fast.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{ImagePath: "shot.png"}
//	analysis, err := runner.Analyze(ctx, opts)
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pixeldiff"
	"github.com/pixeljudge/pixeljudge/pkg/renderer"
)

// Default values shared by CLI and API.
const (
	// DefaultMaxColors is the default palette size.
	DefaultMaxColors = palette.DefaultMaxColors

	// DefaultThreshold is the default pixel difference threshold.
	DefaultThreshold = pixeldiff.DefaultThreshold
)

// DefaultMethod is the default palette extraction method.
const DefaultMethod = palette.MethodQuantize

// ValidMethods is the set of supported palette extraction methods.
var ValidMethods = map[palette.Method]bool{
	palette.MethodQuantize: true,
	palette.MethodKMeans:   true,
	palette.MethodDominant: true,
}

// ValidateMethod checks that a palette method is valid.
func ValidateMethod(m palette.Method) error {
	if !ValidMethods[m] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid palette method: %q (must be one of: quantize, kmeans, dominant)", m)
	}
	return nil
}

// Options contains all configuration for an analysis or validation run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Analysis inputs
	ImagePath string         `json:"image_path,omitempty"`
	MaxColors int            `json:"max_colors,omitempty"`
	Method    palette.Method `json:"method,omitempty"`
	Refresh   bool           `json:"refresh,omitempty"`

	// Validation inputs: either a pre-rendered image file or source code
	// for the renderer collaborator.
	RenderedPath string            `json:"rendered_path,omitempty"`
	Source       renderer.Source   `json:"source,omitempty"`
	Viewport     renderer.Viewport `json:"viewport,omitempty"`
	Threshold    float64           `json:"threshold,omitempty"`

	// Structural sub-scores derived by inspecting the candidate
	// implementation's markup (an external concern, consumed here only as
	// numbers in [0,100]). Nil means unavailable → neutral score.
	LayoutScore      *float64 `json:"layout_score,omitempty"`
	TypographyScore  *float64 `json:"typography_score,omitempty"`
	InteractionScore *float64 `json:"interaction_score,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// ValidateForAnalyze checks required fields and applies defaults for an
// analysis run.
func (o *Options) ValidateForAnalyze() error {
	if o.ImagePath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "image path is required")
	}
	if o.MaxColors == 0 {
		o.MaxColors = DefaultMaxColors
	}
	if o.MaxColors < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "max colors must be positive")
	}
	if o.Method == "" {
		o.Method = DefaultMethod
	}
	if err := ValidateMethod(o.Method); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ValidateForValidate checks required fields and applies defaults for a
// validation run.
func (o *Options) ValidateForValidate() error {
	if err := o.ValidateForAnalyze(); err != nil {
		return err
	}
	if o.RenderedPath == "" && o.Source.Content == "" {
		return errors.New(errors.ErrCodeInvalidInput, "rendered image path or render source is required")
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Threshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "threshold must be positive")
	}
	if o.Viewport.Width <= 0 || o.Viewport.Height <= 0 {
		o.Viewport = renderer.DefaultViewport
	}
	return nil
}

// paletteKeyOpts returns the cache key options for palette extraction.
func (o *Options) paletteKeyOpts() cache.PaletteKeyOpts {
	return cache.PaletteKeyOpts{
		MaxColors: o.MaxColors,
		Method:    string(o.Method),
	}
}

// comparisonKeyOpts returns the cache key options for pixel comparison.
func (o *Options) comparisonKeyOpts() cache.ComparisonKeyOpts {
	return cache.ComparisonKeyOpts{
		Threshold:  o.Threshold,
		MaxRegions: pixeldiff.MaxRegions,
	}
}

// Stats contains per-stage timings for a pipeline run. Stages served from
// cache report zero.
type Stats struct {
	DecodeTime  time.Duration
	AnalyzeTime time.Duration
	RenderTime  time.Duration
	CompareTime time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	AnalysisHit   bool
	ComparisonHit bool
}

// RunInfo describes how a run executed: which stages were served from cache
// and how long the computed stages took.
type RunInfo struct {
	Cache CacheInfo
	Stats Stats
}
