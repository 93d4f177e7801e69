package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pixeldiff"
	"github.com/pixeljudge/pixeljudge/pkg/quality"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
	"github.com/pixeljudge/pixeljudge/pkg/report"
)

// Validate runs the full validation stage: analyze the original screenshot,
// obtain the rendered reproduction, compare the two, and aggregate the
// metric scores into one assessment.
//
// Collaborator failures (renderer down, rendered file unreadable) degrade to
// the comparator's neutral fallback rather than aborting: the returned
// report is always fully populated.
func (r *Runner) Validate(ctx context.Context, opts Options) (*report.Validation, error) {
	v, _, err := r.ValidateWithInfo(ctx, opts)
	return v, err
}

// ValidateWithInfo is Validate plus cache and timing information.
func (r *Runner) ValidateWithInfo(ctx context.Context, opts Options) (*report.Validation, RunInfo, error) {
	if err := opts.ValidateForValidate(); err != nil {
		return nil, RunInfo{}, err
	}
	r.applyLogger(&opts)

	analysis, info, err := r.AnalyzeWithInfo(ctx, opts)
	if err != nil {
		return nil, info, err
	}
	opts.Logger.Debug("analysis ready", "cached", info.Cache.AnalysisHit)

	return r.finishValidation(ctx, analysis, info, opts)
}

// ValidateAnalyzed validates against a previously produced analysis instead
// of re-analyzing the original screenshot. The analysis supplies the palette,
// brand, and image metadata; the original pixels are still read from the
// image path for comparison when it is available.
func (r *Runner) ValidateAnalyzed(ctx context.Context, analysis *report.Analysis, opts Options) (*report.Validation, RunInfo, error) {
	var info RunInfo
	if analysis == nil {
		return nil, info, errors.New(errors.ErrCodeInvalidInput, "analysis is required")
	}
	if opts.ImagePath == "" {
		opts.ImagePath = analysis.Image.Path
	}
	if err := opts.ValidateForValidate(); err != nil {
		return nil, info, err
	}
	r.applyLogger(&opts)

	// A reused report counts as a hit: nothing was recomputed.
	info.Cache.AnalysisHit = true
	opts.Logger.Debug("reusing supplied analysis", "id", analysis.ID)

	return r.finishValidation(ctx, analysis, info, opts)
}

// finishValidation is the shared tail of the validation stage: obtain the
// rendered reproduction, compare, and aggregate.
func (r *Runner) finishValidation(ctx context.Context, analysis *report.Analysis, info RunInfo, opts Options) (*report.Validation, RunInfo, error) {
	renderStart := time.Now()
	rendered := r.obtainRendered(ctx, &opts)
	info.Stats.RenderTime = time.Since(renderStart)

	compareStart := time.Now()
	cmp, cmpHit := r.compare(ctx, analysis, rendered, opts)
	if !cmpHit {
		info.Stats.CompareTime = time.Since(compareStart)
	}
	info.Cache.ComparisonHit = cmpHit
	opts.Logger.Info("compared images",
		"similarity", cmp.Similarity,
		"regions", len(cmp.Regions),
		"degraded", cmp.Degraded,
		"cached", cmpHit)

	breakdown := r.buildBreakdown(analysis, rendered, cmp, opts)
	assessment := quality.Aggregate(breakdown)

	v := report.NewValidation()
	v.Analysis = *analysis
	v.Comparison = cmp
	v.Breakdown = breakdown
	v.Overall = assessment.Overall
	v.Confidence = assessment.Confidence
	v.Issues = assessment.Issues
	if rendered != nil {
		v.Rendered = report.ImageMeta{
			Path:   opts.RenderedPath,
			Width:  rendered.Width(),
			Height: rendered.Height(),
			Hash:   rendered.Hash(),
		}
	}

	opts.Logger.Info("validation complete",
		"overall", v.Overall,
		"confidence", v.Confidence,
		"issues", len(v.Issues))

	return v, info, nil
}

// obtainRendered produces the rendered reproduction either by decoding a
// file or by invoking the renderer collaborator. Failures return nil, which
// the comparator turns into its neutral fallback.
func (r *Runner) obtainRendered(ctx context.Context, opts *Options) *raster.Image {
	if opts.RenderedPath != "" {
		img, err := raster.Decode(opts.RenderedPath)
		if err != nil {
			opts.Logger.Warn("rendered image unreadable, falling back to neutral comparison",
				"path", opts.RenderedPath, "err", err)
			return nil
		}
		return img
	}

	if r.Renderer == nil {
		opts.Logger.Warn("no renderer configured, falling back to neutral comparison")
		return nil
	}

	start := time.Now()
	img, err := r.Renderer.Render(ctx, opts.Source, opts.Viewport)
	if err != nil {
		if errors.Is(err, errors.ErrCodeInvalidSource) {
			// Source rejections are caller mistakes, not collaborator
			// outages; still degrade, but say why loudly.
			opts.Logger.Error("renderer rejected source", "err", err)
		} else {
			opts.Logger.Warn("renderer unavailable, falling back to neutral comparison", "err", err)
		}
		return nil
	}
	opts.Logger.Debug("rendered source",
		"size", img.String(),
		"duration", time.Since(start).Round(time.Millisecond))
	return img
}

// compare runs the pixel comparison with caching. Degraded comparisons are
// not cached: they reflect a transient collaborator failure, not content.
func (r *Runner) compare(ctx context.Context, analysis *report.Analysis, rendered *raster.Image, opts Options) (pixeldiff.Result, bool) {
	var cacheKey string
	if rendered != nil {
		cacheKey = r.Keyer.ComparisonKey(analysis.Image.Hash, rendered.Hash(), opts.comparisonKeyOpts())
		if !opts.Refresh {
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				var cached pixeldiff.Result
				if err := json.Unmarshal(data, &cached); err == nil {
					return cached, true
				}
			}
		}
	}

	var original *raster.Image
	if rendered != nil {
		img, err := raster.Decode(opts.ImagePath)
		if err != nil {
			// Analyze already decoded this file; losing it mid-run is a
			// read failure the comparator degrades on.
			opts.Logger.Warn("original image unreadable for comparison", "err", err)
			img = nil
		}
		original = img
	}

	cmp := pixeldiff.Compare(original, rendered, pixeldiff.Options{Threshold: opts.Threshold})

	if cacheKey != "" && !cmp.Degraded {
		if data, err := json.Marshal(cmp); err == nil {
			_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLComparison)
		}
	}
	return cmp, false
}

// buildBreakdown assembles the six-metric score vector from the analysis,
// the comparison, and any structural sub-scores the caller supplied.
// Unavailable sub-analyses keep the neutral score.
func (r *Runner) buildBreakdown(analysis *report.Analysis, rendered *raster.Image, cmp pixeldiff.Result, opts Options) quality.Breakdown {
	b := quality.NeutralBreakdown()

	if !cmp.Degraded {
		b.VisualSimilarity = cmp.Similarity * 100
	}

	if rendered != nil {
		renderedPalette := palette.Extract(rendered, palette.Options{
			MaxColors: opts.MaxColors,
			Method:    opts.Method,
		})
		b.ColorMatching = colorMatchScore(analysis.Palette, renderedPalette)
	}

	if analysis.Brand.Identified() {
		b.BrandConsistency = analysis.Brand.Confidence * 100
	}

	if opts.LayoutScore != nil {
		b.LayoutAccuracy = *opts.LayoutScore
	}
	if opts.TypographyScore != nil {
		b.TypographyMatch = *opts.TypographyScore
	}
	if opts.InteractionScore != nil {
		b.InteractionElements = *opts.InteractionScore
	}

	return b
}

// colorMatchScore measures how well the rendered palette reproduces the
// original palette: each original color contributes its RGB closeness to the
// nearest rendered color, weighted by coverage. Returns a 0-100 score.
func colorMatchScore(original, rendered palette.Palette) float64 {
	if len(original) == 0 || len(rendered) == 0 {
		return quality.NeutralScore
	}

	maxDistance := 255 * math.Sqrt(3)
	var weighted, totalWeight float64

	for _, o := range original {
		best := math.MaxFloat64
		for _, c := range rendered {
			dr := float64(o.R) - float64(c.R)
			dg := float64(o.G) - float64(c.G)
			db := float64(o.B) - float64(c.B)
			if d := math.Sqrt(dr*dr + dg*dg + db*db); d < best {
				best = d
			}
		}
		closeness := 1 - best/maxDistance
		if closeness < 0 {
			closeness = 0
		}

		weight := o.Coverage
		if weight <= 0 {
			weight = 0.01
		}
		weighted += closeness * weight
		totalWeight += weight
	}

	if totalWeight <= 0 {
		return quality.NeutralScore
	}
	return weighted / totalWeight * 100
}
