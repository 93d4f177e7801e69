package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pixeljudge/pixeljudge/pkg/brand"
	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
	"github.com/pixeljudge/pixeljudge/pkg/report"
	"github.com/pixeljudge/pixeljudge/pkg/vision"
)

// Analyze runs the analysis stage: palette extraction, vision description,
// and brand identification for the source screenshot.
func (r *Runner) Analyze(ctx context.Context, opts Options) (*report.Analysis, error) {
	a, _, err := r.AnalyzeWithInfo(ctx, opts)
	return a, err
}

// AnalyzeWithInfo is Analyze plus cache and timing information.
func (r *Runner) AnalyzeWithInfo(ctx context.Context, opts Options) (*report.Analysis, RunInfo, error) {
	var info RunInfo
	if err := opts.ValidateForAnalyze(); err != nil {
		return nil, info, err
	}
	r.applyLogger(&opts)

	start := time.Now()
	img, err := raster.Decode(opts.ImagePath)
	if err != nil {
		return nil, info, err
	}
	info.Stats.DecodeTime = time.Since(start)
	opts.Logger.Debug("decoded image",
		"path", opts.ImagePath,
		"size", img.String(),
		"duration", info.Stats.DecodeTime.Round(time.Millisecond))

	cacheKey := r.Keyer.AnalysisKey(img.Hash(), cache.AnalysisKeyOpts{
		MaxColors:   opts.MaxColors,
		Method:      string(opts.Method),
		ProfileHash: r.Registry.Hash(),
		VisionModel: r.OracleModel,
	})

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached report.Analysis
			if err := json.Unmarshal(data, &cached); err == nil {
				info.Cache.AnalysisHit = true
				return &cached, info, nil
			}
			// Undecodable cache entry: recompute.
		}
	}

	analyzeStart := time.Now()
	a := r.analyzeImage(ctx, img, opts)
	info.Stats.AnalyzeTime = time.Since(analyzeStart)
	a.Image = report.ImageMeta{
		Path:   opts.ImagePath,
		Width:  img.Width(),
		Height: img.Height(),
		Hash:   img.Hash(),
	}

	if data, err := json.Marshal(a); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLAnalysis)
	}

	return a, info, nil
}

// analyzeImage runs the per-image analyses. Palette extraction and the
// vision call are independent and run concurrently; brand identification
// consumes both.
func (r *Runner) analyzeImage(ctx context.Context, img *raster.Image, opts Options) *report.Analysis {
	var (
		pal        palette.Palette
		desc       vision.Description
		visionUsed bool
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		pal = r.extractPalette(gctx, img, opts)
		return nil
	})

	g.Go(func() error {
		desc = vision.Defaults()
		if r.Oracle == nil {
			return nil
		}
		raw, err := r.Oracle.Describe(gctx, img, vision.DefaultPrompt)
		if err != nil {
			// Oracle failures are recoverable by contract: log and
			// continue with deterministic defaults.
			opts.Logger.Warn("vision oracle unavailable, using defaults", "err", err)
			return nil
		}
		if parsed, ok := vision.ParseDescription(raw); ok {
			desc = parsed
			visionUsed = true
		} else {
			opts.Logger.Warn("vision oracle returned unparseable output, using defaults")
		}
		return nil
	})

	// Neither goroutine returns an error; Wait is for synchronization.
	_ = g.Wait()

	match := r.identifyBrand(desc, pal)

	opts.Logger.Info("analyzed screenshot",
		"colors", len(pal),
		"brand", match.Name,
		"brand_confidence", match.Confidence,
		"vision", visionUsed)

	a := report.NewAnalysis()
	a.Palette = pal
	a.Brand = match
	a.Vision = desc
	a.VisionUsed = visionUsed
	return a
}

// extractPalette extracts the palette with its own cache layer. Palettes
// depend only on pixels and extraction options, so they outlive analysis
// entries whose vision-model or brand-profile inputs change.
func (r *Runner) extractPalette(ctx context.Context, img *raster.Image, opts Options) palette.Palette {
	key := r.Keyer.PaletteKey(img.Hash(), opts.paletteKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached palette.Palette
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached
			}
		}
	}

	pal := palette.Extract(img, palette.Options{
		MaxColors: opts.MaxColors,
		Method:    opts.Method,
	})

	if data, err := json.Marshal(pal); err == nil {
		_ = r.Cache.Set(ctx, key, data, cache.TTLPalette)
	}
	return pal
}

// identifyBrand scores the vision description and palette against the brand
// registry. Palette hexes and any colors the vision model reported are both
// candidates.
func (r *Runner) identifyBrand(desc vision.Description, pal palette.Palette) brand.Match {
	colors := pal.Hexes()
	colors = append(colors, desc.Colors...)
	return r.Registry.Identify(desc.FlatText(), colors)
}
