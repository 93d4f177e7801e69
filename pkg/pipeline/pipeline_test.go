package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/errors"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/quality"
	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// writeSolidPNG writes a single-color PNG and returns its path.
func writeSolidPNG(t *testing.T, dir, name string, w, h int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// fakeOracle is a canned vision collaborator.
type fakeOracle struct {
	reply string
	err   error
	calls int
}

func (o *fakeOracle) Describe(ctx context.Context, img *raster.Image, prompt string) (string, error) {
	o.calls++
	if o.err != nil {
		return "", o.err
	}
	return o.reply, nil
}

func TestAnalyzeBasic(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "shot.png", 60, 40, color.NRGBA{R: 245, G: 247, B: 250, A: 255})

	r := NewRunner(nil, nil, nil)
	a, err := r.Analyze(context.Background(), Options{ImagePath: path})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if a.ID == "" {
		t.Error("analysis should carry a run id")
	}
	if a.Image.Width != 60 || a.Image.Height != 40 {
		t.Errorf("image meta = %dx%d, want 60x40", a.Image.Width, a.Image.Height)
	}
	if a.Image.Hash == "" {
		t.Error("image meta should carry a content hash")
	}
	if len(a.Palette) == 0 {
		t.Fatal("palette should not be empty")
	}
	if a.VisionUsed {
		t.Error("no oracle configured, VisionUsed should be false")
	}
}

func TestAnalyzeMissingImage(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Analyze(context.Background(), Options{ImagePath: filepath.Join(t.TempDir(), "absent.png")})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing image should fail fast with FILE_NOT_FOUND, got %v", err)
	}
}

func TestAnalyzeRequiresPath(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Analyze(context.Background(), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("empty path should be INVALID_INPUT, got %v", err)
	}
}

func TestAnalyzeWithOracle(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "toss.png", 50, 50, color.NRGBA{R: 0, G: 100, B: 255, A: 255})

	oracle := &fakeOracle{reply: `{"summary": "toss payment app home screen",
		"layout": "single column", "colors": ["#0064FF"],
		"elements": [{"type": "button", "label": "송금", "interactive": true}]}`}

	r := NewRunner(nil, nil, nil).WithOracle(oracle, "test-model")
	a, err := r.Analyze(context.Background(), Options{ImagePath: path})
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if !a.VisionUsed {
		t.Fatal("oracle replied with valid JSON, VisionUsed should be true")
	}
	if oracle.calls != 1 {
		t.Errorf("oracle calls = %d, want 1", oracle.calls)
	}
	// Keyword + pattern + the oracle-reported brand color clear the threshold.
	if a.Brand.Name != "toss" {
		t.Errorf("brand = %q (confidence %f), want toss", a.Brand.Name, a.Brand.Confidence)
	}
}

func TestAnalyzeOracleFailureDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "shot.png", 30, 30, color.NRGBA{R: 200, G: 200, B: 200, A: 255})

	oracle := &fakeOracle{err: errors.New(errors.ErrCodeOracle, "model offline")}
	r := NewRunner(nil, nil, nil).WithOracle(oracle, "test-model")

	a, err := r.Analyze(context.Background(), Options{ImagePath: path})
	if err != nil {
		t.Fatalf("oracle failure must not abort analysis: %v", err)
	}
	if a.VisionUsed {
		t.Error("failed oracle should leave VisionUsed false")
	}
	if len(a.Palette) == 0 {
		t.Error("palette extraction should proceed despite oracle failure")
	}
}

func TestAnalyzeUnparseableOracleOutput(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "shot.png", 30, 30, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	oracle := &fakeOracle{reply: "I see a nice screenshot but won't give you JSON."}
	r := NewRunner(nil, nil, nil).WithOracle(oracle, "test-model")

	a, err := r.Analyze(context.Background(), Options{ImagePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if a.VisionUsed {
		t.Error("unparseable output should fall back to defaults")
	}
	if !a.Vision.Empty() {
		t.Errorf("vision should be empty defaults, got %+v", a.Vision)
	}
}

func TestAnalyzeCaching(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "shot.png", 40, 40, color.NRGBA{R: 0, G: 100, B: 255, A: 255})

	backend, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil)
	defer r.Close()

	ctx := context.Background()
	first, info, err := r.AnalyzeWithInfo(ctx, Options{ImagePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if info.Cache.AnalysisHit {
		t.Error("first run should miss the cache")
	}
	if info.Stats.AnalyzeTime <= 0 {
		t.Error("computed run should report analyze time")
	}

	second, info, err := r.AnalyzeWithInfo(ctx, Options{ImagePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if !info.Cache.AnalysisHit {
		t.Error("second run should hit the cache")
	}
	if info.Stats.AnalyzeTime != 0 {
		t.Error("cached run should report zero analyze time")
	}
	if second.ID != first.ID {
		t.Error("cached analysis should be returned verbatim")
	}

	// Refresh bypasses the cached entry.
	third, info, err := r.AnalyzeWithInfo(ctx, Options{ImagePath: path, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if info.Cache.AnalysisHit {
		t.Error("refresh run should not report a cache hit")
	}
	if third.ID == first.ID {
		t.Error("refresh should recompute the analysis")
	}
}

// spyCache wraps a backend and records every stored key.
type spyCache struct {
	cache.Cache
	stored []string
}

func (c *spyCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.stored = append(c.stored, key)
	return c.Cache.Set(ctx, key, data, ttl)
}

func countPrefix(keys []string, prefix string) int {
	n := 0
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n
}

func TestAnalyzePaletteCaching(t *testing.T) {
	dir := t.TempDir()
	path := writeSolidPNG(t, dir, "shot.png", 40, 40, color.NRGBA{R: 0, G: 100, B: 255, A: 255})

	backend, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	defer backend.Close()
	spy := &spyCache{Cache: backend}
	ctx := context.Background()

	first, err := NewRunner(spy, nil, nil).Analyze(ctx, Options{ImagePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if got := countPrefix(spy.stored, "palette:"); got != 1 {
		t.Fatalf("stored palette entries = %d, want 1", got)
	}

	// A different vision model invalidates the analysis entry but not the
	// palette, which depends only on pixels and extraction options.
	second, err := NewRunner(spy, nil, nil).WithOracle(nil, "other-model").Analyze(ctx, Options{ImagePath: path})
	if err != nil {
		t.Fatal(err)
	}
	if got := countPrefix(spy.stored, "analysis:"); got != 2 {
		t.Errorf("stored analysis entries = %d, want 2", got)
	}
	if got := countPrefix(spy.stored, "palette:"); got != 1 {
		t.Errorf("palette should be served from cache, stored entries = %d", got)
	}
	if len(second.Palette) != len(first.Palette) || second.Palette[0] != first.Palette[0] {
		t.Errorf("cached palette differs: %+v vs %+v", second.Palette, first.Palette)
	}
}

func TestValidateAgainstIdenticalRendering(t *testing.T) {
	dir := t.TempDir()
	blue := color.NRGBA{R: 0, G: 100, B: 255, A: 255}
	original := writeSolidPNG(t, dir, "original.png", 50, 50, blue)
	rendered := writeSolidPNG(t, dir, "rendered.png", 50, 50, blue)

	r := NewRunner(nil, nil, nil)
	v, err := r.Validate(context.Background(), Options{ImagePath: original, RenderedPath: rendered})
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}

	if v.Comparison.Degraded {
		t.Fatal("comparison should not be degraded")
	}
	if v.Comparison.Similarity != 1.0 {
		t.Errorf("similarity = %f, want 1.0", v.Comparison.Similarity)
	}
	if v.Breakdown.VisualSimilarity != 100 {
		t.Errorf("visualSimilarity = %f, want 100", v.Breakdown.VisualSimilarity)
	}
	if v.Breakdown.ColorMatching < 99 {
		t.Errorf("colorMatching = %f, want ~100 for identical palettes", v.Breakdown.ColorMatching)
	}
	if v.Overall < 0 || v.Overall > 100 {
		t.Errorf("overall %d outside [0,100]", v.Overall)
	}
	if v.Rendered.Width != 50 || v.Rendered.Height != 50 {
		t.Errorf("rendered meta = %dx%d", v.Rendered.Width, v.Rendered.Height)
	}
}

func TestValidateUnreadableRenderedDegrades(t *testing.T) {
	dir := t.TempDir()
	original := writeSolidPNG(t, dir, "original.png", 20, 20, color.NRGBA{R: 255, A: 255})

	r := NewRunner(nil, nil, nil)
	v, err := r.Validate(context.Background(), Options{
		ImagePath:    original,
		RenderedPath: filepath.Join(dir, "never-rendered.png"),
	})
	if err != nil {
		t.Fatalf("unreadable rendered image must degrade, not fail: %v", err)
	}

	if !v.Comparison.Degraded {
		t.Error("comparison should be degraded")
	}
	// Neutral fallback keeps the breakdown fully populated.
	if v.Breakdown.VisualSimilarity != quality.NeutralScore {
		t.Errorf("visualSimilarity = %f, want neutral %f", v.Breakdown.VisualSimilarity, quality.NeutralScore)
	}
	if v.Overall < 0 || v.Overall > 100 {
		t.Errorf("overall %d outside [0,100]", v.Overall)
	}
}

func TestValidateWithInfoCaching(t *testing.T) {
	dir := t.TempDir()
	blue := color.NRGBA{R: 0, G: 100, B: 255, A: 255}
	original := writeSolidPNG(t, dir, "original.png", 40, 40, blue)
	rendered := writeSolidPNG(t, dir, "rendered.png", 40, 40, blue)

	backend, err := cache.NewFileCache(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(backend, nil, nil)
	defer r.Close()

	ctx := context.Background()
	opts := Options{ImagePath: original, RenderedPath: rendered}

	_, info, err := r.ValidateWithInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if info.Cache.AnalysisHit || info.Cache.ComparisonHit {
		t.Errorf("first run should miss both caches: %+v", info.Cache)
	}
	if info.Stats.CompareTime <= 0 {
		t.Error("computed comparison should report compare time")
	}

	_, info, err = r.ValidateWithInfo(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Cache.AnalysisHit || !info.Cache.ComparisonHit {
		t.Errorf("second run should hit both caches: %+v", info.Cache)
	}
	if info.Stats.CompareTime != 0 {
		t.Error("cached comparison should report zero compare time")
	}
}

func TestValidateAnalyzedReusesAnalysis(t *testing.T) {
	dir := t.TempDir()
	blue := color.NRGBA{R: 0, G: 100, B: 255, A: 255}
	original := writeSolidPNG(t, dir, "original.png", 50, 50, blue)
	rendered := writeSolidPNG(t, dir, "rendered.png", 50, 50, blue)

	oracle := &fakeOracle{reply: `{"summary": "toss payment app home screen",
		"layout": "single column", "colors": ["#0064FF"]}`}
	r := NewRunner(nil, nil, nil).WithOracle(oracle, "test-model")

	ctx := context.Background()
	analysis, err := r.Analyze(ctx, Options{ImagePath: original})
	if err != nil {
		t.Fatal(err)
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle calls = %d, want 1", oracle.calls)
	}

	// The image path comes from the analysis when not supplied.
	v, info, err := r.ValidateAnalyzed(ctx, analysis, Options{RenderedPath: rendered})
	if err != nil {
		t.Fatalf("ValidateAnalyzed error: %v", err)
	}

	if oracle.calls != 1 {
		t.Errorf("oracle calls = %d, a reused analysis should not re-analyze", oracle.calls)
	}
	if !info.Cache.AnalysisHit {
		t.Error("reused analysis should count as an analysis hit")
	}
	if v.Analysis.ID != analysis.ID {
		t.Errorf("validation carries analysis %s, want the supplied %s", v.Analysis.ID, analysis.ID)
	}
	if v.Comparison.Similarity != 1.0 {
		t.Errorf("similarity = %f, want 1.0", v.Comparison.Similarity)
	}
	if v.Analysis.Brand.Name != "toss" {
		t.Errorf("brand = %q, want toss", v.Analysis.Brand.Name)
	}
}

func TestValidateAnalyzedRequiresAnalysis(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, _, err := r.ValidateAnalyzed(context.Background(), nil, Options{RenderedPath: "x.png"})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("nil analysis should be INVALID_INPUT, got %v", err)
	}
}

func TestValidateRequiresRenderedOrSource(t *testing.T) {
	dir := t.TempDir()
	original := writeSolidPNG(t, dir, "original.png", 10, 10, color.NRGBA{A: 255})

	r := NewRunner(nil, nil, nil)
	_, err := r.Validate(context.Background(), Options{ImagePath: original})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing rendered input should be INVALID_INPUT, got %v", err)
	}
}

func TestValidateStructuralScores(t *testing.T) {
	dir := t.TempDir()
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	original := writeSolidPNG(t, dir, "original.png", 30, 30, gray)
	rendered := writeSolidPNG(t, dir, "rendered.png", 30, 30, gray)

	layout, typography := 42.0, 91.0
	r := NewRunner(nil, nil, nil)
	v, err := r.Validate(context.Background(), Options{
		ImagePath:       original,
		RenderedPath:    rendered,
		LayoutScore:     &layout,
		TypographyScore: &typography,
	})
	if err != nil {
		t.Fatal(err)
	}

	if v.Breakdown.LayoutAccuracy != 42 {
		t.Errorf("layoutAccuracy = %f, want 42", v.Breakdown.LayoutAccuracy)
	}
	if v.Breakdown.TypographyMatch != 91 {
		t.Errorf("typographyMatch = %f, want 91", v.Breakdown.TypographyMatch)
	}
	// Unsupplied sub-scores keep the neutral value.
	if v.Breakdown.InteractionElements != quality.NeutralScore {
		t.Errorf("interactionElements = %f, want neutral", v.Breakdown.InteractionElements)
	}

	// A 42 layout score is a 38-point shortfall → critical issue.
	foundCritical := false
	for _, issue := range v.Issues {
		if issue.Kind == "layout-drift" && issue.Severity == quality.SeverityCritical {
			foundCritical = true
		}
	}
	if !foundCritical {
		t.Errorf("expected a critical layout-drift issue, got %+v", v.Issues)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{ImagePath: "x.png"}
	if err := opts.ValidateForAnalyze(); err != nil {
		t.Fatal(err)
	}
	if opts.MaxColors != DefaultMaxColors {
		t.Errorf("MaxColors = %d, want default %d", opts.MaxColors, DefaultMaxColors)
	}
	if opts.Method != DefaultMethod {
		t.Errorf("Method = %s, want default %s", opts.Method, DefaultMethod)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsInvalidMethod(t *testing.T) {
	opts := Options{ImagePath: "x.png", Method: palette.Method("octree")}
	if err := opts.ValidateForAnalyze(); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("invalid method should be INVALID_INPUT, got %v", err)
	}
}
