// Package palette extracts ranked color palettes from raster images.
//
// The default extractor is a deliberate lossy approximation, not a clustering
// algorithm: the image is downsampled to a fixed grid, each channel is
// quantized to merge near-duplicate colors, and the most frequent quantized
// colors win. This trades fidelity for speed and determinism and is the
// tested, documented behavior.
//
// Two alternative methods are available for callers that want higher fidelity
// at higher cost: k-means clustering and dominant-color selection. All
// methods uphold the same contract: between 1 and MaxColors samples, each
// coverage in [0,1], coverages summing to at most 1.
//
// Extraction never fails. Degenerate input produces a fixed fallback palette
// so that palette extraction can never block the rest of the pipeline.
package palette

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// Method selects the extraction algorithm.
type Method string

// Supported extraction methods.
const (
	// MethodQuantize is the default grid-sample-and-bucket extractor.
	MethodQuantize Method = "quantize"

	// MethodKMeans clusters sampled pixels with k-means.
	MethodKMeans Method = "kmeans"

	// MethodDominant selects perceptually dominant colors.
	MethodDominant Method = "dominant"
)

// Extraction constants for the default method.
const (
	// DefaultMaxColors is the palette size returned when unspecified.
	DefaultMaxColors = 5

	// gridSize is the downsampling grid edge; at most gridSize² pixels are
	// sampled regardless of image size.
	gridSize = 50

	// bucketSize is the channel quantization step used to merge
	// near-duplicate colors.
	bucketSize = 16
)

// Sample is a single palette entry: an RGB color with an HSL derivation and
// the fraction of sampled image area it covers.
type Sample struct {
	Hex      string  `json:"hex"`
	R        uint8   `json:"r"`
	G        uint8   `json:"g"`
	B        uint8   `json:"b"`
	H        float64 `json:"h"`
	S        float64 `json:"s"`
	L        float64 `json:"l"`
	Coverage float64 `json:"coverage"`
}

// Palette is a ranked sequence of color samples, ordered by descending
// coverage with ties broken by first observation.
type Palette []Sample

// Options configures palette extraction.
type Options struct {
	// MaxColors bounds the palette size. Defaults to DefaultMaxColors.
	MaxColors int

	// Method selects the extraction algorithm. Defaults to MethodQuantize.
	Method Method
}

// setDefaults applies default values to unset options.
func (o *Options) setDefaults() {
	if o.MaxColors <= 0 {
		o.MaxColors = DefaultMaxColors
	}
	if o.Method == "" {
		o.Method = MethodQuantize
	}
}

// Extract returns the ranked palette of img.
//
// Extract never returns an error: a nil or empty image, or a failure in one
// of the clustering methods, yields Fallback() so downstream scoring always
// has a palette to work with.
func Extract(img *raster.Image, opts Options) Palette {
	opts.setDefaults()

	if img == nil || img.Width() <= 0 || img.Height() <= 0 {
		return Fallback()
	}

	var p Palette
	switch opts.Method {
	case MethodKMeans:
		p = extractKMeans(img, opts.MaxColors)
	case MethodDominant:
		p = extractDominant(img, opts.MaxColors)
	default:
		p = extractQuantized(img, opts.MaxColors)
	}

	if len(p) == 0 {
		return Fallback()
	}
	return p
}

// Fallback is the fixed palette returned when extraction cannot run.
// Neutral UI colors plus a generic primary blue.
func Fallback() Palette {
	return Palette{
		NewSample(255, 255, 255, 0.4),
		NewSample(0, 0, 0, 0.3),
		NewSample(128, 128, 128, 0.2),
		NewSample(0, 102, 255, 0.1),
	}
}

// NewSample builds a Sample from RGB channels and a coverage fraction,
// deriving the hex form and HSL channels.
func NewSample(r, g, b uint8, coverage float64) Sample {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, l := c.Hsl()
	return Sample{
		Hex:      fmt.Sprintf("#%02X%02X%02X", r, g, b),
		R:        r,
		G:        g,
		B:        b,
		H:        h,
		S:        s,
		L:        l,
		Coverage: coverage,
	}
}

// Hexes returns the palette's colors as hex strings, in rank order.
func (p Palette) Hexes() []string {
	out := make([]string, len(p))
	for i, s := range p {
		out[i] = s.Hex
	}
	return out
}

// Dominant returns the highest-coverage sample, or a zero Sample for an
// empty palette.
func (p Palette) Dominant() Sample {
	if len(p) == 0 {
		return Sample{}
	}
	return p[0]
}

// Secondary returns the second-ranked sample, if any.
func (p Palette) Secondary() (Sample, bool) {
	if len(p) < 2 {
		return Sample{}, false
	}
	return p[1], true
}

// Accents returns the remaining samples past the dominant and secondary tiers.
func (p Palette) Accents() []Sample {
	if len(p) <= 2 {
		return nil
	}
	return p[2:]
}

// extractQuantized implements the default grid-sample-and-bucket method.
func extractQuantized(img *raster.Image, maxColors int) Palette {
	type bucket struct {
		r, g, b   uint8
		count     int
		firstSeen int
	}

	w, h := img.Width(), img.Height()
	counts := make(map[uint32]*bucket)
	total := 0

	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			x := gx * w / gridSize
			y := gy * h / gridSize
			r, g, b, _ := img.RGBA(x, y)

			qr, qg, qb := quantize(r), quantize(g), quantize(b)
			key := uint32(qr)<<16 | uint32(qg)<<8 | uint32(qb)
			if bk, ok := counts[key]; ok {
				bk.count++
			} else {
				counts[key] = &bucket{r: qr, g: qg, b: qb, count: 1, firstSeen: total}
			}
			total++
		}
	}

	if total == 0 {
		return nil
	}

	buckets := make([]*bucket, 0, len(counts))
	for _, bk := range counts {
		buckets = append(buckets, bk)
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].firstSeen < buckets[j].firstSeen
	})

	if len(buckets) > maxColors {
		buckets = buckets[:maxColors]
	}

	p := make(Palette, 0, len(buckets))
	for _, bk := range buckets {
		p = append(p, NewSample(bk.r, bk.g, bk.b, float64(bk.count)/float64(total)))
	}
	return p
}

// quantize snaps a channel value to the nearest multiple of bucketSize,
// clamped to the valid channel range.
func quantize(v uint8) uint8 {
	q := math.Round(float64(v)/bucketSize) * bucketSize
	if q > 255 {
		q = 255
	}
	return uint8(q)
}
