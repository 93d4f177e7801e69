// Package pixeldiff compares two raster images pixel by pixel.
//
// Both images are resized to their shared minimum dimensions so pixel indices
// align 1:1, then the Euclidean distance between corresponding RGB values is
// accumulated into an overall similarity score. Pixels whose distance exceeds
// a threshold are flagged as localized difference regions, capped at a fixed
// maximum and ordered most severe first.
//
// Comparison never aborts the caller's workflow: unreadable input degrades to
// a documented neutral result.
package pixeldiff

import (
	"math"
	"sort"

	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// Comparison constants.
const (
	// DefaultThreshold is the per-pixel Euclidean RGB distance above which a
	// pixel pair becomes a difference region.
	DefaultThreshold = 30.0

	// MaxRegions caps how many difference regions a comparison reports.
	// Distance accumulation continues past the cap; only region recording
	// stops.
	MaxRegions = 100

	// NeutralSimilarity is returned when either image cannot be read.
	NeutralSimilarity = 0.5
)

// maxChannelDistance is the largest Euclidean distance between two RGB
// colors: 255 × √3, the diagonal of the color cube.
var maxChannelDistance = 255 * math.Sqrt(3)

// Kind classifies what a difference region represents.
type Kind string

// Region kinds.
const (
	// KindColor marks a pixel-level color mismatch.
	KindColor Kind = "color"

	// KindStructure marks a structural divergence (element shifted or
	// reshaped).
	KindStructure Kind = "structure"

	// KindMissing marks content present in the original but absent in the
	// rendering.
	KindMissing Kind = "missing"

	// KindExtra marks content present in the rendering but not the original.
	KindExtra Kind = "extra"
)

// Region is a localized area flagged as visually divergent.
type Region struct {
	X        int     `json:"x"`
	Y        int     `json:"y"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Severity float64 `json:"severity"`
	Kind     Kind    `json:"kind"`
}

// Result holds the outcome of a pixel comparison.
type Result struct {
	// Similarity is the overall visual similarity in [0,1].
	Similarity float64 `json:"similarity"`

	// Regions lists flagged difference regions, most severe first,
	// at most MaxRegions entries.
	Regions []Region `json:"regions,omitempty"`

	// Width and Height are the aligned comparison dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Degraded reports that one of the inputs was unreadable and the
	// neutral fallback was returned.
	Degraded bool `json:"degraded,omitempty"`
}

// Options configures a comparison.
type Options struct {
	// Threshold overrides DefaultThreshold when positive.
	Threshold float64
}

// Compare computes the similarity between an original image and a rendered
// reproduction.
//
// A nil or empty input yields the neutral fallback (similarity 0.5, no
// regions) rather than an error, so a renderer failure upstream cannot abort
// a validation run.
func Compare(original, rendered *raster.Image, opts Options) Result {
	if !readable(original) || !readable(rendered) {
		return Result{Similarity: NeutralSimilarity, Degraded: true}
	}

	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	width := min(original.Width(), rendered.Width())
	height := min(original.Height(), rendered.Height())

	a := original.Resize(width, height)
	b := rendered.Resize(width, height)

	var totalDistance float64
	var regions []Region

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			ar, ag, ab, _ := a.RGBA(x, y)
			br, bg, bb, _ := b.RGBA(x, y)

			dr := float64(ar) - float64(br)
			dg := float64(ag) - float64(bg)
			db := float64(ab) - float64(bb)
			distance := math.Sqrt(dr*dr + dg*dg + db*db)
			totalDistance += distance

			if distance > threshold && len(regions) < MaxRegions {
				regions = append(regions, Region{
					X:        x,
					Y:        y,
					Width:    1,
					Height:   1,
					Severity: math.Min(distance/255, 1),
					Kind:     KindColor,
				})
			}
		}
	}

	pixelCount := float64(width * height)
	maxPossible := pixelCount * maxChannelDistance

	similarity := 1.0
	if maxPossible > 0 {
		similarity = 1 - totalDistance/maxPossible
	}
	if similarity < 0 {
		similarity = 0
	}
	if similarity > 1 {
		similarity = 1
	}

	sort.SliceStable(regions, func(i, j int) bool {
		return regions[i].Severity > regions[j].Severity
	})

	return Result{
		Similarity: similarity,
		Regions:    regions,
		Width:      width,
		Height:     height,
	}
}

// Identical reports whether the comparison found no divergence at all.
func (r Result) Identical() bool {
	return !r.Degraded && r.Similarity == 1 && len(r.Regions) == 0
}

func readable(img *raster.Image) bool {
	return img != nil && img.Width() > 0 && img.Height() > 0
}
