package palette

import (
	"sort"

	"github.com/cenkalti/dominantcolor"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// extractKMeans clusters grid-sampled pixels with k-means and ranks cluster
// centers by cluster size. Falls back to the quantized method when the
// clustering cannot run (e.g. fewer distinct colors than clusters).
func extractKMeans(img *raster.Image, maxColors int) Palette {
	w, h := img.Width(), img.Height()

	var obs clusters.Observations
	for gy := 0; gy < gridSize; gy++ {
		for gx := 0; gx < gridSize; gx++ {
			r, g, b, _ := img.RGBA(gx*w/gridSize, gy*h/gridSize)
			obs = append(obs, clusters.Coordinates{
				float64(r) / 255,
				float64(g) / 255,
				float64(b) / 255,
			})
		}
	}
	if len(obs) == 0 {
		return nil
	}

	k := maxColors
	if k > len(obs) {
		k = len(obs)
	}

	km := kmeans.New()
	partition, err := km.Partition(obs, k)
	if err != nil {
		return extractQuantized(img, maxColors)
	}

	total := len(obs)
	p := make(Palette, 0, len(partition))
	for _, c := range partition {
		center := c.Center
		if len(center) < 3 || len(c.Observations) == 0 {
			continue
		}
		p = append(p, NewSample(
			channel(center[0]),
			channel(center[1]),
			channel(center[2]),
			float64(len(c.Observations))/float64(total),
		))
	}

	sort.SliceStable(p, func(i, j int) bool { return p[i].Coverage > p[j].Coverage })
	if len(p) > maxColors {
		p = p[:maxColors]
	}
	return p
}

// extractDominant ranks perceptually dominant colors by weight.
func extractDominant(img *raster.Image, maxColors int) Palette {
	found := dominantcolor.FindWeight(img.Std(), maxColors)
	if len(found) == 0 {
		return nil
	}

	totalWeight := 0.0
	for _, c := range found {
		if c.Weight > 0 {
			totalWeight += c.Weight
		}
	}
	if totalWeight <= 0 {
		totalWeight = 1
	}

	sort.SliceStable(found, func(i, j int) bool { return found[i].Weight > found[j].Weight })
	if len(found) > maxColors {
		found = found[:maxColors]
	}

	p := make(Palette, 0, len(found))
	for _, c := range found {
		weight := c.Weight
		if weight < 0 {
			weight = 0
		}
		p = append(p, NewSample(c.RGBA.R, c.RGBA.G, c.RGBA.B, weight/totalWeight))
	}
	return p
}

// channel converts a normalized [0,1] value to a uint8 channel.
func channel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}
