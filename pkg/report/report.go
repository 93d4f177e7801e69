// Package report defines the structured analysis and validation reports and
// their file round-trip.
//
// Reports are the pipeline's only persisted state: an analysis can be
// serialized to a flat JSON file and reused later by the validation stage.
// The round-trip is lossless for all numeric fields. This package never
// formats human-readable text — that is the report consumer's job.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/pixeljudge/pixeljudge/pkg/brand"
	"github.com/pixeljudge/pixeljudge/pkg/palette"
	"github.com/pixeljudge/pixeljudge/pkg/pixeldiff"
	"github.com/pixeljudge/pixeljudge/pkg/quality"
	"github.com/pixeljudge/pixeljudge/pkg/vision"
)

// ImageMeta records where an image came from and what it looked like,
// without carrying the pixel buffer.
type ImageMeta struct {
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Hash   string `json:"hash"`
}

// Analysis is the structured result of analyzing a source screenshot.
type Analysis struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Image   ImageMeta          `json:"image"`
	Palette palette.Palette    `json:"palette"`
	Brand   brand.Match        `json:"brand"`
	Vision  vision.Description `json:"vision"`

	// VisionUsed reports whether the vision oracle contributed to this
	// analysis or the deterministic defaults were used.
	VisionUsed bool `json:"vision_used"`
}

// Validation is the structured result of validating a rendered reproduction
// against an analyzed original.
type Validation struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Analysis Analysis  `json:"analysis"`
	Rendered ImageMeta `json:"rendered"`

	Comparison pixeldiff.Result  `json:"comparison"`
	Breakdown  quality.Breakdown `json:"breakdown"`

	Overall    int             `json:"overall"`
	Confidence float64         `json:"confidence"`
	Issues     []quality.Issue `json:"issues,omitempty"`
}

// NewAnalysis creates an analysis report shell with a fresh run id.
func NewAnalysis() *Analysis {
	return &Analysis{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// NewValidation creates a validation report shell with a fresh run id.
func NewValidation() *Validation {
	return &Validation{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}
