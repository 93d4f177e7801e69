// Package quality combines per-metric scores into one weighted assessment.
//
// A Breakdown always carries all six metrics; components that could not run
// contribute a neutral score instead of leaving a hole, so aggregation is a
// pure function over a complete score vector. The weights, thresholds, and
// issue texts below are part of the observable contract: changing them
// changes every downstream report.
package quality

import (
	"gonum.org/v1/gonum/stat"
)

// Metric names the six scored dimensions.
type Metric string

// The six quality metrics.
const (
	MetricVisualSimilarity    Metric = "visualSimilarity"
	MetricLayoutAccuracy      Metric = "layoutAccuracy"
	MetricColorMatching       Metric = "colorMatching"
	MetricTypographyMatch     Metric = "typographyMatch"
	MetricInteractionElements Metric = "interactionElements"
	MetricBrandConsistency    Metric = "brandConsistency"
)

// NeutralScore is substituted for any metric whose sub-analysis was
// unavailable, keeping the breakdown fully populated.
const NeutralScore = 75.0

// weights is the fixed metric weighting. The weights sum to 1.
var weights = map[Metric]float64{
	MetricVisualSimilarity:    0.25,
	MetricLayoutAccuracy:      0.20,
	MetricColorMatching:       0.15,
	MetricTypographyMatch:     0.15,
	MetricInteractionElements: 0.15,
	MetricBrandConsistency:    0.10,
}

// Weight returns the fixed weight of a metric (0 for unknown metrics).
func Weight(m Metric) float64 {
	return weights[m]
}

// Breakdown is the fixed six-metric score vector, each value in [0,100].
// It is never partially populated; use NeutralBreakdown as the starting
// point and overwrite the metrics that were actually computed.
type Breakdown struct {
	VisualSimilarity    float64 `json:"visualSimilarity"`
	LayoutAccuracy      float64 `json:"layoutAccuracy"`
	ColorMatching       float64 `json:"colorMatching"`
	TypographyMatch     float64 `json:"typographyMatch"`
	InteractionElements float64 `json:"interactionElements"`
	BrandConsistency    float64 `json:"brandConsistency"`
}

// NeutralBreakdown returns a breakdown with every metric at NeutralScore.
func NeutralBreakdown() Breakdown {
	return Breakdown{
		VisualSimilarity:    NeutralScore,
		LayoutAccuracy:      NeutralScore,
		ColorMatching:       NeutralScore,
		TypographyMatch:     NeutralScore,
		InteractionElements: NeutralScore,
		BrandConsistency:    NeutralScore,
	}
}

// Get returns the value of the named metric.
func (b Breakdown) Get(m Metric) float64 {
	switch m {
	case MetricVisualSimilarity:
		return b.VisualSimilarity
	case MetricLayoutAccuracy:
		return b.LayoutAccuracy
	case MetricColorMatching:
		return b.ColorMatching
	case MetricTypographyMatch:
		return b.TypographyMatch
	case MetricInteractionElements:
		return b.InteractionElements
	case MetricBrandConsistency:
		return b.BrandConsistency
	}
	return 0
}

// metricOrder is the canonical metric iteration order, matching the weight
// table and the issue rule table.
var metricOrder = []Metric{
	MetricVisualSimilarity,
	MetricLayoutAccuracy,
	MetricColorMatching,
	MetricTypographyMatch,
	MetricInteractionElements,
	MetricBrandConsistency,
}

// Metrics returns the canonical metric order.
func Metrics() []Metric {
	return metricOrder
}

// Assessment is the aggregated result of a breakdown.
type Assessment struct {
	// Overall is the weighted overall score, truncated to an int, in [0,100].
	Overall int `json:"overall"`

	// Confidence in [0,100]: 100 minus the population standard deviation of
	// the six scores. Low variance across metrics signals a reliable
	// result; high variance signals a suspect or partial analysis.
	Confidence float64 `json:"confidence"`

	// Issues lists detected problems, most severe first.
	Issues []Issue `json:"issues,omitempty"`
}

// Aggregate computes the weighted overall score, the confidence measure, and
// the ranked issue list for a breakdown. It is pure computation: no retries,
// no fallbacks, no state.
func Aggregate(b Breakdown) Assessment {
	var weightedSum, weightTotal float64
	scores := make([]float64, 0, len(metricOrder))

	for _, m := range metricOrder {
		score := clampScore(b.Get(m))
		w := weights[m]
		weightedSum += w * score
		weightTotal += w
		scores = append(scores, score)
	}

	// Truncation, not rounding: {85,90,85,80,85,100} weighs to 86.75 and
	// must report 86. The epsilon keeps float noise from pulling an exact
	// integer result down by one.
	overall := int(weightedSum/weightTotal + 1e-9)

	confidence := 100 - stat.PopStdDev(scores, nil)
	if confidence < 0 {
		confidence = 0
	}

	return Assessment{
		Overall:    overall,
		Confidence: confidence,
		Issues:     detectIssues(b),
	}
}

// clampScore bounds a metric value to [0,100].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
