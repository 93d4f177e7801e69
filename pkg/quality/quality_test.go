package quality

import (
	"math"
	"testing"
)

func TestAggregateWeightedScenario(t *testing.T) {
	b := Breakdown{
		VisualSimilarity:    85,
		LayoutAccuracy:      90,
		ColorMatching:       85,
		TypographyMatch:     80,
		InteractionElements: 85,
		BrandConsistency:    100,
	}

	a := Aggregate(b)

	// 0.25·85 + 0.20·90 + 0.15·85 + 0.15·80 + 0.15·85 + 0.10·100 = 86.75,
	// truncated to 86.
	if a.Overall != 86 {
		t.Errorf("overall = %d, want 86", a.Overall)
	}
}

func TestAggregateEqualScoresFullConfidence(t *testing.T) {
	for _, score := range []float64{0, 50, 75, 100} {
		b := Breakdown{
			VisualSimilarity:    score,
			LayoutAccuracy:      score,
			ColorMatching:       score,
			TypographyMatch:     score,
			InteractionElements: score,
			BrandConsistency:    score,
		}
		a := Aggregate(b)
		if a.Confidence != 100 {
			t.Errorf("score %f: confidence = %f, want 100 (zero variance)", score, a.Confidence)
		}
		if a.Overall != int(score) {
			t.Errorf("score %f: overall = %d, want %d", score, a.Overall, int(score))
		}
	}
}

func TestAggregateRanges(t *testing.T) {
	cases := []Breakdown{
		{},
		{VisualSimilarity: 100, BrandConsistency: 100},
		{VisualSimilarity: -50, LayoutAccuracy: 200, ColorMatching: 75, TypographyMatch: 75, InteractionElements: 75, BrandConsistency: 75},
		NeutralBreakdown(),
	}
	for i, b := range cases {
		a := Aggregate(b)
		if a.Overall < 0 || a.Overall > 100 {
			t.Errorf("case %d: overall %d outside [0,100]", i, a.Overall)
		}
		if a.Confidence < 0 || a.Confidence > 100 {
			t.Errorf("case %d: confidence %f outside [0,100]", i, a.Confidence)
		}
	}
}

func TestAggregateConfidenceDropsWithVariance(t *testing.T) {
	uniform := Aggregate(NeutralBreakdown())
	spread := Aggregate(Breakdown{
		VisualSimilarity:    10,
		LayoutAccuracy:      95,
		ColorMatching:       20,
		TypographyMatch:     90,
		InteractionElements: 15,
		BrandConsistency:    100,
	})
	if spread.Confidence >= uniform.Confidence {
		t.Errorf("high variance confidence %f should be below uniform %f",
			spread.Confidence, uniform.Confidence)
	}
}

func TestDetectIssuesThresholds(t *testing.T) {
	// Visual similarity uses the 70 threshold; a 75 passes.
	b := Breakdown{
		VisualSimilarity:    75,
		LayoutAccuracy:      80,
		ColorMatching:       80,
		TypographyMatch:     80,
		InteractionElements: 80,
		BrandConsistency:    80,
	}
	if issues := detectIssues(b); len(issues) != 0 {
		t.Errorf("all at threshold: issues = %d, want 0", len(issues))
	}

	// Dropping visual similarity below 70 triggers exactly one issue.
	b.VisualSimilarity = 69
	issues := detectIssues(b)
	if len(issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(issues))
	}
	if issues[0].Kind != "visual-mismatch" {
		t.Errorf("kind = %s, want visual-mismatch", issues[0].Kind)
	}
	if issues[0].Severity != SeverityLow {
		t.Errorf("severity = %s, want low for a 1-point shortfall", issues[0].Severity)
	}
}

func TestDetectIssuesSeverityTiers(t *testing.T) {
	tests := []struct {
		score float64
		want  Severity
	}{
		{79, SeverityLow},      // shortfall 1
		{70, SeverityMedium},   // shortfall 10
		{60, SeverityHigh},     // shortfall 20
		{50, SeverityCritical}, // shortfall 30
		{0, SeverityCritical},
	}
	for _, tt := range tests {
		b := Breakdown{
			VisualSimilarity:    100,
			LayoutAccuracy:      tt.score,
			ColorMatching:       100,
			TypographyMatch:     100,
			InteractionElements: 100,
			BrandConsistency:    100,
		}
		issues := detectIssues(b)
		if len(issues) != 1 {
			t.Fatalf("score %f: issues = %d, want 1", tt.score, len(issues))
		}
		if issues[0].Severity != tt.want {
			t.Errorf("score %f: severity = %s, want %s", tt.score, issues[0].Severity, tt.want)
		}
	}
}

func TestDetectIssuesOrderedBySeverity(t *testing.T) {
	b := Breakdown{
		VisualSimilarity:    65, // shortfall 5 → low
		LayoutAccuracy:      40, // shortfall 40 → critical
		ColorMatching:       65, // shortfall 15 → medium
		TypographyMatch:     100,
		InteractionElements: 100,
		BrandConsistency:    55, // shortfall 25 → high
	}
	issues := detectIssues(b)
	if len(issues) != 4 {
		t.Fatalf("issues = %d, want 4", len(issues))
	}

	wantOrder := []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}
	for i, want := range wantOrder {
		if issues[i].Severity != want {
			t.Errorf("issue %d severity = %s, want %s", i, issues[i].Severity, want)
		}
	}
	if issues[0].Kind != "layout-drift" {
		t.Errorf("most severe issue = %s, want layout-drift", issues[0].Kind)
	}
}

func TestNeutralBreakdown(t *testing.T) {
	b := NeutralBreakdown()
	for _, m := range Metrics() {
		if b.Get(m) != NeutralScore {
			t.Errorf("metric %s = %f, want %f", m, b.Get(m), NeutralScore)
		}
	}
}

func TestWeightsSumToOne(t *testing.T) {
	var sum float64
	for _, m := range Metrics() {
		sum += Weight(m)
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum = %f, want 1.0", sum)
	}
}
