package quality

// Severity tiers for validation issues.
type Severity string

// Severity tiers, weakest to strongest.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders tiers for sorting, higher is more severe.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Issue is a single detected problem with a suggested remedy.
// Issues are created once per validation run and never mutated.
type Issue struct {
	Kind        string   `json:"kind"`
	Severity    Severity `json:"severity"`
	Description string   `json:"description"`
	Location    string   `json:"location,omitempty"`
	Remedy      string   `json:"remedy"`
}

// issueRule maps a metric falling below its threshold to a canned issue.
// Thresholds and texts are part of the observable contract.
type issueRule struct {
	metric      Metric
	threshold   float64
	kind        string
	description string
	remedy      string
}

// issueRules is evaluated in order; similarity-derived metrics use the lower
// 70 threshold, the rest use 80.
var issueRules = []issueRule{
	{
		metric:      MetricVisualSimilarity,
		threshold:   70,
		kind:        "visual-mismatch",
		description: "Rendered output diverges visibly from the original screenshot",
		remedy:      "Review the flagged difference regions and adjust the layout and styling to match the original",
	},
	{
		metric:      MetricLayoutAccuracy,
		threshold:   80,
		kind:        "layout-drift",
		description: "Element positioning and spacing do not match the original layout",
		remedy:      "Compare section sizes, margins, and alignment against the original grid",
	},
	{
		metric:      MetricColorMatching,
		threshold:   80,
		kind:        "color-mismatch",
		description: "The implementation's colors deviate from the extracted palette",
		remedy:      "Use the dominant palette colors for backgrounds and primary actions",
	},
	{
		metric:      MetricTypographyMatch,
		threshold:   80,
		kind:        "typography-mismatch",
		description: "Font sizing or hierarchy differs from the original typography",
		remedy:      "Match heading and body font sizes and weights to the original",
	},
	{
		metric:      MetricInteractionElements,
		threshold:   80,
		kind:        "missing-interactions",
		description: "Interactive elements are missing or do not match the original",
		remedy:      "Add the buttons, inputs, and links visible in the original screenshot",
	},
	{
		metric:      MetricBrandConsistency,
		threshold:   80,
		kind:        "brand-inconsistency",
		description: "Brand colors or identity cues are not reflected in the implementation",
		remedy:      "Apply the identified brand's primary colors to key surfaces",
	},
}

// detectIssues applies the rule table to a breakdown and returns issues
// ordered most severe first. Within a tier the rule-table order is kept.
func detectIssues(b Breakdown) []Issue {
	var issues []Issue
	for _, rule := range issueRules {
		score := clampScore(b.Get(rule.metric))
		if score >= rule.threshold {
			continue
		}
		issues = append(issues, Issue{
			Kind:        rule.kind,
			Severity:    severityFor(rule.threshold - score),
			Description: rule.description,
			Remedy:      rule.remedy,
		})
	}

	// Stable insertion sort by severity keeps rule order within tiers.
	for i := 1; i < len(issues); i++ {
		for j := i; j > 0 && severityRank[issues[j].Severity] > severityRank[issues[j-1].Severity]; j-- {
			issues[j], issues[j-1] = issues[j-1], issues[j]
		}
	}
	return issues
}

// severityFor maps how far a score fell below its threshold to a tier.
func severityFor(shortfall float64) Severity {
	switch {
	case shortfall >= 30:
		return SeverityCritical
	case shortfall >= 20:
		return SeverityHigh
	case shortfall >= 10:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
