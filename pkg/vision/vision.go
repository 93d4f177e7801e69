// Package vision integrates an external vision-model oracle.
//
// The oracle has a deliberately narrow contract: an image and a prompt go in,
// free-form text comes out. The model's output is never trusted — it may be
// absent, slow, or malformed — so parsing is defensive and every failure path
// lands on deterministic defaults. The rest of the pipeline treats the
// resulting Description as best-effort evidence, not ground truth.
package vision

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pixeljudge/pixeljudge/pkg/raster"
)

// DefaultPrompt asks the model for the structured description the parser
// expects. The model frequently wraps the JSON in prose; ParseDescription
// handles that.
const DefaultPrompt = `Describe this UI screenshot as JSON with the shape:
{"summary": "...", "layout": "...", "colors": ["#RRGGBB", ...],
 "fonts": ["..."], "elements": [{"type": "button|input|link|text|image",
 "label": "...", "interactive": true}]}
Only report what is visible. Respond with the JSON object only.`

// Oracle is the vision-model collaborator contract.
// Implementations may fail or time out; callers must degrade gracefully.
type Oracle interface {
	// Describe returns the model's free-form description of the image.
	Describe(ctx context.Context, img *raster.Image, prompt string) (string, error)
}

// Element is a UI element the model claims to have seen.
type Element struct {
	Type        string `json:"type"`
	Label       string `json:"label,omitempty"`
	Interactive bool   `json:"interactive,omitempty"`
}

// Description is the structured form of the oracle's output.
type Description struct {
	Summary  string    `json:"summary"`
	Layout   string    `json:"layout"`
	Colors   []string  `json:"colors"`
	Fonts    []string  `json:"fonts"`
	Elements []Element `json:"elements"`
}

// Defaults returns the deterministic fallback description used when the
// oracle is unavailable or its output cannot be parsed.
func Defaults() Description {
	return Description{}
}

// Empty reports whether the description carries no evidence at all.
func (d Description) Empty() bool {
	return d.Summary == "" && d.Layout == "" &&
		len(d.Colors) == 0 && len(d.Fonts) == 0 && len(d.Elements) == 0
}

// FlatText flattens the description into free text for keyword and pattern
// scoring.
func (d Description) FlatText() string {
	parts := make([]string, 0, 2+len(d.Elements))
	if d.Summary != "" {
		parts = append(parts, d.Summary)
	}
	if d.Layout != "" {
		parts = append(parts, d.Layout)
	}
	for _, e := range d.Elements {
		if e.Label != "" {
			parts = append(parts, e.Label)
		}
	}
	return strings.Join(parts, " ")
}

// InteractiveCount returns how many elements the model flagged interactive.
// Elements typed button, input, or link count even without the explicit flag.
func (d Description) InteractiveCount() int {
	n := 0
	for _, e := range d.Elements {
		switch {
		case e.Interactive:
			n++
		case e.Type == "button" || e.Type == "input" || e.Type == "link":
			n++
		}
	}
	return n
}

// ParseDescription extracts a Description from the oracle's raw reply.
//
// The reply is scanned for its first balanced JSON object; markdown fences
// and surrounding prose are tolerated. Any parse failure returns Defaults()
// and false — never an error, because oracle output is best-effort by
// contract.
func ParseDescription(raw string) (Description, bool) {
	candidate := extractJSON(raw)
	if candidate == "" {
		return Defaults(), false
	}

	var d Description
	if err := json.Unmarshal([]byte(candidate), &d); err != nil {
		return Defaults(), false
	}
	if d.Empty() {
		return Defaults(), false
	}
	return d, true
}

// extractJSON returns the first balanced top-level JSON object in s, or "".
// Braces inside JSON strings are skipped.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
