// Package brand identifies known brands from screenshot evidence.
//
// A Registry holds an ordered, immutable set of brand profiles: reference
// records of a brand's visual identity (color sets, keywords, text patterns).
// Identification scores free text (typically a vision-model description) and
// candidate palette colors against every profile and picks the best match
// with a normalized confidence.
//
// The registry is loaded once at startup and read-only afterwards, so it is
// safe to share across concurrent scoring calls. Iteration order is the
// insertion order, which makes tie-breaking deterministic: when two profiles
// accumulate the same score, the first-inserted one wins.
package brand

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/pixeljudge/pixeljudge/pkg/cache"
	"github.com/pixeljudge/pixeljudge/pkg/errors"
)

// Scoring weights and the confidence floor for a named match.
const (
	// KeywordWeight is the score per keyword occurrence in the text.
	KeywordWeight = 10

	// PatternWeight is the score per text pattern occurrence.
	PatternWeight = 15

	// ColorWeight is the score per candidate color that exactly matches a
	// profile color.
	ColorWeight = 25

	// ConfidenceThreshold is the minimum confidence for a non-empty brand
	// name. At or below the threshold the match is reported as unknown
	// regardless of which profile scored highest.
	ConfidenceThreshold = 0.3
)

// Colors groups a profile's color identity into tiers.
// All entries are "#RRGGBB" hex strings.
type Colors struct {
	Primary   []string `json:"primary" toml:"primary"`
	Secondary []string `json:"secondary" toml:"secondary"`
	Accent    []string `json:"accent" toml:"accent"`
}

// all returns every color in the profile, uppercased for comparison.
func (c Colors) all() []string {
	out := make([]string, 0, len(c.Primary)+len(c.Secondary)+len(c.Accent))
	for _, group := range [][]string{c.Primary, c.Secondary, c.Accent} {
		for _, hex := range group {
			out = append(out, strings.ToUpper(hex))
		}
	}
	return out
}

// Profile is a reference record of a known brand's visual identity.
type Profile struct {
	Name     string   `json:"name" toml:"name"`
	Colors   Colors   `json:"colors" toml:"colors"`
	Keywords []string `json:"keywords" toml:"keywords"`
	Patterns []string `json:"patterns" toml:"patterns"`

	compiled []*regexp.Regexp
	colorSet map[string]bool
}

// Match is the result of brand identification. Name is empty when no profile
// scored above zero or the winner's confidence did not clear the threshold;
// Confidence is always populated (0 when nothing matched).
type Match struct {
	Name       string  `json:"name,omitempty"`
	Confidence float64 `json:"confidence"`
}

// Identified reports whether the match names a brand.
func (m Match) Identified() bool {
	return m.Name != ""
}

// Registry is an ordered, immutable collection of brand profiles.
type Registry struct {
	profiles []*Profile
}

// NewRegistry builds a registry from profiles in the given order.
// Patterns are compiled case-insensitively; colors are validated.
func NewRegistry(profiles ...Profile) (*Registry, error) {
	r := &Registry{profiles: make([]*Profile, 0, len(profiles))}
	for i := range profiles {
		p := profiles[i]
		if p.Name == "" {
			return nil, errors.New(errors.ErrCodeInvalidProfile, "brand profile #%d has no name", i)
		}

		for _, hex := range p.Colors.all() {
			if err := errors.ValidateHexColor(hex); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "profile %q", p.Name)
			}
		}

		p.compiled = make([]*regexp.Regexp, 0, len(p.Patterns))
		for _, pat := range p.Patterns {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidProfile, err, "profile %q pattern %q", p.Name, pat)
			}
			p.compiled = append(p.compiled, re)
		}

		p.colorSet = make(map[string]bool)
		for _, hex := range p.Colors.all() {
			p.colorSet[hex] = true
		}

		r.profiles = append(r.profiles, &p)
	}
	return r, nil
}

// Profiles returns the registry's profiles in insertion order.
// The returned slice must not be modified.
func (r *Registry) Profiles() []*Profile {
	return r.profiles
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// Get returns the profile with the given name, or nil.
func (r *Registry) Get(name string) *Profile {
	for _, p := range r.profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Hash returns a content hash of the registry, used in cache keys so that
// profile changes invalidate cached analyses.
func (r *Registry) Hash() string {
	type entry struct {
		Name     string   `json:"name"`
		Colors   Colors   `json:"colors"`
		Keywords []string `json:"keywords"`
		Patterns []string `json:"patterns"`
	}
	entries := make([]entry, 0, len(r.profiles))
	for _, p := range r.profiles {
		entries = append(entries, entry{p.Name, p.Colors, p.Keywords, p.Patterns})
	}
	data, _ := json.Marshal(entries)
	return cache.Hash(data)
}

// Identify scores text and candidate colors against every profile and
// returns the best match.
//
// Per profile: score = 10×keyword occurrences + 15×pattern occurrences +
// 25×exact (case-insensitive) color matches. Profiles scoring zero are
// excluded. confidence = min(score/100, 1). The name is withheld unless
// confidence exceeds ConfidenceThreshold.
func (r *Registry) Identify(text string, colors []string) Match {
	lower := strings.ToLower(text)

	normalized := make([]string, 0, len(colors))
	for _, c := range colors {
		normalized = append(normalized, strings.ToUpper(strings.TrimSpace(c)))
	}

	var best *Profile
	bestScore := 0

	for _, p := range r.profiles {
		score := p.score(lower, normalized)
		// Strict comparison keeps first-inserted profile on ties.
		if score > bestScore {
			bestScore = score
			best = p
		}
	}

	if best == nil || bestScore == 0 {
		return Match{Confidence: 0}
	}

	confidence := float64(bestScore) / 100
	if confidence > 1 {
		confidence = 1
	}

	m := Match{Confidence: confidence}
	if confidence > ConfidenceThreshold {
		m.Name = best.Name
	}
	return m
}

// score accumulates the profile's raw score for lowercased text and
// uppercased candidate colors.
func (p *Profile) score(lowerText string, colors []string) int {
	score := 0

	if lowerText != "" {
		for _, kw := range p.Keywords {
			score += KeywordWeight * strings.Count(lowerText, strings.ToLower(kw))
		}
		for _, re := range p.compiled {
			score += PatternWeight * len(re.FindAllStringIndex(lowerText, -1))
		}
	}

	for _, c := range colors {
		if p.colorSet[c] {
			score += ColorWeight
		}
	}

	return score
}
