package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Full SHA-256 (64 hex chars) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// PaletteKeyOpts are the options that influence palette extraction results.
type PaletteKeyOpts struct {
	MaxColors int    `json:"max_colors"`
	Method    string `json:"method"`
}

// AnalysisKeyOpts are the options that influence full analysis results.
type AnalysisKeyOpts struct {
	MaxColors   int    `json:"max_colors"`
	Method      string `json:"method"`
	ProfileHash string `json:"profile_hash"`
	VisionModel string `json:"vision_model"`
}

// ComparisonKeyOpts are the options that influence pixel comparison results.
type ComparisonKeyOpts struct {
	Threshold  float64 `json:"threshold"`
	MaxRegions int     `json:"max_regions"`
}

// Keyer generates cache keys for the different pipeline stages.
// Implementations must be deterministic: identical inputs yield identical keys.
type Keyer interface {
	// PaletteKey generates a key for a palette extracted from the image
	// with the given content hash.
	PaletteKey(imageHash string, opts PaletteKeyOpts) string

	// AnalysisKey generates a key for a full analysis report.
	AnalysisKey(imageHash string, opts AnalysisKeyOpts) string

	// ComparisonKey generates a key for a pixel comparison between the two
	// images with the given content hashes.
	ComparisonKey(originalHash, renderedHash string, opts ComparisonKeyOpts) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// PaletteKey generates a key for palette caching.
func (k *DefaultKeyer) PaletteKey(imageHash string, opts PaletteKeyOpts) string {
	return hashKey("palette", imageHash, opts)
}

// AnalysisKey generates a key for analysis report caching.
func (k *DefaultKeyer) AnalysisKey(imageHash string, opts AnalysisKeyOpts) string {
	return hashKey("analysis", imageHash, opts)
}

// ComparisonKey generates a key for comparison result caching.
func (k *DefaultKeyer) ComparisonKey(originalHash, renderedHash string, opts ComparisonKeyOpts) string {
	return hashKey("comparison", originalHash, renderedHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix for multi-tenant isolation.
// Useful in API deployments where different users need separate namespaces.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// PaletteKey generates a prefixed palette key.
func (k *ScopedKeyer) PaletteKey(imageHash string, opts PaletteKeyOpts) string {
	return k.prefix + k.inner.PaletteKey(imageHash, opts)
}

// AnalysisKey generates a prefixed analysis key.
func (k *ScopedKeyer) AnalysisKey(imageHash string, opts AnalysisKeyOpts) string {
	return k.prefix + k.inner.AnalysisKey(imageHash, opts)
}

// ComparisonKey generates a prefixed comparison key.
func (k *ScopedKeyer) ComparisonKey(originalHash, renderedHash string, opts ComparisonKeyOpts) string {
	return k.prefix + k.inner.ComparisonKey(originalHash, renderedHash, opts)
}
