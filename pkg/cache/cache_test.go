package cache

import (
	"context"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// PaletteKey should include options in hash
	pk1 := k.PaletteKey("imghash", PaletteKeyOpts{MaxColors: 5, Method: "quantize"})
	pk2 := k.PaletteKey("imghash", PaletteKeyOpts{MaxColors: 8, Method: "quantize"})
	if pk1 == pk2 {
		t.Error("Different PaletteKeyOpts should produce different keys")
	}

	// AnalysisKey changes with the profile hash and the vision model
	ak1 := k.AnalysisKey("imghash", AnalysisKeyOpts{MaxColors: 5, ProfileHash: "p1"})
	ak2 := k.AnalysisKey("imghash", AnalysisKeyOpts{MaxColors: 5, ProfileHash: "p2"})
	ak3 := k.AnalysisKey("imghash", AnalysisKeyOpts{MaxColors: 5, ProfileHash: "p1", VisionModel: "gpt-4o-mini"})
	if ak1 == ak2 || ak1 == ak3 {
		t.Error("Different AnalysisKeyOpts should produce different keys")
	}

	// ComparisonKey is sensitive to both image hashes
	ck1 := k.ComparisonKey("orig", "rendA", ComparisonKeyOpts{Threshold: 30})
	ck2 := k.ComparisonKey("orig", "rendB", ComparisonKeyOpts{Threshold: 30})
	if ck1 == ck2 {
		t.Error("Different rendered hashes should produce different keys")
	}

	// Identical inputs must be deterministic
	if ck1 != k.ComparisonKey("orig", "rendA", ComparisonKeyOpts{Threshold: 30}) {
		t.Error("Keyer should be deterministic")
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(NewDefaultKeyer(), "tenant:42:")

	key := scoped.AnalysisKey("imghash", AnalysisKeyOpts{})
	if len(key) < 10 || key[:10] != "tenant:42:" {
		t.Errorf("ScopedKeyer key should be prefixed: %s", key)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	// Should use DefaultKeyer when inner is nil
	scoped := NewScopedKeyer(nil, "prefix:")
	key := scoped.PaletteKey("h", PaletteKeyOpts{})
	if len(key) < 7 || key[:7] != "prefix:" {
		t.Errorf("Unexpected key with nil inner: %s", key)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	defer c.Close()

	// Miss before set
	_, hit, err := c.Get(ctx, "analysis:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("expected miss before Set")
	}

	// Set then hit
	if err := c.Set(ctx, "analysis:abc", []byte(`{"score":86}`), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "analysis:abc")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if !hit {
		t.Fatal("expected hit after Set")
	}
	if string(data) != `{"score":86}` {
		t.Errorf("data = %s", data)
	}

	// Delete then miss
	if err := c.Delete(ctx, "analysis:abc"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "analysis:abc"); hit {
		t.Error("expected miss after Delete")
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("old"), time.Millisecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "key"); hit {
		t.Error("expired entry should be a miss")
	}

	// Zero TTL means no expiry.
	if err := c.Set(ctx, "forever", []byte("keep"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry should not expire")
	}
}

func TestFileCacheKeyIsolation(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	_ = c.Set(ctx, "a", []byte("1"), time.Hour)
	_ = c.Set(ctx, "b", []byte("2"), time.Hour)

	data, hit, _ := c.Get(ctx, "a")
	if !hit || string(data) != "1" {
		t.Errorf("key a = %q (hit=%v), want 1", data, hit)
	}
	data, hit, _ = c.Get(ctx, "b")
	if !hit || string(data) != "2" {
		t.Errorf("key b = %q (hit=%v), want 2", data, hit)
	}
}
