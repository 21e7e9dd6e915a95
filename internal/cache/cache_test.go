package cache

import (
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("k", "v", time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(string) != "v" {
		t.Fatalf("Get = %v, %v", v, ok)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestExpiry(t *testing.T) {
	t.Parallel()

	c := New()
	c.Set("k", "v", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired item should not be returned")
	}
	if c.Len() != 0 {
		t.Errorf("expired item should be evicted on read, Len = %d", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	c := New()
	a := c.GenerateKey("title", "content")
	if a != c.GenerateKey("title", "content") {
		t.Error("key must be stable for identical input")
	}
	if a == c.GenerateKey("title", "other") {
		t.Error("different content must produce a different key")
	}
	// Concatenation ambiguity: ("ab","c") and ("a","bc") are distinct inputs.
	if c.GenerateKey("ab", "c") == c.GenerateKey("a", "bc") {
		t.Error("title/content boundary must affect the key")
	}
}
