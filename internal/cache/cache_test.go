package cache

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	k1 := Key("https://vendor.example.com/whitepaper")
	k2 := Key("https://vendor.example.com/whitepaper")
	k3 := Key("https://vendor.example.com/other")

	if k1 != k2 {
		t.Error("keys must be deterministic")
	}
	if k1 == k3 {
		t.Error("different sources must produce different keys")
	}
	if !strings.HasPrefix(k1, "dashforge:v1:") {
		t.Errorf("keys must be namespaced, got %q", k1)
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("doc")

	if _, found := c.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("document text"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get(key)
	if !found || !bytes.Equal(val, []byte("document text")) {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected miss after delete")
	}

	_ = c.Set(Key("a"), []byte("a"), 0)
	_ = c.Set(Key("b"), []byte("b"), 0)
	if err := c.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, found := c.Get(Key("a")); found {
		t.Error("expected miss after clear")
	}
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	key := Key("short-lived")

	_ = c.Set(key, []byte("x"), 20*time.Millisecond)
	if _, found := c.Get(key); !found {
		t.Fatal("expected hit before expiry")
	}

	time.Sleep(40 * time.Millisecond)
	if _, found := c.Get(key); found {
		t.Error("expected miss after expiry")
	}
}

func TestDiskCache(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := Key("doc")

	if _, found := c.Get(key); found {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(key, []byte("persisted text"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	val, found := c.Get(key)
	if !found || !bytes.Equal(val, []byte("persisted text")) {
		t.Fatalf("expected hit, got found=%v val=%q", found, val)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Minute)
	key := Key("stale")

	_ = c.Set(key, []byte("x"), 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, found := c.Get(key); found {
		t.Error("expected stale entry to expire on read")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	key := Key("doc")

	// Seed only the disk layer, as a previous process run would have.
	disk := NewDiskCache(dir, time.Minute)
	if err := disk.Set(key, []byte("from disk"), 0); err != nil {
		t.Fatalf("seed disk: %v", err)
	}

	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	val, found := layered.Get(key)
	if !found || !bytes.Equal(val, []byte("from disk")) {
		t.Fatalf("expected disk hit through the layered cache, got found=%v", found)
	}

	// The hit must now be served from memory even if the disk entry vanishes.
	if err := disk.Delete(key); err != nil {
		t.Fatalf("delete disk entry: %v", err)
	}
	if _, found := layered.Get(key); !found {
		t.Error("expected promoted entry to survive disk deletion")
	}
}

func TestLayeredCache_SetWritesBothLayers(t *testing.T) {
	dir := t.TempDir()
	layered := NewLayeredCache(time.Minute, dir, time.Minute)
	key := Key("doc")

	if err := layered.Set(key, []byte("both layers"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh disk cache over the same dir must see the entry.
	disk := NewDiskCache(dir, time.Minute)
	val, found := disk.Get(key)
	if !found || !bytes.Equal(val, []byte("both layers")) {
		t.Error("expected the entry persisted to disk")
	}
}
