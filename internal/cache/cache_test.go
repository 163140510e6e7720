package cache

import (
	"testing"
	"time"
)

func TestStoreGetSet(t *testing.T) {
	t.Parallel()

	s := New()
	if _, ok := s.Get("t1", "dynamic"); ok {
		t.Fatal("expected miss on empty store")
	}

	s.Set("t1", "dynamic", "https://a.example.net/x", time.Minute)
	got, ok := s.Get("t1", "dynamic")
	if !ok || got != "https://a.example.net/x" {
		t.Fatalf("Get() = %q, %v; want cached value", got, ok)
	}

	// Different tenant or category must not collide.
	if _, ok := s.Get("t2", "dynamic"); ok {
		t.Fatal("expected miss for other tenant")
	}
	if _, ok := s.Get("t1", "other"); ok {
		t.Fatal("expected miss for other category")
	}
}

func TestStoreNeverReturnsExpired(t *testing.T) {
	t.Parallel()

	s := New()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	s.Set("t1", "dynamic", "v1", 10*time.Minute)

	now = now.Add(10*time.Minute - time.Second)
	if got, ok := s.Get("t1", "dynamic"); !ok || got != "v1" {
		t.Fatalf("expected fresh hit, got %q, %v", got, ok)
	}

	now = now.Add(2 * time.Second)
	if _, ok := s.Get("t1", "dynamic"); ok {
		t.Fatal("expected expired entry to be ignored")
	}

	// A stale entry is replaced on the next successful write.
	s.Set("t1", "dynamic", "v2", time.Minute)
	if got, ok := s.Get("t1", "dynamic"); !ok || got != "v2" {
		t.Fatalf("expected overwritten value, got %q, %v", got, ok)
	}
}

func TestStoreLenCountsExpiredEntries(t *testing.T) {
	t.Parallel()

	s := New()
	s.Set("t1", "dynamic", "v", -time.Second)
	s.Set("t2", "dynamic", "v", time.Minute)
	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2 (no sweeping)", got)
	}
}
