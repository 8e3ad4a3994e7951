package searchcache

import (
	"context"
	"testing"
	"time"

	"tapedeck/internal/media"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	results := []media.Track{
		{Title: "One More Time", Artist: "Daft Punk", URL: "https://www.youtube.com/watch?v=abc"},
	}

	t.Run("miss on unknown query", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		if _, ok := c.Get(ctx, "daft punk"); ok {
			t.Error("expected miss")
		}
	})

	t.Run("hit within TTL", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		c.Set(ctx, "daft punk", results)

		got, ok := c.Get(ctx, "daft punk")
		if !ok {
			t.Fatal("expected hit")
		}
		if len(got) != 1 || got[0].Title != "One More Time" {
			t.Errorf("unexpected results %+v", got)
		}
	})

	t.Run("expires after TTL", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		now := time.Now()
		c.now = func() time.Time { return now }
		c.Set(ctx, "daft punk", results)

		now = now.Add(time.Hour + time.Second)
		if _, ok := c.Get(ctx, "daft punk"); ok {
			t.Error("expected miss after expiry")
		}
	})

	t.Run("keys are literal", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		c.Set(ctx, "daft punk", results)

		if _, ok := c.Get(ctx, "Daft Punk"); ok {
			t.Error("expected case-sensitive miss")
		}
		if _, ok := c.Get(ctx, " daft punk"); ok {
			t.Error("expected whitespace-sensitive miss")
		}
	})

	t.Run("caches empty result lists", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		c.Set(ctx, "no hits whatsoever", []media.Track{})

		got, ok := c.Get(ctx, "no hits whatsoever")
		if !ok {
			t.Fatal("expected hit for cached empty list")
		}
		if len(got) != 0 {
			t.Errorf("expected empty results, got %+v", got)
		}
	})

	t.Run("stores a defensive copy", func(t *testing.T) {
		c := NewMemoryCache(time.Hour)
		mine := []media.Track{{Title: "original"}}
		c.Set(ctx, "q", mine)
		mine[0].Title = "mutated"

		got, _ := c.Get(ctx, "q")
		if got[0].Title != "original" {
			t.Error("expected cached copy to be isolated from caller mutation")
		}
	})
}
