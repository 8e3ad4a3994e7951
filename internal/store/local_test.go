package store

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore(t *testing.T) {
	ctx := context.Background()

	newStore := func(t *testing.T) *LocalStore {
		t.Helper()
		s, err := NewLocalStore(filepath.Join(t.TempDir(), "artifacts"), "http://localhost:8080/audio")
		if err != nil {
			t.Fatalf("failed to create store: %v", err)
		}
		return s
	}

	stage := func(t *testing.T, contents string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "staged.mp3")
		if err := os.WriteFile(p, []byte(contents), 0644); err != nil {
			t.Fatalf("failed to stage file: %v", err)
		}
		return p
	}

	t.Run("Exists", func(t *testing.T) {
		s := newStore(t)

		t.Run("false for missing artifact", func(t *testing.T) {
			ok, err := s.Exists(ctx, "abc123.mp3")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Error("expected missing artifact")
			}
		})

		t.Run("true after Put", func(t *testing.T) {
			if _, err := s.Put(ctx, stage(t, "audio"), "abc123.mp3"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			ok, err := s.Exists(ctx, "abc123.mp3")
			if err != nil || !ok {
				t.Errorf("expected stored artifact, got ok=%v err=%v", ok, err)
			}
		})
	})

	t.Run("Put", func(t *testing.T) {
		s := newStore(t)

		t.Run("consumes the staged file", func(t *testing.T) {
			staged := stage(t, "audio")
			url, err := s.Put(ctx, staged, "def456.mp3")
			if err != nil {
				t.Fatalf("put failed: %v", err)
			}
			if url != "http://localhost:8080/audio/def456.mp3" {
				t.Errorf("unexpected public URL %s", url)
			}
			if _, err := os.Stat(staged); !os.IsNotExist(err) {
				t.Error("expected staged file to be consumed")
			}
		})

		t.Run("ignores traversal components in location", func(t *testing.T) {
			if _, err := s.Put(ctx, stage(t, "audio"), "../../escape.mp3"); err != nil {
				t.Fatalf("put failed: %v", err)
			}
			ok, _ := s.Exists(ctx, "escape.mp3")
			if !ok {
				t.Error("expected artifact stored under its base name")
			}
		})
	})

	t.Run("Open", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(ctx, stage(t, "mp3 bytes"), "song.mp3"); err != nil {
			t.Fatalf("put failed: %v", err)
		}

		rc, err := s.Open(ctx, "song.mp3")
		if err != nil {
			t.Fatalf("open failed: %v", err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if string(data) != "mp3 bytes" {
			t.Errorf("expected stored contents, got %q", data)
		}
	})

	t.Run("PublicURL", func(t *testing.T) {
		s := newStore(t)
		if got := s.PublicURL("x.mp3"); got != "http://localhost:8080/audio/x.mp3" {
			t.Errorf("unexpected URL %s", got)
		}
	})
}
