package fingerprint

import (
	"strings"
	"testing"
)

func TestFingerprint(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("is deterministic", func(t *testing.T) {
			a := New("https://example.com/track/1")
			b := New("https://example.com/track/1")
			if a != b {
				t.Errorf("expected identical fingerprints, got %s and %s", a, b)
			}
		})

		t.Run("distinguishes different locators", func(t *testing.T) {
			a := New("https://example.com/track/1")
			b := New("https://example.com/track/2")
			if a == b {
				t.Errorf("expected different fingerprints for different locators")
			}
		})

		t.Run("is case sensitive", func(t *testing.T) {
			if New("https://example.com/A") == New("https://example.com/a") {
				t.Error("expected case-sensitive fingerprints")
			}
		})

		t.Run("accepts any input", func(t *testing.T) {
			for _, in := range []string{"", " ", "not a url", "../../etc/passwd", strings.Repeat("x", 1<<16)} {
				if got := New(in); len(got) != 64 {
					t.Errorf("expected 64 hex chars for %q, got %d", in, len(got))
				}
			}
		})

		t.Run("is filename safe", func(t *testing.T) {
			fp := New("https://example.com/watch?v=abc&t=10")
			for _, c := range fp.String() {
				isHex := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
				if !isHex {
					t.Fatalf("unexpected character %q in fingerprint", c)
				}
			}
		})
	})

	t.Run("Filename", func(t *testing.T) {
		fp := New("https://example.com/track/1")
		name := fp.Filename("mp3")
		if !strings.HasSuffix(name, ".mp3") {
			t.Errorf("expected .mp3 suffix, got %s", name)
		}
		if !strings.HasPrefix(name, fp.String()) {
			t.Errorf("expected filename to start with fingerprint, got %s", name)
		}
	})
}
