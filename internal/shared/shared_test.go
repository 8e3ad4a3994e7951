package shared

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Run("with nil writer defaults to stderr", func(t *testing.T) {
		if NewLogger(nil) == nil {
			t.Error("expected a logger")
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty ids, got %q and %q", a, b)
	}
}

func TestTrackError(t *testing.T) {
	t.Run("Error includes detail when present", func(t *testing.T) {
		err := &TrackError{Kind: KindSourceBlocked, Message: "access denied", Detail: "bot check"}
		if err.Error() != "access denied: bot check" {
			t.Errorf("unexpected message %q", err.Error())
		}

		bare := &TrackError{Kind: KindTimeout, Message: "timed out"}
		if bare.Error() != "timed out" {
			t.Errorf("unexpected message %q", bare.Error())
		}
	})

	t.Run("KindOf reads through wrapping", func(t *testing.T) {
		err := fmt.Errorf("request failed: %w", Errf(KindRateLimited, "throttled"))
		if KindOf(err) != KindRateLimited {
			t.Errorf("expected rate_limited, got %s", KindOf(err))
		}
		if KindOf(errors.New("plain")) != KindUnknown {
			t.Error("expected unclassified errors to report unknown")
		}
	})

	t.Run("AsTrackError wraps unclassified errors", func(t *testing.T) {
		te := AsTrackError(errors.New("boom"))
		if te.Kind != KindUnknown || te.Detail != "boom" {
			t.Errorf("unexpected wrap %+v", te)
		}

		orig := Errf(KindInvalidInput, "bad url")
		if AsTrackError(orig) != orig {
			t.Error("expected classified errors passed through")
		}
	})

	t.Run("Retryable", func(t *testing.T) {
		for kind, want := range map[Kind]bool{
			KindTimeout:           true,
			KindRateLimited:       true,
			KindUnknown:           true,
			KindInvalidInput:      false,
			KindSourceBlocked:     false,
			KindSourceUnavailable: false,
			KindToolMisconfigured: false,
			KindParseFailure:      false,
		} {
			if kind.Retryable() != want {
				t.Errorf("%s: expected Retryable=%v", kind, want)
			}
		}
	})
}

func TestConfig(t *testing.T) {
	t.Run("defaults come from the embedded example", func(t *testing.T) {
		cfg := DefaultConfig()

		if cfg.Server.Port == 0 {
			t.Error("expected a default port")
		}
		if cfg.Storage.WorkDir == "" {
			t.Error("expected a default work dir")
		}
		if cfg.Tools.ConvertTimeout() <= cfg.Tools.ProbeTimeout() {
			t.Error("expected the convert budget to exceed the probe budget")
		}
		if cfg.Cache.SearchTTL() <= 0 {
			t.Error("expected a positive search TTL")
		}
	})

	t.Run("LoadConfig parses TOML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[server]\nhost = \"0.0.0.0\"\nport = 9090\n\n[ledger]\ngrace_seconds = 5\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig failed: %v", err)
		}
		if cfg.Server.Addr() != "0.0.0.0:9090" {
			t.Errorf("unexpected addr %q", cfg.Server.Addr())
		}
		if cfg.Ledger.Grace().Seconds() != 5 {
			t.Errorf("unexpected grace %v", cfg.Ledger.Grace())
		}
	})

	t.Run("LoadConfig rejects missing files", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
			t.Error("expected an error for a missing file")
		}
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "redis.internal:6379")
		t.Setenv("PORT", "7070")

		cfg := DefaultConfig()
		if cfg.Redis.Addr != "redis.internal:6379" {
			t.Errorf("expected redis override, got %q", cfg.Redis.Addr)
		}
		if cfg.Server.Port != 7070 {
			t.Errorf("expected port override, got %d", cfg.Server.Port)
		}
	})

	t.Run("CreateConfigFile refuses to overwrite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := CreateConfigFile(path); err != nil {
			t.Fatalf("CreateConfigFile failed: %v", err)
		}
		if err := CreateConfigFile(path); err == nil {
			t.Error("expected an error for an existing file")
		}
	})
}
