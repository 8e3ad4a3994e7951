package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tapedeck/internal/shared"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.config.Server.Port == 0 {
				t.Error("expected default port to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("register includes all commands", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "serve", "search", "fetch", "export"} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact output", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"title": "One More Time"}, false); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if got := strings.TrimSpace(output.String()); got != `{"title":"One More Time"}` {
				t.Errorf("unexpected output %q", got)
			}
		})

		t.Run("pretty output is indented", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"title": "One More Time"}, true); err != nil {
				t.Fatalf("writeJSON failed: %v", err)
			}
			if !strings.Contains(output.String(), "\n  ") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})
	})

	t.Run("Setup", func(t *testing.T) {
		newSetupRunner := func(t *testing.T) *Runner {
			t.Helper()
			cfg := shared.DefaultConfig()
			cfg.Storage.WorkDir = t.TempDir()
			cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.db")
			return NewRunner(RunnerOpts{Config: cfg, Output: &bytes.Buffer{}})
		}

		t.Run("refuses to overwrite without force", func(t *testing.T) {
			runner := newSetupRunner(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("# hand-edited\n"), 0644); err != nil {
				t.Fatalf("failed to seed config: %v", err)
			}

			err := setupCommand(runner).Run(context.Background(), []string{"setup", "--config", path})
			if err == nil || !strings.Contains(err.Error(), "already exists") {
				t.Fatalf("expected already-exists error, got %v", err)
			}

			data, _ := os.ReadFile(path)
			if string(data) != "# hand-edited\n" {
				t.Error("expected the existing config untouched")
			}
		})

		t.Run("force overwrites an existing config", func(t *testing.T) {
			runner := newSetupRunner(t)
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("# hand-edited\n"), 0644); err != nil {
				t.Fatalf("failed to seed config: %v", err)
			}

			err := setupCommand(runner).Run(context.Background(), []string{"setup", "--config", path, "--force"})
			if err != nil {
				t.Fatalf("expected overwrite to succeed, got %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("failed to read config: %v", err)
			}
			if !strings.Contains(string(data), "[server]") {
				t.Errorf("expected starter config content, got %q", string(data))
			}
		})
	})

	t.Run("publicAudioBase", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})

		t.Run("uses configured public base URL", func(t *testing.T) {
			cfg := shared.DefaultConfig()
			cfg.Server.PublicBaseURL = "https://tapes.example.com"
			if got := runner.publicAudioBase(cfg); got != "https://tapes.example.com/audio" {
				t.Errorf("unexpected base %q", got)
			}
		})

		t.Run("falls back to the bind address", func(t *testing.T) {
			cfg := shared.DefaultConfig()
			cfg.Server.PublicBaseURL = ""
			got := runner.publicAudioBase(cfg)
			if !strings.HasPrefix(got, "http://") || !strings.HasSuffix(got, "/audio") {
				t.Errorf("unexpected base %q", got)
			}
		})
	})
}
