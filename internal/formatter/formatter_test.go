package formatter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tapedeck/internal/catalog"
)

func sampleEntries() []*catalog.Entry {
	created := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return []*catalog.Entry{
		{
			Fingerprint: strings.Repeat("ab", 32),
			SourceURL:   "https://example.com/track/1",
			Title:       "One More Time",
			Artist:      "Daft Punk",
			Location:    strings.Repeat("ab", 32) + ".mp3",
			SizeBytes:   5 << 20,
			CreatedAt:   created,
		},
		{
			Fingerprint: strings.Repeat("cd", 32),
			SourceURL:   "https://example.com/track/2",
			Title:       "Around the World",
			Artist:      "Daft Punk",
			Location:    strings.Repeat("cd", 32) + ".mp3",
			SizeBytes:   512,
			CreatedAt:   created,
		},
	}
}

func TestExportToCSV(t *testing.T) {
	data, err := ExportToCSV(sampleEntries())
	if err != nil {
		t.Fatalf("ExportToCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 records, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Fingerprint,Title,Artist") {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "One More Time") || !strings.Contains(lines[1], "2026-03-14T12:00:00Z") {
		t.Errorf("unexpected record: %s", lines[1])
	}

	t.Run("empty catalog produces only the header", func(t *testing.T) {
		data, err := ExportToCSV(nil)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}
		if got := strings.TrimSpace(string(data)); strings.Count(got, "\n") != 0 {
			t.Errorf("expected a single header line, got %q", got)
		}
	})
}

func TestExportToMarkdown(t *testing.T) {
	data, err := ExportToMarkdown(sampleEntries(), "My Tapes")
	if err != nil {
		t.Fatalf("ExportToMarkdown failed: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# My Tapes\n") {
		t.Errorf("expected title heading, got %q", text[:30])
	}
	if !strings.Contains(text, "**Tracks**: 2") {
		t.Error("expected track count")
	}
	if !strings.Contains(text, "1. Daft Punk - One More Time [5.0 MB]") {
		t.Errorf("unexpected listing: %s", text)
	}

	t.Run("default title", func(t *testing.T) {
		data, err := ExportToMarkdown(nil, "")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}
		if !strings.HasPrefix(string(data), "# Cached Tracks\n") {
			t.Errorf("expected default title, got %q", string(data))
		}
	})
}

func TestExportToText(t *testing.T) {
	data, err := ExportToText(sampleEntries())
	if err != nil {
		t.Fatalf("ExportToText failed: %v", err)
	}
	text := string(data)

	if !strings.Contains(text, "Cached tracks: 2") {
		t.Error("expected track count")
	}
	if !strings.Contains(text, "512 B") {
		t.Error("expected byte size formatting")
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes the rendered file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "catalog.csv")
		n, err := WriteExport(sampleEntries(), "csv", path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read export: %v", err)
		}
		if len(data) != n {
			t.Errorf("expected %d bytes on disk, got %d", n, len(data))
		}
	})

	t.Run("rejects unknown formats", func(t *testing.T) {
		_, err := WriteExport(sampleEntries(), "yaml", filepath.Join(t.TempDir(), "x"))
		if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
			t.Errorf("expected unsupported format error, got %v", err)
		}
	})
}
