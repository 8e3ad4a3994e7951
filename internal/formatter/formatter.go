// package formatter exports the artifact catalog to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"tapedeck/internal/catalog"
)

// ExportToCSV converts catalog entries to CSV with columns: Fingerprint, Title, Artist, Source URL, Size, Created
func ExportToCSV(entries []*catalog.Entry) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Fingerprint", "Title", "Artist", "Source URL", "Size", "Created"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.Fingerprint,
			e.Title,
			e.Artist,
			e.SourceURL,
			strconv.FormatInt(e.SizeBytes, 10),
			e.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts catalog entries to a Markdown track listing
func ExportToMarkdown(entries []*catalog.Entry, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Cached Tracks"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(entries)))

	buf.WriteString("## Tracks\n\n")
	for i, e := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, e.Artist, e.Title, formatSize(e.SizeBytes)))
		buf.WriteString(fmt.Sprintf("   <%s>\n", e.SourceURL))
	}

	return buf.Bytes(), nil
}

// ExportToText converts catalog entries to a plain text listing
func ExportToText(entries []*catalog.Entry) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Cached tracks: %d\n\n", len(entries)))
	for i, e := range entries {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, e.Artist, e.Title))
		buf.WriteString(fmt.Sprintf("   source: %s\n", e.SourceURL))
		buf.WriteString(fmt.Sprintf("   stored: %s (%s)\n", e.Location, formatSize(e.SizeBytes)))
	}

	return buf.Bytes(), nil
}

// WriteExport renders entries in the given format ("csv", "markdown", or
// "text") and writes the result to path, returning the bytes written.
func WriteExport(entries []*catalog.Entry, format, path string) (int, error) {
	var data []byte
	var err error

	switch format {
	case "csv":
		data, err = ExportToCSV(entries)
	case "markdown", "md":
		data, err = ExportToMarkdown(entries, "")
	case "text", "txt":
		data, err = ExportToText(entries)
	default:
		return 0, fmt.Errorf("unsupported export format: %s", format)
	}
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return 0, fmt.Errorf("failed to write export: %w", err)
	}
	return len(data), nil
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
