package media

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"tapedeck/internal/shared"
)

const (
	defaultYtDlp       = "yt-dlp"
	defaultSearchLimit = 10
)

// ytThumbnail is one entry of a yt-dlp thumbnails list, ordered small to large.
type ytThumbnail struct {
	URL string `json:"url"`
}

// ytEntry is a single result in a flat-playlist search response.
type ytEntry struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Uploader   string        `json:"uploader"`
	Channel    string        `json:"channel"`
	URL        string        `json:"url"`
	Thumbnails []ytThumbnail `json:"thumbnails"`
}

type ytSearchResult struct {
	Entries []ytEntry `json:"entries"`
}

// ytInfo is the subset of a yt-dlp single-video JSON dump the service reads.
type ytInfo struct {
	Title      string     `json:"title"`
	Uploader   string     `json:"uploader"`
	Channel    string     `json:"channel"`
	Thumbnail  string     `json:"thumbnail"`
	WebpageURL string     `json:"webpage_url"`
	Duration   float64    `json:"duration"`
	Formats    []ytFormat `json:"formats"`
}

// Resolver answers search and describe queries through the extractor.
// Both operations are read-only and carry no retry; failures surface as
// classified errors and the caller decides whether to degrade.
type Resolver struct {
	runner  Runner
	bin     string
	timeout time.Duration
	logger  *log.Logger
}

// NewResolver creates a Resolver. A nil runner uses [ExecRunner].
func NewResolver(runner Runner, tools shared.ToolsConfig, logger *log.Logger) *Resolver {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	bin := tools.YtDlp
	if bin == "" {
		bin = defaultYtDlp
	}
	timeout := tools.ProbeTimeout()
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Resolver{runner: runner, bin: bin, timeout: timeout, logger: logger}
}

// Search runs an extractor search for query and returns up to limit tracks.
// Entries without a resolvable URL are dropped; an empty result slice with a
// nil error is a valid answer.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	target := fmt.Sprintf("ytsearch%d:%s", limit, query)
	stdout, stderr, err := r.runner.Run(ctx, r.bin, "-J", "--flat-playlist", "--no-warnings", target)
	if err != nil {
		return nil, Classify(err, string(stderr))
	}

	var result ytSearchResult
	if err := json.Unmarshal(stdout, &result); err != nil {
		r.logger.Error("unreadable search output", "query", query, "err", err)
		return nil, &shared.TrackError{
			Kind:    shared.KindParseFailure,
			Message: "search results could not be read",
			Detail:  err.Error(),
		}
	}

	tracks := make([]Track, 0, len(result.Entries))
	for _, e := range result.Entries {
		url := e.URL
		if url == "" && e.ID != "" {
			url = "https://www.youtube.com/watch?v=" + e.ID
		}
		if url == "" {
			continue
		}
		tracks = append(tracks, Track{
			Title:     e.Title,
			Artist:    artistOf(e.Uploader, e.Channel),
			URL:       url,
			Thumbnail: largestThumbnail(e.Thumbnails),
		})
	}
	return tracks, nil
}

// Describe fetches metadata for a single locator without downloading it.
func (r *Resolver) Describe(ctx context.Context, locator string) (*Track, error) {
	info, err := r.dump(ctx, locator)
	if err != nil {
		return nil, err
	}
	return &Track{
		Title:     info.Title,
		Artist:    artistOf(info.Uploader, info.Channel),
		URL:       info.WebpageURL,
		Thumbnail: info.Thumbnail,
	}, nil
}

// dump runs the full JSON probe for a locator. Shared by Describe and the
// converter's stream selection.
func (r *Resolver) dump(ctx context.Context, locator string) (*ytInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	stdout, stderr, err := r.runner.Run(ctx, r.bin, "-J", "--no-warnings", "--skip-download", locator)
	if err != nil {
		return nil, Classify(err, string(stderr))
	}

	var info ytInfo
	if err := json.Unmarshal(stdout, &info); err != nil {
		r.logger.Error("unreadable probe output", "locator", locator, "err", err)
		return nil, &shared.TrackError{
			Kind:    shared.KindParseFailure,
			Message: "track metadata could not be read",
			Detail:  err.Error(),
		}
	}
	return &info, nil
}

func artistOf(uploader, channel string) string {
	if uploader != "" {
		return uploader
	}
	return channel
}

// largestThumbnail picks the last thumbnail, yt-dlp orders them ascending.
func largestThumbnail(thumbs []ytThumbnail) string {
	if len(thumbs) == 0 {
		return ""
	}
	return thumbs[len(thumbs)-1].URL
}
