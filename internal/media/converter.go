package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"tapedeck/internal/fingerprint"
	"tapedeck/internal/shared"
	"tapedeck/internal/store"
)

const defaultFFmpeg = "ffmpeg"

// ytFormat is one media format offered for a video.
type ytFormat struct {
	FormatID string  `json:"format_id"`
	ACodec   string  `json:"acodec"`
	VCodec   string  `json:"vcodec"`
	Ext      string  `json:"ext"`
	Protocol string  `json:"protocol"`
	URL      string  `json:"url"`
	ABR      float64 `json:"abr"`
	TBR      float64 `json:"tbr"`
}

// Artifact is the result of a successful conversion: a stored MP3 plus the
// descriptive metadata gathered along the way. Immutable once returned.
type Artifact struct {
	Fingerprint fingerprint.Fingerprint
	Location    string
	AudioURL    string
	SizeBytes   int64
	CreatedAt   time.Time
	Meta        Track
}

// Converter produces stored audio artifacts from source locators.
//
// All filesystem writes stay inside the staging directory and every path is
// derived from the fingerprint, never from locator content. Partial output
// is deleted before any error surfaces, so readers never observe a truncated
// artifact.
type Converter struct {
	runner   Runner
	resolver *Resolver
	store    store.Store
	staging  string
	ffmpeg   string
	timeout  time.Duration
	logger   *log.Logger
}

// NewConverter creates a Converter staging files under workDir/staging.
// A nil runner uses [ExecRunner].
func NewConverter(runner Runner, resolver *Resolver, st store.Store, workDir string, tools shared.ToolsConfig, logger *log.Logger) (*Converter, error) {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	staging := filepath.Join(workDir, "staging")
	if err := os.MkdirAll(staging, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	ffmpeg := tools.FFmpeg
	if ffmpeg == "" {
		ffmpeg = defaultFFmpeg
	}
	timeout := tools.ConvertTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Converter{
		runner:   runner,
		resolver: resolver,
		store:    st,
		staging:  staging,
		ffmpeg:   ffmpeg,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

// Convert turns locator into a stored MP3 artifact keyed by fp.
//
// The store check duplicates the ledger's own caching on purpose: ledger
// eviction and store state can race across process restarts, and the check
// makes Convert idempotent regardless of who calls it.
func (c *Converter) Convert(ctx context.Context, locator string, fp fingerprint.Fingerprint) (*Artifact, error) {
	location := fp.Filename("mp3")

	if ok, err := c.store.Exists(ctx, location); err == nil && ok {
		c.logger.Debug("artifact already stored", "fingerprint", fp)
		return &Artifact{
			Fingerprint: fp,
			Location:    location,
			AudioURL:    c.store.PublicURL(location),
			CreatedAt:   time.Now().UTC(),
		}, nil
	}

	info, err := c.resolver.dump(ctx, locator)
	if err != nil {
		return nil, err
	}
	streamURL, err := bestAudioStream(info.Formats)
	if err != nil {
		return nil, err
	}

	staged := filepath.Join(c.staging, location)
	part := staged + ".part"

	if err := c.transcode(ctx, streamURL, part); err != nil {
		_ = os.Remove(part)
		return nil, err
	}

	st, err := os.Stat(part)
	if err != nil {
		_ = os.Remove(part)
		return nil, &shared.TrackError{
			Kind:    shared.KindUnknown,
			Message: "conversion produced no output",
			Detail:  err.Error(),
		}
	}
	if err := os.Rename(part, staged); err != nil {
		_ = os.Remove(part)
		return nil, &shared.TrackError{
			Kind:    shared.KindUnknown,
			Message: "failed to finalize artifact",
			Detail:  err.Error(),
		}
	}

	audioURL, err := c.store.Put(ctx, staged, location)
	if err != nil {
		_ = os.Remove(staged)
		return nil, &shared.TrackError{
			Kind:    shared.KindUnknown,
			Message: "failed to store artifact",
			Detail:  err.Error(),
		}
	}

	c.logger.Info("converted", "fingerprint", fp, "size", st.Size(), "title", info.Title)
	return &Artifact{
		Fingerprint: fp,
		Location:    location,
		AudioURL:    audioURL,
		SizeBytes:   st.Size(),
		CreatedAt:   time.Now().UTC(),
		Meta: Track{
			Title:     info.Title,
			Artist:    artistOf(info.Uploader, info.Channel),
			URL:       info.WebpageURL,
			Thumbnail: info.Thumbnail,
		},
	}, nil
}

// transcode runs ffmpeg from the upstream audio stream into dst.
func (c *Converter) transcode(ctx context.Context, streamURL, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", streamURL,
		"-vn",
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-b:a", "192k",
		"-f", "mp3",
		dst,
	}
	if _, stderr, err := c.runner.Run(ctx, c.ffmpeg, args...); err != nil {
		return Classify(err, string(stderr))
	}
	return nil
}

// bestAudioStream picks the most suitable stream URL from the probe output.
// Audio-only formats win over muxed ones; within a tier, plain HTTP(S)
// delivery and higher bitrate win.
func bestAudioStream(formats []ytFormat) (string, error) {
	candidates := make([]ytFormat, 0, len(formats))
	for _, f := range formats {
		if f.URL == "" || f.ACodec == "none" {
			continue
		}
		candidates = append(candidates, f)
	}
	if len(candidates) == 0 {
		return "", &shared.TrackError{
			Kind:    shared.KindSourceUnavailable,
			Message: "no usable audio stream for this track",
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return scoreFormat(candidates[i]) > scoreFormat(candidates[j])
	})
	return candidates[0].URL, nil
}

func scoreFormat(f ytFormat) int {
	score := 0
	if f.VCodec == "none" || f.VCodec == "" {
		score += 1000
	}
	p := strings.ToLower(f.Protocol)
	switch {
	case strings.HasPrefix(p, "https"):
		score += 30
	case strings.HasPrefix(p, "http"):
		score += 25
	case strings.Contains(p, "m3u8"), strings.Contains(p, "hls"):
		score += 20
	case strings.Contains(p, "dash"):
		score += 15
	}
	if f.ABR > 0 {
		score += int(f.ABR)
	} else if f.TBR > 0 {
		score += int(f.TBR / 2)
	}
	return score
}
