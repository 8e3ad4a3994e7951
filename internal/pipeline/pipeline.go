// Package pipeline orchestrates the search and download flows.
//
// A download request is fingerprinted and routed through the job ledger: the
// elected Leader drives the conversion on a goroutine detached from the
// request context, so an abandoned request never kills a conversion other
// callers are waiting on, and a finished conversion always lands in the
// cache. Followers (and the Leader's own request) just wait on the job.
//
// A search request consults the search cache, falls through to the resolver,
// and populates the cache on the way out.
package pipeline

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"tapedeck/internal/catalog"
	"tapedeck/internal/fingerprint"
	"tapedeck/internal/ledger"
	"tapedeck/internal/media"
	"tapedeck/internal/searchcache"
	"tapedeck/internal/shared"
	"tapedeck/internal/store"
)

const (
	placeholderTitle  = "Unknown title"
	placeholderArtist = "Unknown artist"
)

// Converter produces a stored artifact for a locator. Satisfied by
// [media.Converter].
type Converter interface {
	Convert(ctx context.Context, locator string, fp fingerprint.Fingerprint) (*media.Artifact, error)
}

// Searcher answers search queries. Satisfied by [media.Resolver].
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]media.Track, error)
}

// TrackResult is the payload a completed download request resolves to.
// Every caller coalesced onto the same job receives an identical result.
type TrackResult struct {
	AudioURL  string
	Title     string
	Artist    string
	Thumbnail string
}

// Stats is a snapshot of pipeline activity for the health endpoint.
type Stats struct {
	ActiveJobs    int64
	LedgerJobs    int
	CompletedJobs int64
	FailedJobs    int64
}

// Opts bundles the dependencies for [New]. Ledger, Converter, Searcher, and
// Store are required; Catalog and Cache are optional and degrade to
// placeholder metadata and no search caching respectively.
type Opts struct {
	Ledger      *ledger.Ledger
	Converter   Converter
	Searcher    Searcher
	Store       store.Store
	Catalog     *catalog.Catalog
	Cache       searchcache.Cache
	SearchLimit int
	Logger      *log.Logger

	// BaseContext bounds detached conversion work; cancel it on shutdown to
	// terminate in-flight subprocesses. Defaults to context.Background().
	BaseContext context.Context
}

// Pipeline wires the cache components into the two public flows.
type Pipeline struct {
	ledger      *ledger.Ledger
	converter   Converter
	searcher    Searcher
	store       store.Store
	catalog     *catalog.Catalog
	cache       searchcache.Cache
	searchLimit int
	logger      *log.Logger
	base        context.Context

	active    atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
}

// New creates a Pipeline from opts.
func New(opts Opts) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	base := opts.BaseContext
	if base == nil {
		base = context.Background()
	}
	limit := opts.SearchLimit
	if limit <= 0 {
		limit = 10
	}
	return &Pipeline{
		ledger:      opts.Ledger,
		converter:   opts.Converter,
		searcher:    opts.Searcher,
		store:       opts.Store,
		catalog:     opts.Catalog,
		cache:       opts.Cache,
		searchLimit: limit,
		logger:      logger,
		base:        base,
	}
}

// Download resolves rawURL to a stored artifact, converting it if no cached
// copy exists. Concurrent requests for the same locator coalesce onto one
// conversion and all receive the same result.
func (p *Pipeline) Download(ctx context.Context, rawURL string) (*TrackResult, error) {
	locator, err := validateLocator(rawURL)
	if err != nil {
		return nil, err
	}
	fp := fingerprint.New(locator)

	role, job := p.ledger.AcquireOrJoin(fp)
	if role == ledger.Leader {
		go p.lead(job, locator, fp)
	}

	out, err := job.Wait(ctx)
	if err != nil {
		return nil, err
	}
	return &TrackResult{
		AudioURL:  out.AudioURL,
		Title:     out.Title,
		Artist:    out.Artist,
		Thumbnail: out.Thumbnail,
	}, nil
}

// lead drives one conversion job to completion. Runs on p.base, not the
// request context: the Leader's HTTP caller may give up, the conversion
// should still finish and populate the cache.
func (p *Pipeline) lead(job *ledger.Job, locator string, fp fingerprint.Fingerprint) {
	ctx := p.base

	if out := p.storedOutcome(ctx, locator, fp); out != nil {
		p.logger.Debug("served from store", "fingerprint", fp)
		p.ledger.Complete(fp, out, nil)
		return
	}

	job.Start()
	p.active.Add(1)
	artifact, err := p.converter.Convert(ctx, locator, fp)
	p.active.Add(-1)

	if err != nil {
		p.failed.Add(1)
		terr := shared.AsTrackError(err)
		p.logger.Warn("conversion failed", "fingerprint", fp, "kind", terr.Kind, "detail", terr.Detail)
		p.ledger.Complete(fp, nil, terr)
		return
	}

	out := p.outcomeOf(ctx, locator, artifact)
	p.completed.Add(1)

	if p.catalog != nil {
		entry := &catalog.Entry{
			Fingerprint: fp.String(),
			SourceURL:   locator,
			Title:       out.Title,
			Artist:      out.Artist,
			Thumbnail:   out.Thumbnail,
			Location:    out.Location,
			SizeBytes:   out.SizeBytes,
			CreatedAt:   out.CreatedAt,
		}
		// Catalog persistence is bookkeeping; never downgrade a finished
		// conversion over it.
		if err := p.catalog.Save(ctx, entry); err != nil {
			p.logger.Warn("catalog save failed", "fingerprint", fp, "err", err)
		}
	}

	p.ledger.Complete(fp, out, nil)
}

// storedOutcome checks the artifact store for an existing copy, recovering
// metadata from the catalog when available. Covers repeat requests after the
// grace period and the restart path where the ledger is empty but the store
// is not.
func (p *Pipeline) storedOutcome(ctx context.Context, locator string, fp fingerprint.Fingerprint) *ledger.Outcome {
	location := fp.Filename("mp3")
	ok, err := p.store.Exists(ctx, location)
	if err != nil {
		p.logger.Warn("store check failed", "fingerprint", fp, "err", err)
		return nil
	}
	if !ok {
		return nil
	}

	out := &ledger.Outcome{
		Fingerprint: fp,
		Location:    location,
		AudioURL:    p.store.PublicURL(location),
		CreatedAt:   time.Now().UTC(),
	}
	if p.catalog != nil {
		if e, err := p.catalog.Get(ctx, fp.String()); err == nil {
			out.Title = e.Title
			out.Artist = e.Artist
			out.Thumbnail = e.Thumbnail
			out.SizeBytes = e.SizeBytes
			out.CreatedAt = e.CreatedAt
		} else if !errors.Is(err, shared.ErrNotFound) {
			p.logger.Warn("catalog lookup failed", "fingerprint", fp, "err", err)
		}
	}
	fillPlaceholders(out)
	return out
}

// outcomeOf converts an artifact into a ledger outcome, degrading missing
// metadata to placeholders. The artifact is the valuable output; absent
// titles never fail a request.
func (p *Pipeline) outcomeOf(ctx context.Context, locator string, a *media.Artifact) *ledger.Outcome {
	out := &ledger.Outcome{
		Fingerprint: a.Fingerprint,
		Location:    a.Location,
		AudioURL:    a.AudioURL,
		SizeBytes:   a.SizeBytes,
		CreatedAt:   a.CreatedAt,
		Title:       a.Meta.Title,
		Artist:      a.Meta.Artist,
		Thumbnail:   a.Meta.Thumbnail,
	}
	// The store short-circuit path returns artifacts without metadata; the
	// catalog remembers what the original conversion knew.
	if out.Title == "" && p.catalog != nil {
		if e, err := p.catalog.Get(ctx, a.Fingerprint.String()); err == nil {
			out.Title = e.Title
			out.Artist = e.Artist
			out.Thumbnail = e.Thumbnail
		}
	}
	fillPlaceholders(out)
	return out
}

// Search returns tracks matching query, serving repeats from the cache
// within its TTL. The literal query string is the cache key. An empty result
// list is a successful answer, not an error.
func (p *Pipeline) Search(ctx context.Context, query string) ([]media.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, shared.Errf(shared.KindInvalidInput, "missing search query")
	}

	if p.cache != nil {
		if results, ok := p.cache.Get(ctx, query); ok {
			p.logger.Debug("search cache hit", "query", query)
			return results, nil
		}
	}

	results, err := p.searcher.Search(ctx, query, p.searchLimit)
	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		p.cache.Set(ctx, query, results)
	}
	return results, nil
}

// Stats returns a snapshot of pipeline activity.
func (p *Pipeline) Stats() Stats {
	return Stats{
		ActiveJobs:    p.active.Load(),
		LedgerJobs:    p.ledger.Len(),
		CompletedJobs: p.completed.Load(),
		FailedJobs:    p.failed.Load(),
	}
}

// validateLocator rejects obviously malformed input before any fingerprint
// or subprocess work happens.
func validateLocator(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", shared.Errf(shared.KindInvalidInput, "missing track URL")
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", shared.Errf(shared.KindInvalidInput, "invalid track URL")
	}
	return rawURL, nil
}

func fillPlaceholders(out *ledger.Outcome) {
	if out.Title == "" {
		out.Title = placeholderTitle
	}
	if out.Artist == "" {
		out.Artist = placeholderArtist
	}
}
