package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/charmbracelet/log"

	"tapedeck/internal/media"
	"tapedeck/internal/pipeline"
	"tapedeck/internal/shared"
	"tapedeck/internal/store"
)

// Downloader resolves a track URL to a cached artifact. Satisfied by
// [pipeline.Pipeline].
type Downloader interface {
	Download(ctx context.Context, rawURL string) (*pipeline.TrackResult, error)
	Search(ctx context.Context, query string) ([]media.Track, error)
	Stats() pipeline.Stats
}

// API holds the service endpoints.
type API struct {
	pipeline Downloader
	store    store.Store
	logger   *log.Logger
	started  time.Time

	// exposeDetails controls whether raw subprocess diagnostics are included
	// in error responses. Off for public deployments.
	exposeDetails bool
}

// NewAPI creates the endpoint handler set.
func NewAPI(p Downloader, st store.Store, exposeDetails bool, logger *log.Logger) *API {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &API{pipeline: p, store: st, logger: logger, started: time.Now(), exposeDetails: exposeDetails}
}

// Register attaches all endpoints to the router.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/search", http.HandlerFunc(a.handleSearch))
	r.Handle(http.MethodPost, "/download", http.HandlerFunc(a.handleDownload))
	r.Handle(http.MethodGet, "/audio/{file}", http.HandlerFunc(a.handleAudio))
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.handleHealth))
}

type searchResponse struct {
	Success bool          `json:"success"`
	Results []media.Track `json:"results"`
	Message string        `json:"message,omitempty"`
}

type downloadRequest struct {
	URL string `json:"url"`
}

type downloadResponse struct {
	Success   bool   `json:"success"`
	AudioURL  string `json:"audioUrl"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status        string `json:"status"`
	Uptime        string `json:"uptime"`
	ActiveJobs    int64  `json:"activeJobs"`
	LedgerJobs    int    `json:"ledgerJobs"`
	CompletedJobs int64  `json:"completedJobs"`
	FailedJobs    int64  `json:"failedJobs"`
}

func (a *API) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := a.pipeline.Search(r.Context(), query)
	if err != nil {
		a.writeError(w, err)
		return
	}
	if results == nil {
		results = []media.Track{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Success: true, Results: results})
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, shared.Errf(shared.KindInvalidInput, "request body must be JSON with a url field"))
		return
	}

	res, err := a.pipeline.Download(r.Context(), req.URL)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, downloadResponse{
		Success:   true,
		AudioURL:  res.AudioURL,
		Title:     res.Title,
		Artist:    res.Artist,
		Thumbnail: res.Thumbnail,
		Message:   "Conversion successful",
	})
}

// artifactName matches fingerprint-derived filenames and nothing else, so a
// request path can never reach outside the artifact store.
var artifactName = regexp.MustCompile(`^[0-9a-f]{64}\.mp3$`)

func (a *API) handleAudio(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	if !artifactName.MatchString(name) {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Message: "No such track"})
		return
	}

	rc, err := a.store.Open(r.Context(), name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Success: false, Message: "No such track"})
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		a.logger.Debug("artifact stream aborted", "file", name, "err", err)
	}
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := a.pipeline.Stats()
	writeJSON(w, http.StatusOK, healthResponse{
		Status:        "ok",
		Uptime:        time.Since(a.started).Round(time.Second).String(),
		ActiveJobs:    stats.ActiveJobs,
		LedgerJobs:    stats.LedgerJobs,
		CompletedJobs: stats.CompletedJobs,
		FailedJobs:    stats.FailedJobs,
	})
}

// kindStatus maps a failure classification to an HTTP status. The upstream
// site rate limiting us is our capacity problem, hence 503 rather than 429.
func kindStatus(kind shared.Kind) int {
	switch kind {
	case shared.KindInvalidInput:
		return http.StatusBadRequest
	case shared.KindSourceBlocked:
		return http.StatusForbidden
	case shared.KindSourceUnavailable:
		return http.StatusNotFound
	case shared.KindRateLimited:
		return http.StatusServiceUnavailable
	case shared.KindTimeout:
		return http.StatusGatewayTimeout
	case shared.KindParseFailure:
		return http.StatusBadGateway
	case shared.KindToolMisconfigured:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) writeError(w http.ResponseWriter, err error) {
	terr := shared.AsTrackError(err)
	resp := errorResponse{Success: false, Message: terr.Message}
	if a.exposeDetails {
		resp.Details = terr.Detail
	}
	writeJSON(w, kindStatus(terr.Kind), resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
