package media

import (
	"context"
	"errors"
	"os/exec"
	"strings"

	"tapedeck/internal/shared"
)

// signature maps a known substring of tool diagnostics to a classified kind
// and a stable user-facing message.
type signature struct {
	substr  string
	kind    shared.Kind
	message string
}

// signatures is matched in order, first match wins. Upstream tools reword
// their diagnostics over time; new wordings are appended here, never handled
// ad hoc at call sites.
var signatures = []signature{
	// Bot walls and login requirements. Retrying without human intervention
	// will not help.
	{"sign in to confirm you're not a bot", shared.KindSourceBlocked, "the source site is blocking automated access"},
	{"sign in to confirm your age", shared.KindSourceBlocked, "this track is age-restricted"},
	{"login required", shared.KindSourceBlocked, "the source site requires a login"},
	{"captcha", shared.KindSourceBlocked, "the source site is requesting a captcha"},

	// Gone, private, or never supported.
	{"private video", shared.KindSourceUnavailable, "this track is private"},
	{"video unavailable", shared.KindSourceUnavailable, "this track is unavailable"},
	{"has been removed", shared.KindSourceUnavailable, "this track has been removed"},
	{"members-only", shared.KindSourceUnavailable, "this track is members-only"},
	{"unsupported url", shared.KindSourceUnavailable, "this URL is not supported"},
	{"is not a valid url", shared.KindSourceUnavailable, "this URL is not valid"},

	// Upstream throttling.
	{"http error 429", shared.KindRateLimited, "the source site is rate limiting requests"},
	{"too many requests", shared.KindRateLimited, "the source site is rate limiting requests"},

	// Time budget exceeded somewhere in the network path.
	{"timed out", shared.KindTimeout, "the operation timed out"},
	{"timeout", shared.KindTimeout, "the operation timed out"},

	// Broken tool installation, unrelated to the specific request. Surfaced
	// distinctly so operators can alert on it.
	{"executable file not found", shared.KindToolMisconfigured, "a required external tool is not installed"},
	{"unknown encoder", shared.KindToolMisconfigured, "the transcoder is missing a required codec"},
	{"error while loading shared libraries", shared.KindToolMisconfigured, "a required external tool is broken"},

	// The tool ran but produced something we cannot use.
	{"unable to extract", shared.KindParseFailure, "could not read data from the source site"},
}

// Classify translates a subprocess failure into a [shared.TrackError].
//
// Structural errors (missing binary, context deadline) are recognized first;
// otherwise the diagnostic text is matched case-insensitively against the
// signature table. Anything unmatched falls back to [shared.KindUnknown]
// with the raw diagnostics preserved for logging.
func Classify(err error, diagnostic string) *shared.TrackError {
	diagnostic = strings.TrimSpace(diagnostic)

	if errors.Is(err, exec.ErrNotFound) {
		return &shared.TrackError{
			Kind:    shared.KindToolMisconfigured,
			Message: "a required external tool is not installed",
			Detail:  err.Error(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &shared.TrackError{
			Kind:    shared.KindTimeout,
			Message: "the operation timed out",
			Detail:  diagnostic,
		}
	}

	lower := strings.ToLower(diagnostic)
	if err != nil {
		lower += "\n" + strings.ToLower(err.Error())
	}
	for _, sig := range signatures {
		if strings.Contains(lower, sig.substr) {
			return &shared.TrackError{Kind: sig.kind, Message: sig.message, Detail: diagnostic}
		}
	}

	detail := diagnostic
	if detail == "" && err != nil {
		detail = err.Error()
	}
	return &shared.TrackError{Kind: shared.KindUnknown, Message: "conversion failed", Detail: detail}
}
