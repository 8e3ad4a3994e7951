package shared

import (
	"errors"
	"fmt"
)

var (
	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Persistence errors
	ErrNotFound = fmt.Errorf("not found")
)

// Kind classifies a failure surfaced by an external tool or by input validation.
//
// Classification happens exactly once, at the subprocess or validation boundary.
// Layers above only read the Kind; they never reclassify.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"      // missing or malformed query/locator, no subprocess invoked
	KindSourceBlocked     Kind = "source_blocked"     // upstream denied access (bot check, login wall)
	KindSourceUnavailable Kind = "source_unavailable" // track removed, private, or unsupported
	KindTimeout           Kind = "timeout"            // network or subprocess exceeded its time budget
	KindToolMisconfigured Kind = "tool_misconfigured" // extractor or transcoder missing/broken, operator concern
	KindRateLimited       Kind = "rate_limited"       // upstream throttling
	KindParseFailure      Kind = "parse_failure"      // tool output in an unexpected shape
	KindUnknown           Kind = "unknown"            // fallback when no signature matched
)

// Retryable reports whether a fresh attempt for the same locator can succeed
// without user or operator intervention.
func (k Kind) Retryable() bool {
	switch k {
	case KindTimeout, KindRateLimited, KindUnknown:
		return true
	}
	return false
}

// TrackError is a classified failure carrying a stable user-facing message and
// the raw diagnostic text that produced the classification.
type TrackError struct {
	Kind    Kind
	Message string // stable, user-facing
	Detail  string // raw tool diagnostics, for logs; omitted from hardened responses
}

func (e *TrackError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// Errf builds a classified error with a formatted message and no diagnostic detail.
func Errf(kind Kind, format string, args ...any) *TrackError {
	return &TrackError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err.
// Unclassified errors report [KindUnknown].
func KindOf(err error) Kind {
	var te *TrackError
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// AsTrackError unwraps err into a *TrackError, or wraps it as KindUnknown so
// callers always have a classified value to surface.
func AsTrackError(err error) *TrackError {
	var te *TrackError
	if errors.As(err, &te) {
		return te
	}
	return &TrackError{Kind: KindUnknown, Message: "conversion failed", Detail: err.Error()}
}
