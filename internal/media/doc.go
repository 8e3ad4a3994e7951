// Package media drives the external extractor (yt-dlp) and transcoder
// (ffmpeg) subprocesses.
//
// The [Resolver] answers search and describe queries; the [Converter] turns a
// source locator into a stored MP3 artifact. Both treat the tools as black
// boxes that run to completion, exit with a status code, and emit diagnostics
// on stderr. Failures are classified exactly once, here, against the ordered
// signature table in classify.go; upstream layers only read the resulting
// [shared.Kind].
//
// Subprocess invocation goes through the [Runner] interface so tests can
// substitute canned tool behavior.
package media
