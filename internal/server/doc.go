// Package server provides the HTTP surface of the track cache.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # API Handlers
//
// [API] exposes the service endpoints:
//   - GET /search?q=  searches the source site and returns track candidates
//   - POST /download  resolves a track URL to a cached MP3 artifact
//   - GET /audio/     serves stored artifacts by fingerprint-derived filename
//   - GET /health     reports pipeline activity counters
//
// Failures carry a classification kind which the handlers translate into an
// HTTP status; raw subprocess diagnostics are only included in responses when
// the server is configured to expose them.
//
// # Server Lifecycle
//
// [Server] wraps [http.Server] with graceful shutdown: cancel the context
// passed to [Server.Run] and in-flight requests get a drain window before the
// listener closes.
package server
