// Package store abstracts durable artifact persistence.
//
// Callers depend only on the [Store] interface; whether artifacts live on the
// local filesystem ([LocalStore]) or in S3 ([S3Store]) is a deployment
// choice. Locations are bare filenames derived from fingerprints, never raw
// user input.
package store

import (
	"context"
	"io"
)

// Store persists converted audio artifacts.
type Store interface {
	// Exists reports whether an artifact is present at location.
	Exists(ctx context.Context, location string) (bool, error)

	// Put moves the finished local file into durable storage and returns the
	// public retrieval URL. The local file is consumed: remote backends
	// delete the staging copy after upload.
	Put(ctx context.Context, localPath, location string) (string, error)

	// Open returns a reader over the stored artifact.
	Open(ctx context.Context, location string) (io.ReadCloser, error)

	// PublicURL returns the retrieval URL for location without touching the
	// backend.
	PublicURL(location string) string
}
