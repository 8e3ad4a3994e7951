package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps artifacts in a single directory on the local filesystem.
type LocalStore struct {
	dir        string
	publicBase string
}

// NewLocalStore creates the artifact directory if needed.
// publicBase is the URL prefix artifacts are served under, e.g.
// "http://localhost:8080/audio".
func NewLocalStore(dir, publicBase string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &LocalStore{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Exists reports whether the artifact file is present.
func (s *LocalStore) Exists(_ context.Context, location string) (bool, error) {
	_, err := os.Stat(s.path(location))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat artifact: %w", err)
}

// Put moves localPath into the artifact directory. Rename is atomic on the
// same filesystem; a copy fallback covers cross-device staging directories.
func (s *LocalStore) Put(_ context.Context, localPath, location string) (string, error) {
	target := s.path(location)
	if localPath == target {
		return s.PublicURL(location), nil
	}
	if err := os.Rename(localPath, target); err != nil {
		if err := copyFile(localPath, target); err != nil {
			return "", fmt.Errorf("failed to store artifact: %w", err)
		}
		_ = os.Remove(localPath)
	}
	return s.PublicURL(location), nil
}

// Open returns a reader over the stored artifact.
func (s *LocalStore) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(location))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, nil
}

// PublicURL returns the serving URL for location.
func (s *LocalStore) PublicURL(location string) string {
	return s.publicBase + "/" + location
}

// path joins the base name of location with the artifact directory.
// filepath.Base strips any traversal components, locations are fingerprint
// derived but the store does not rely on that.
func (s *LocalStore) path(location string) string {
	return filepath.Join(s.dir, filepath.Base(location))
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
