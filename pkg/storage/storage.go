// Package storage defines the FileStore interface used to export and import
// learned models. A model can live in a local directory or in an S3 bucket
// (or any S3-compatible object store); Open picks the backend from a URI.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrInvalidPath is returned for absolute paths and paths that escape the
	// store root.
	ErrInvalidPath = errors.New("storage: invalid path")

	// ErrInvalidURI is returned by Open for malformed locations.
	ErrInvalidURI = errors.New("storage: invalid uri")
)

// FileStore is a minimal interface for file-oriented storage.
//
// Paths are forward-slash separated and relative to the store root.
// Implementations must be safe for concurrent use.
type FileStore interface {
	// Read opens the named file for reading.
	// The caller must close the returned ReadCloser when done.
	// If the file does not exist, an error wrapping os.ErrNotExist is returned.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Write opens the named file for writing. The content becomes visible
	// when the returned WriteCloser is closed without error.
	Write(ctx context.Context, path string) (io.WriteCloser, error)

	// Delete removes the named file. Missing files are not an error.
	Delete(ctx context.Context, path string) error

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, path string) (bool, error)
}

// ReadFile reads the whole named file from fs.
func ReadFile(ctx context.Context, fs FileStore, name string) ([]byte, error) {
	r, err := fs.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// WriteFile writes data to the named file in fs.
func WriteFile(ctx context.Context, fs FileStore, name string, data []byte) error {
	w, err := fs.Write(ctx, name)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Open returns the FileStore for location. "s3://bucket/prefix" selects S3
// with a client built from opts; anything else, with or without a "file://"
// scheme, is a local directory.
func Open(location string, opts S3Options) (FileStore, error) {
	if rest, ok := strings.CutPrefix(location, "s3://"); ok {
		bucket, prefix, _ := strings.Cut(rest, "/")
		if bucket == "" {
			return nil, fmt.Errorf("%w: %q has no bucket", ErrInvalidURI, location)
		}
		return NewS3(NewS3Client(opts), bucket, strings.Trim(prefix, "/")), nil
	}
	dir := strings.TrimPrefix(location, "file://")
	if dir == "" {
		return nil, fmt.Errorf("%w: empty location", ErrInvalidURI)
	}
	return NewLocal(dir)
}

// cleanPath normalises a store path and rejects ones that would leave the
// store root.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	c := path.Clean(p)
	if c == "." || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}
