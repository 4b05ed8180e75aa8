// Package kv provides the key-value store that holds learned prototypes and
// composed soundscapes. Keys are hierarchical string slices such as
// {"proto", "rain"} or {"scene", "<uuid>"}, joined with a separator byte
// (default '/') when written to the backend.
//
// Two backends are provided: Badger for on-disk persistence and Memory for
// tests and throwaway sessions. Open selects one by name.
package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrInvalidKey is returned for empty keys and for segments that contain
	// the separator.
	ErrInvalidKey = errors.New("kv: invalid key")

	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("kv: unknown backend")
)

// Key is a hierarchical path represented as a slice of string segments.
type Key []string

// String returns the key joined with '/' for display.
func (k Key) String() string {
	return strings.Join(k, "/")
}

// Entry is a key-value pair returned by List and used by BatchSet.
type Entry struct {
	Key   Key
	Value []byte
}

// Store is the interface for a key-value store with path-based keys.
type Store interface {
	// Get retrieves the value for a key. Returns ErrNotFound if not present.
	Get(ctx context.Context, key Key) ([]byte, error)

	// Set stores a key-value pair. Overwrites any existing value.
	Set(ctx context.Context, key Key, value []byte) error

	// Delete removes a key. No error if the key does not exist.
	Delete(ctx context.Context, key Key) error

	// List iterates over all entries whose key starts with the given prefix,
	// in lexicographic order of the encoded key.
	List(ctx context.Context, prefix Key) iter.Seq2[Entry, error]

	// BatchSet atomically stores multiple key-value pairs.
	BatchSet(ctx context.Context, entries []Entry) error

	// BatchDelete atomically removes multiple keys.
	BatchDelete(ctx context.Context, keys []Key) error

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
)

// Open creates a store for the named backend. dir is required for badger.
// A nil logger uses slog.Default().
func Open(backend, dir string, logger *slog.Logger) (Store, error) {
	switch backend {
	case BackendMemory:
		return NewMemory(nil), nil
	case BackendBadger, "":
		return NewBadger(BadgerOptions{Dir: dir, Logger: NewSlogLogger(logger)})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// Collect drains a List iterator into a slice, stopping at the first error.
func Collect(seq iter.Seq2[Entry, error]) ([]Entry, error) {
	var entries []Entry
	for e, err := range seq {
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// DefaultSeparator is the byte used to join key segments.
const DefaultSeparator byte = '/'

// Options configures store behavior.
type Options struct {
	// Separator joins key segments in the backend. Zero means '/'.
	Separator byte
}

func (o *Options) sep() byte {
	if o != nil && o.Separator != 0 {
		return o.Separator
	}
	return DefaultSeparator
}

// encode joins the key segments. Keys that are empty or have a segment
// containing the separator are rejected so that decoding is unambiguous.
func (o *Options) encode(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	return o.join(k)
}

// prefix encodes a List prefix. An empty prefix matches every key; a
// non-empty one ends in the separator so {"a","b"} does not match "a/bc".
func (o *Options) prefix(k Key) ([]byte, error) {
	if len(k) == 0 {
		return nil, nil
	}
	p, err := o.join(k)
	if err != nil {
		return nil, err
	}
	return append(p, o.sep()), nil
}

func (o *Options) join(k Key) ([]byte, error) {
	s := o.sep()
	parts := make([][]byte, len(k))
	for i, seg := range k {
		if strings.IndexByte(seg, s) >= 0 {
			return nil, fmt.Errorf("%w: segment %q contains separator %q", ErrInvalidKey, seg, s)
		}
		parts[i] = []byte(seg)
	}
	return bytes.Join(parts, []byte{s}), nil
}

func (o *Options) decode(b []byte) Key {
	parts := bytes.Split(b, []byte{o.sep()})
	k := make(Key, len(parts))
	for i, p := range parts {
		k[i] = string(p)
	}
	return k
}
