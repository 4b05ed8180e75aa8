package scene

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/equivocal/pkg/kv"
)

// Key layout (relative to the Library prefix):
//
//	{prefix}/proto/{name}  → msgpack-encoded Prototype
//	{prefix}/scene/{id}    → msgpack-encoded Soundscape
//
// Category names come from directory names, so the default '/' separator
// can never appear inside a name segment.

func protoKey(prefix kv.Key, name string) kv.Key {
	return append(prefix[:len(prefix):len(prefix)], "proto", name)
}

func protoPrefix(prefix kv.Key) kv.Key {
	return append(prefix[:len(prefix):len(prefix)], "proto")
}

func sceneKey(prefix kv.Key, id uuid.UUID) kv.Key {
	return append(prefix[:len(prefix):len(prefix)], "scene", id.String())
}

func scenePrefix(prefix kv.Key) kv.Key {
	return append(prefix[:len(prefix):len(prefix)], "scene")
}

// Library persists prototypes and soundscapes in a KV store.
type Library struct {
	store  kv.Store
	prefix kv.Key
}

// NewLibrary returns a library scoped under prefix in store. A nil prefix
// stores entries at the top level.
func NewLibrary(store kv.Store, prefix kv.Key) *Library {
	return &Library{store: store, prefix: prefix}
}

// Put stores p under its name, replacing any previous prototype.
func (l *Library) Put(ctx context.Context, p *Prototype) error {
	if p.Name == "" || strings.ContainsRune(p.Name, '/') {
		return fmt.Errorf("%w: %q", ErrInvalidName, p.Name)
	}
	if err := p.Latent.Validate(); err != nil {
		return fmt.Errorf("scene: prototype %q: %w", p.Name, err)
	}
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("scene: encode prototype %q: %w", p.Name, err)
	}
	return l.store.Set(ctx, protoKey(l.prefix, p.Name), data)
}

// Get returns the named prototype or ErrUnknownSound.
func (l *Library) Get(ctx context.Context, name string) (*Prototype, error) {
	data, err := l.store.Get(ctx, protoKey(l.prefix, name))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSound, name)
	}
	if err != nil {
		return nil, err
	}
	var p Prototype
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("scene: decode prototype %q: %w", name, err)
	}
	return &p, nil
}

// Delete removes the named prototype. Missing names are not an error.
func (l *Library) Delete(ctx context.Context, name string) error {
	return l.store.Delete(ctx, protoKey(l.prefix, name))
}

// Prototypes iterates stored prototypes in name order.
func (l *Library) Prototypes(ctx context.Context) iter.Seq2[*Prototype, error] {
	return decodeAll[Prototype](l.store.List(ctx, protoPrefix(l.prefix)))
}

// List returns every stored prototype in name order.
func (l *Library) List(ctx context.Context) ([]*Prototype, error) {
	return collect(l.Prototypes(ctx))
}

// Names returns the stored prototype names in order.
func (l *Library) Names(ctx context.Context) ([]string, error) {
	var names []string
	for e, err := range l.store.List(ctx, protoPrefix(l.prefix)) {
		if err != nil {
			return nil, err
		}
		names = append(names, e.Key[len(e.Key)-1])
	}
	return names, nil
}

// PutScene stores s under its ID.
func (l *Library) PutScene(ctx context.Context, s *Soundscape) error {
	data, err := msgpack.Marshal(s)
	if err != nil {
		return fmt.Errorf("scene: encode soundscape %s: %w", s.ID, err)
	}
	return l.store.Set(ctx, sceneKey(l.prefix, s.ID), data)
}

// GetScene returns the soundscape with the given ID or ErrUnknownScene.
func (l *Library) GetScene(ctx context.Context, id uuid.UUID) (*Soundscape, error) {
	data, err := l.store.Get(ctx, sceneKey(l.prefix, id))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScene, id)
	}
	if err != nil {
		return nil, err
	}
	var s Soundscape
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("scene: decode soundscape %s: %w", id, err)
	}
	return &s, nil
}

// DeleteScene removes a soundscape. Missing IDs are not an error.
func (l *Library) DeleteScene(ctx context.Context, id uuid.UUID) error {
	return l.store.Delete(ctx, sceneKey(l.prefix, id))
}

// ListScenes returns every stored soundscape, oldest first.
func (l *Library) ListScenes(ctx context.Context) ([]*Soundscape, error) {
	out, err := collect(decodeAll[Soundscape](l.store.List(ctx, scenePrefix(l.prefix))))
	if err != nil {
		return nil, err
	}
	sortScenes(out)
	return out, nil
}

func sortScenes(scenes []*Soundscape) {
	slices.SortFunc(scenes, func(a, b *Soundscape) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.ID.String(), b.ID.String()),
		)
	})
}

func decodeAll[T any](seq iter.Seq2[kv.Entry, error]) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		for e, err := range seq {
			if err != nil {
				yield(nil, err)
				return
			}
			v := new(T)
			if err := msgpack.Unmarshal(e.Value, v); err != nil {
				yield(nil, fmt.Errorf("scene: decode %s: %w", e.Key, err))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

func collect[T any](seq iter.Seq2[*T, error]) ([]*T, error) {
	var out []*T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
