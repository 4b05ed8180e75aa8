package scene

import (
	"context"
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/haivivi/equivocal/pkg/kv"
	"github.com/haivivi/equivocal/pkg/latent"
)

func testLatent(energy float64) latent.Map {
	return latent.Map{
		latent.KeyEnergy: latent.Scalar(energy),
		latent.KeyTimbre: latent.Vector(1, 2, 3),
		latent.KeyOnsets: latent.Nested(latent.Map{latent.KeyNumOnsets: latent.Scalar(4)}),
	}
}

func TestLibraryPrototypes(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(kv.NewMemory(nil), kv.Key{"lib"})

	for _, name := range []string{"whale_song", "thunder", "bird_chirp"} {
		p := &Prototype{Name: name, Tier: "Tier_1", Samples: 3, Latent: testLatent(0.1), LearnedAt: epoch}
		if err := lib.Put(ctx, p); err != nil {
			t.Fatalf("Put(%s): %v", name, err)
		}
	}

	names, err := lib.Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"bird_chirp", "thunder", "whale_song"}) {
		t.Errorf("Names = %q", names)
	}

	got, err := lib.Get(ctx, "thunder")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Samples != 3 || got.Tier != "Tier_1" || !got.LearnedAt.Equal(epoch) {
		t.Errorf("Get = %+v", got)
	}
	if v, ok := got.Latent[latent.KeyTimbre].Floats(); !ok || !slices.Equal(v, []float64{1, 2, 3}) {
		t.Errorf("timbre = %v", v)
	}
	if n, _ := got.Latent.Lookup(latent.KeyOnsets, latent.KeyNumOnsets); n.String() != "4" {
		t.Errorf("num_onsets = %v", n)
	}

	all, err := lib.List(ctx)
	if err != nil || len(all) != 3 || all[0].Name != "bird_chirp" {
		t.Errorf("List = %v, %v", all, err)
	}

	if err := lib.Delete(ctx, "thunder"); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.Get(ctx, "thunder"); !errors.Is(err, ErrUnknownSound) {
		t.Errorf("Get after Delete error = %v, want ErrUnknownSound", err)
	}
	if err := lib.Delete(ctx, "thunder"); err != nil {
		t.Errorf("Delete missing: %v", err)
	}
}

func TestLibraryRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	lib := NewLibrary(kv.NewMemory(nil), nil)

	bad := &Prototype{Name: "nan", Latent: latent.Map{latent.KeyEnergy: latent.Scalar(math.NaN())}}
	if err := lib.Put(ctx, bad); !errors.Is(err, latent.ErrInvalidValue) {
		t.Errorf("Put(NaN) error = %v, want ErrInvalidValue", err)
	}
	for _, name := range []string{"", "a/b"} {
		if err := lib.Put(ctx, &Prototype{Name: name, Latent: testLatent(0)}); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestLibraryScenes(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(nil)
	lib := NewLibrary(store, nil)

	first := &Soundscape{
		ID:         uuid.New(),
		Prompt:     "calm sea",
		Components: []Component{{Category: "underwater_ambience", Triggers: []string{"calm", "sea"}}},
		Weights:    []float64{1},
		Latent:     testLatent(0.2),
		CreatedAt:  epoch.Add(2),
	}
	second := &Soundscape{
		ID:         uuid.New(),
		Components: []Component{{Category: "thunder"}},
		Weights:    []float64{1},
		Latent:     testLatent(0.4),
		CreatedAt:  epoch.Add(1),
	}
	for _, s := range []*Soundscape{first, second} {
		if err := lib.PutScene(ctx, s); err != nil {
			t.Fatalf("PutScene: %v", err)
		}
	}

	got, err := lib.GetScene(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetScene: %v", err)
	}
	if got.ID != first.ID || got.Prompt != "calm sea" || !slices.Equal(got.Components[0].Triggers, []string{"calm", "sea"}) {
		t.Errorf("GetScene = %+v", got)
	}

	list, err := lib.ListScenes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("ListScenes not ordered by creation time")
	}

	// Scenes and prototypes live under separate prefixes.
	if names, _ := lib.Names(ctx); len(names) != 0 {
		t.Errorf("Names = %q, want none", names)
	}

	if err := lib.DeleteScene(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := lib.GetScene(ctx, first.ID); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("GetScene after delete error = %v, want ErrUnknownScene", err)
	}
}

func TestLibraryPrefixIsolation(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory(nil)
	a := NewLibrary(store, kv.Key{"a"})
	b := NewLibrary(store, kv.Key{"b"})

	if err := a.Put(ctx, &Prototype{Name: "rain", Latent: testLatent(0.1)}); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Get(ctx, "rain"); !errors.Is(err, ErrUnknownSound) {
		t.Errorf("b.Get error = %v, want ErrUnknownSound", err)
	}
}
