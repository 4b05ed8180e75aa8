package scene

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/haivivi/equivocal/pkg/latent"
	"github.com/haivivi/equivocal/pkg/storage"
)

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newTestEngine(t)
	if _, err := src.LearnClips(ctx, "hum", "Tier_1", [][]float32{sine(220, 0.3, 0.5)}); err != nil {
		t.Fatal(err)
	}
	if _, err := src.LearnClips(ctx, "hiss", "Tier_3", [][]float32{noise(9, 0.2, 0.5)}); err != nil {
		t.Fatal(err)
	}
	scene, err := src.Blend(ctx, []string{"hum", "hiss"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	fs, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := src.Export(ctx, fs, "models/"+DefaultModelFile)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(doc.AtomicSounds) != 2 || len(doc.Soundscapes) != 1 {
		t.Errorf("exported %d sounds and %d soundscapes", len(doc.AtomicSounds), len(doc.Soundscapes))
	}

	raw, err := os.ReadFile(filepath.Join(dir, "models", DefaultModelFile))
	if err != nil {
		t.Fatal(err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		t.Fatalf("export is not JSON: %v", err)
	}
	for _, key := range []string{"atomic_sounds", "soundscapes", "metadata"} {
		if _, ok := top[key]; !ok {
			t.Errorf("export lacks %q", key)
		}
	}

	dst := newTestEngine(t)
	if _, err := dst.Import(ctx, fs, "models/"+DefaultModelFile); err != nil {
		t.Fatalf("Import: %v", err)
	}
	names, err := dst.Library().Names(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(names, []string{"hiss", "hum"}) {
		t.Errorf("imported %q", names)
	}
	hum, err := dst.Library().Get(ctx, "hum")
	if err != nil {
		t.Fatal(err)
	}
	orig, _ := src.Library().Get(ctx, "hum")
	if hum.Tier != "Tier_1" || hum.Samples != 1 {
		t.Errorf("hum = %+v", hum)
	}
	if got, want := latent.Flatten(hum.Latent), latent.Flatten(orig.Latent); !slices.Equal(got, want) {
		t.Errorf("latent changed through export:\n got %v\nwant %v", got, want)
	}

	got, err := dst.Library().GetScene(ctx, scene.ID)
	if err != nil {
		t.Fatalf("GetScene: %v", err)
	}
	if !slices.Equal(got.Categories(), []string{"hum", "hiss"}) || !slices.Equal(got.Weights, []float64{0.5, 0.5}) {
		t.Errorf("soundscape = %+v", got)
	}
}

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		sounds []string
		scenes int
	}{
		{
			name:   "plain",
			in:     `{"atomic_sounds": {"rain": {"energy_level": 0.1, "timbre_vector": [1, 2]}}, "soundscapes": {}}`,
			sounds: []string{"rain"},
		},
		{
			name:   "trailing commas",
			in:     `{"atomic_sounds": {"rain": {"energy_level": 0.1,},}, "soundscapes": {},}`,
			sounds: []string{"rain"},
		},
		{
			name:   "truncated",
			in:     `{"atomic_sounds": {"rain": {"energy_level": 0.1}, "wind": {"energy_level": 0.3`,
			sounds: []string{"rain", "wind"},
		},
		{
			name:   "scenes without metadata",
			in:     `{"atomic_sounds": {}, "soundscapes": {"storm": {"components": ["thunder"], "weights": [1], "latent": {"energy_level": 0.5}}}}`,
			scenes: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.in))
			if err != nil {
				t.Fatalf("ParseDocument: %v", err)
			}
			var got []string
			for name := range doc.AtomicSounds {
				got = append(got, name)
			}
			slices.Sort(got)
			if !slices.Equal(got, tt.sounds) {
				t.Errorf("sounds = %q, want %q", got, tt.sounds)
			}
			if len(doc.Soundscapes) != tt.scenes {
				t.Errorf("soundscapes = %d, want %d", len(doc.Soundscapes), tt.scenes)
			}
		})
	}

	if _, err := ParseDocument([]byte(`{"something": "else"}`)); err == nil {
		t.Error("ParseDocument should reject documents without sounds or soundscapes")
	}
	if _, err := ParseDocument([]byte(`{"atomic_sounds": {"rain": {"energy_level": "loud"}}}`)); err == nil {
		t.Error("ParseDocument should reject non-numeric descriptors")
	}
}

func TestLoadDerivesSceneIDs(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	doc, err := ParseDocument([]byte(`{"atomic_sounds": {}, "soundscapes": {"storm": {"components": ["thunder"], "weights": [1], "latent": {"energy_level": 0.5}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Library().Load(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Library().Load(ctx, doc); err != nil {
		t.Fatal(err)
	}
	scenes, err := e.Library().ListScenes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(scenes) != 1 {
		t.Fatalf("got %d scenes, want 1 after loading twice", len(scenes))
	}
	if scenes[0].ID.Version() != 5 {
		t.Errorf("scene ID %s is not name based", scenes[0].ID)
	}
	if _, err := e.Library().GetScene(ctx, uuid.NewSHA1(uuid.NameSpaceURL, []byte("equivocal:scene:storm"))); err != nil {
		t.Errorf("GetScene: %v", err)
	}
}

func TestImportMissing(t *testing.T) {
	fs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, err = newTestEngine(t).Import(context.Background(), fs, "nope.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Import error = %v, want os.ErrNotExist", err)
	}
}

func TestSchema(t *testing.T) {
	s, err := Schema()
	if err != nil {
		t.Fatalf("Schema: %v", err)
	}
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"atomic_sounds"`, `"soundscapes"`, `"anyOf"`, `"date-time"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("schema lacks %s: %s", want, data)
		}
	}
}
