package scene

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"

	"github.com/haivivi/equivocal/pkg/latent"
	"github.com/haivivi/equivocal/pkg/storage"
)

// DefaultModelFile is the export file name used when none is given.
const DefaultModelFile = "equivocal_model.json"

// Document is the exported model: every prototype's latent map keyed by
// name, and every soundscape keyed by ID.
type Document struct {
	AtomicSounds map[string]latent.Map  `json:"atomic_sounds"`
	Soundscapes  map[string]SceneRecord `json:"soundscapes"`
	Metadata     map[string]SoundRecord `json:"metadata,omitempty"`
}

// SceneRecord is the exported form of a Soundscape.
type SceneRecord struct {
	Prompt     string     `json:"prompt,omitempty"`
	Components []string   `json:"components"`
	Weights    []float64  `json:"weights"`
	Latent     latent.Map `json:"latent"`
	CreatedAt  time.Time  `json:"created_at,omitzero"`
}

// SoundRecord carries the prototype fields that are not part of the latent
// map.
type SoundRecord struct {
	Tier      string    `json:"tier,omitempty"`
	Samples   int       `json:"samples"`
	Sources   []string  `json:"sources,omitempty"`
	LearnedAt time.Time `json:"learned_at,omitzero"`
}

// Document builds the export document from the library.
func (l *Library) Document(ctx context.Context) (*Document, error) {
	doc := &Document{
		AtomicSounds: make(map[string]latent.Map),
		Soundscapes:  make(map[string]SceneRecord),
		Metadata:     make(map[string]SoundRecord),
	}
	for p, err := range l.Prototypes(ctx) {
		if err != nil {
			return nil, err
		}
		doc.AtomicSounds[p.Name] = p.Latent
		doc.Metadata[p.Name] = SoundRecord{
			Tier:      p.Tier,
			Samples:   p.Samples,
			Sources:   p.Sources,
			LearnedAt: p.LearnedAt,
		}
	}
	scenes, err := l.ListScenes(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range scenes {
		doc.Soundscapes[s.ID.String()] = SceneRecord{
			Prompt:     s.Prompt,
			Components: s.Categories(),
			Weights:    s.Weights,
			Latent:     s.Latent,
			CreatedAt:  s.CreatedAt,
		}
	}
	return doc, nil
}

// Load stores every sound and soundscape of doc, replacing entries with the
// same name or ID. Soundscape keys that are not UUIDs get an ID derived
// from the key.
func (l *Library) Load(ctx context.Context, doc *Document) (sounds, scenes int, err error) {
	for _, name := range slices.Sorted(maps.Keys(doc.AtomicSounds)) {
		meta := doc.Metadata[name]
		p := &Prototype{
			Name:      name,
			Tier:      meta.Tier,
			Samples:   meta.Samples,
			Latent:    doc.AtomicSounds[name],
			Sources:   meta.Sources,
			LearnedAt: meta.LearnedAt,
		}
		if err := l.Put(ctx, p); err != nil {
			return sounds, scenes, err
		}
		sounds++
	}
	for _, key := range slices.Sorted(maps.Keys(doc.Soundscapes)) {
		rec := doc.Soundscapes[key]
		id, err := uuid.Parse(key)
		if err != nil {
			id = uuid.NewSHA1(uuid.NameSpaceURL, []byte("equivocal:scene:"+key))
		}
		if err := rec.Latent.Validate(); err != nil {
			return sounds, scenes, fmt.Errorf("scene: soundscape %s: %w", key, err)
		}
		comps := make([]Component, len(rec.Components))
		for i, c := range rec.Components {
			comps[i] = Component{Category: c}
		}
		s := &Soundscape{
			ID:         id,
			Prompt:     rec.Prompt,
			Components: comps,
			Weights:    rec.Weights,
			Latent:     rec.Latent,
			CreatedAt:  rec.CreatedAt,
		}
		if err := l.PutScene(ctx, s); err != nil {
			return sounds, scenes, err
		}
		scenes++
	}
	return sounds, scenes, nil
}

// Export writes the library as an indented JSON document to path in fs.
func (e *Engine) Export(ctx context.Context, fs storage.FileStore, path string) (*Document, error) {
	doc, err := e.lib.Document(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("scene: encode model: %w", err)
	}
	if err := storage.WriteFile(ctx, fs, path, data); err != nil {
		return nil, fmt.Errorf("scene: write model %s: %w", path, err)
	}
	e.logger.Info("exported model", "path", path, "sounds", len(doc.AtomicSounds), "soundscapes", len(doc.Soundscapes))
	return doc, nil
}

// Import reads a model document from path in fs into the library.
// Malformed JSON is repaired before giving up.
func (e *Engine) Import(ctx context.Context, fs storage.FileStore, path string) (*Document, error) {
	data, err := storage.ReadFile(ctx, fs, path)
	if err != nil {
		return nil, fmt.Errorf("scene: read model %s: %w", path, err)
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("scene: model %s: %w", path, err)
	}
	sounds, scenes, err := e.lib.Load(ctx, doc)
	if err != nil {
		return nil, err
	}
	e.logger.Info("imported model", "path", path, "sounds", sounds, "soundscapes", scenes)
	return doc, nil
}

// ParseDocument decodes a model document, repairing malformed JSON such as
// trailing commas or a truncated tail.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	err := json.Unmarshal(data, &doc)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		fixed, rerr := jsonrepair.JSONRepair(string(data))
		if rerr != nil {
			return nil, err
		}
		doc = Document{}
		err = json.Unmarshal([]byte(fixed), &doc)
	}
	if err != nil {
		return nil, err
	}
	if doc.AtomicSounds == nil && doc.Soundscapes == nil {
		return nil, errors.New("scene: document has neither atomic_sounds nor soundscapes")
	}
	return &doc, nil
}

// Schema returns the JSON Schema of the export document.
func Schema() (*jsonschema.Schema, error) {
	number := &jsonschema.Schema{Type: "number"}
	value := &jsonschema.Schema{
		Description: "descriptor: a number, a vector of numbers or a nested descriptor map",
		AnyOf: []*jsonschema.Schema{
			number,
			{Type: "array", Items: number},
			{Type: "object", AdditionalProperties: &jsonschema.Schema{}},
		},
	}
	return jsonschema.For[Document](&jsonschema.ForOptions{
		TypeSchemas: map[reflect.Type]*jsonschema.Schema{
			reflect.TypeFor[latent.Value](): value,
			reflect.TypeFor[time.Time]():    {Type: "string", Format: "date-time"},
		},
	})
}
