// Package scene learns per-category sound prototypes and composes
// soundscapes from free-text prompts.
//
// A prototype is the [latent.Average] of the descriptors of every clip in a
// category. Categories are laid out on disk as tier folders holding one
// subdirectory per category:
//
//	root/
//	  Tier_1/forest_ambience/*.wav
//	  Tier_2/bird_chirp/*.wav
//	  Tier_3/...
//
// An [Engine] learns prototypes into a [kv.Store] through a [Library],
// selects categories for a prompt with a [Matcher], and blends their
// prototypes into a [Soundscape].
package scene

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/equivocal/pkg/latent"
)

var (
	// ErrUnknownSound is returned when a named prototype is not stored.
	ErrUnknownSound = errors.New("scene: unknown sound")

	// ErrUnknownScene is returned when a soundscape ID is not stored.
	ErrUnknownScene = errors.New("scene: unknown soundscape")

	// ErrInvalidName is returned for empty sound names or names containing
	// a slash.
	ErrInvalidName = errors.New("scene: invalid sound name")
)

// Tier is one level of the training folder layout.
type Tier struct {
	// Dir is the folder name under the training root, e.g. "Tier_1".
	Dir string `json:"dir" yaml:"dir"`

	// Name describes the role of the tier's sounds.
	Name string `json:"name" yaml:"name"`
}

// DefaultTiers returns the standard three-tier layout.
func DefaultTiers() []Tier {
	return []Tier{
		{Dir: "Tier_1", Name: "base layers"},
		{Dir: "Tier_2", Name: "distinctive events"},
		{Dir: "Tier_3", Name: "texture"},
	}
}

// Prototype is the averaged descriptor map of one sound category.
type Prototype struct {
	Name      string     `json:"name" msgpack:"name"`
	Tier      string     `json:"tier,omitempty" msgpack:"tier,omitempty"`
	Samples   int        `json:"samples" msgpack:"samples"`
	Latent    latent.Map `json:"latent" msgpack:"latent"`
	Sources   []string   `json:"sources,omitempty" msgpack:"sources,omitempty"`
	LearnedAt time.Time  `json:"learned_at" msgpack:"learned_at"`
}

// Soundscape is a blend of prototypes.
type Soundscape struct {
	ID         uuid.UUID   `json:"id" msgpack:"id"`
	Prompt     string      `json:"prompt,omitempty" msgpack:"prompt,omitempty"`
	Components []Component `json:"components" msgpack:"components"`
	// Weights is aligned with Components.
	Weights   []float64  `json:"weights" msgpack:"weights"`
	Latent    latent.Map `json:"latent" msgpack:"latent"`
	CreatedAt time.Time  `json:"created_at" msgpack:"created_at"`
}

// Categories returns the component categories in blend order.
func (s *Soundscape) Categories() []string {
	out := make([]string, len(s.Components))
	for i, c := range s.Components {
		out[i] = c.Category
	}
	return out
}

// SkippedFile records a training file that could not be analysed.
type SkippedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report summarizes a Learn run.
type Report struct {
	// Learned lists the stored prototypes in training order.
	Learned []*Prototype `json:"learned"`

	// Skipped lists files that failed to load or analyse.
	Skipped []SkippedFile `json:"skipped,omitempty"`

	// MissingTiers lists tier folders absent from the training root.
	MissingTiers []string `json:"missing_tiers,omitempty"`

	Elapsed time.Duration `json:"elapsed"`
}

// Neighbor is a prototype close to a query map.
type Neighbor struct {
	Name string `json:"name"`

	// Distance is the cosine distance in standardized descriptor space,
	// in [0, 2].
	Distance float32 `json:"distance"`

	// Similarity is 1 - Distance.
	Similarity float32 `json:"similarity"`
}
