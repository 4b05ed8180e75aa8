package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"

	_ "embed"
)

//go:embed vocabulary.yaml
var defaultVocabulary []byte

// ErrInvalidVocabulary is returned for vocabulary files that do not map
// keywords to category lists.
var ErrInvalidVocabulary = errors.New("scene: invalid vocabulary")

// Vocabulary maps prompt keywords to the categories they evoke, in blend
// order. A keyword containing spaces is a phrase.
type Vocabulary map[string][]string

// DefaultVocabulary returns a fresh copy of the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	v, err := ParseVocabulary(defaultVocabulary)
	if err != nil {
		panic(fmt.Sprintf("scene: embedded vocabulary: %v", err))
	}
	return v
}

// ParseVocabulary decodes a YAML or JSON keyword map. Keywords are
// lowercased and their inner whitespace collapsed.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidVocabulary, err)
	}
	v := make(Vocabulary, len(raw))
	for k, cats := range raw {
		if err := v.add(k, cats); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (v Vocabulary) add(keyword string, cats []string) error {
	key := normalizeKeyword(keyword)
	if key == "" {
		return fmt.Errorf("%w: empty keyword", ErrInvalidVocabulary)
	}
	if len(cats) == 0 {
		return fmt.Errorf("%w: keyword %q has no categories", ErrInvalidVocabulary, keyword)
	}
	for _, c := range cats {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("%w: keyword %q has an empty category", ErrInvalidVocabulary, keyword)
		}
	}
	v[key] = slices.Clone(cats)
	return nil
}

// Merge returns a vocabulary holding v's keywords overridden by other's.
func (v Vocabulary) Merge(other Vocabulary) Vocabulary {
	out := make(Vocabulary, len(v)+len(other))
	for k, cats := range v {
		out[k] = slices.Clone(cats)
	}
	for k, cats := range other {
		if key := normalizeKeyword(k); key != "" && len(cats) > 0 {
			out[key] = slices.Clone(cats)
		}
	}
	return out
}

// Keywords returns the sorted keyword list.
func (v Vocabulary) Keywords() []string {
	return slices.Sorted(maps.Keys(v))
}

// Lookup returns the categories for a keyword or phrase.
func (v Vocabulary) Lookup(keyword string) ([]string, bool) {
	cats, ok := v[normalizeKeyword(keyword)]
	return cats, ok
}

// Categories returns every category the vocabulary can produce, sorted.
func (v Vocabulary) Categories() []string {
	seen := make(map[string]struct{})
	for _, cats := range v {
		for _, c := range cats {
			seen[c] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
