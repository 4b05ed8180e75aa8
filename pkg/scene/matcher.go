package scene

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/haivivi/equivocal/pkg/trie"
)

// ErrNoMatch is returned when a prompt selects none of the available sounds.
var ErrNoMatch = errors.New("scene: no sounds match the prompt")

// minSubstringLen is the shortest word that may match category names by
// substring.
const minSubstringLen = 3

// Component is one category selected by a prompt.
type Component struct {
	Category string   `json:"category" yaml:"category" msgpack:"category"`
	Triggers []string `json:"triggers" yaml:"triggers" msgpack:"triggers"`
}

// Matcher selects categories for free-text prompts.
type Matcher struct {
	vocab   Vocabulary
	phrases *trie.Trie[[]string]
}

// NewMatcher builds a matcher over v. A nil v uses the default vocabulary.
func NewMatcher(v Vocabulary) *Matcher {
	if v == nil {
		v = DefaultVocabulary()
	}
	t := trie.New[[]string]()
	for k, cats := range v {
		// Keys are normalized, so Split cannot return an empty key.
		_ = t.SetValue(trie.Split(k), cats)
	}
	return &Matcher{vocab: v, phrases: t}
}

// Vocabulary returns the vocabulary the matcher was built from.
func (m *Matcher) Vocabulary() Vocabulary {
	return m.vocab
}

// Match returns the available categories selected by prompt, in the order
// they were first triggered.
//
// Each word, or the longest vocabulary phrase starting at it, contributes
// the categories it maps to, followed by every available category whose
// name contains the word.
func (m *Matcher) Match(prompt string, available []string) ([]Component, error) {
	words := Tokenize(prompt)
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}

	var (
		out   []Component
		index = make(map[string]int)
	)
	add := func(category, trigger string) {
		i, ok := index[category]
		if !ok {
			index[category] = len(out)
			out = append(out, Component{Category: category, Triggers: []string{trigger}})
			return
		}
		if !slices.Contains(out[i].Triggers, trigger) {
			out[i].Triggers = append(out[i].Triggers, trigger)
		}
	}

	for i := 0; i < len(words); {
		n, cats, ok := m.phrases.Longest(words[i:])
		if !ok {
			n = 1
		}
		span := words[i : i+n]
		trigger := strings.Join(span, " ")
		if ok {
			for _, c := range *cats {
				if have[c] {
					add(c, trigger)
				}
			}
		}
		for _, w := range span {
			if len(w) < minSubstringLen {
				continue
			}
			for _, name := range available {
				if strings.Contains(name, w) {
					add(name, trigger)
				}
			}
		}
		i += n
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatch, prompt)
	}
	return out, nil
}

// Suggest returns up to n vocabulary keywords that lead to at least one
// available category, sorted.
func (m *Matcher) Suggest(available []string, n int) []string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	var out []string
	for _, k := range m.vocab.Keywords() {
		if n > 0 && len(out) == n {
			break
		}
		if slices.ContainsFunc(m.vocab[k], func(c string) bool { return have[c] }) {
			out = append(out, k)
		}
	}
	return out
}

// Tokenize lowercases a prompt, splits it on whitespace and trims
// punctuation from each word. Inner hyphens and apostrophes are kept.
func Tokenize(prompt string) []string {
	fields := strings.Fields(strings.ToLower(prompt))
	words := fields[:0]
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}
