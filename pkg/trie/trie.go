// Package trie provides a generic word trie for phrase lookup.
//
// Keys are sequences of words: "sea lion" is stored as ["sea", "lion"].
// Besides exact lookup, the trie answers the question "what is the longest
// stored phrase at the start of this word sequence", which is how prompts
// are scanned for multi-word keywords.
package trie

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptyKey is returned when a key has no words.
var ErrEmptyKey = errors.New("trie: empty key")

// Trie stores values of type T under word sequences.
type Trie[T any] struct {
	children map[string]*Trie[T]
	set      bool
	value    T
}

// New creates a new empty Trie.
func New[T any]() *Trie[T] {
	return &Trie[T]{}
}

// Split breaks a phrase into the words used as a trie key.
func Split(phrase string) []string {
	return strings.Fields(phrase)
}

// Set stores a value under key using setFunc. setFunc receives a pointer to
// the stored value and whether a value already existed, so callers can merge
// instead of overwrite.
func (t *Trie[T]) Set(key []string, setFunc func(ptr *T, existed bool) error) error {
	if len(key) == 0 {
		return ErrEmptyKey
	}
	node := t
	for _, w := range key {
		if node.children == nil {
			node.children = make(map[string]*Trie[T])
		}
		ch, ok := node.children[w]
		if !ok {
			ch = &Trie[T]{}
			node.children[w] = ch
		}
		node = ch
	}
	if err := setFunc(&node.value, node.set); err != nil {
		return err
	}
	node.set = true
	return nil
}

// SetValue stores value under key, replacing any existing value.
func (t *Trie[T]) SetValue(key []string, value T) error {
	return t.Set(key, func(ptr *T, _ bool) error {
		*ptr = value
		return nil
	})
}

// Get returns a pointer to the value stored under exactly key.
func (t *Trie[T]) Get(key []string) (*T, bool) {
	node := t.find(key)
	if node == nil || !node.set {
		return nil, false
	}
	return &node.value, true
}

// GetValue returns the value stored under exactly key.
func (t *Trie[T]) GetValue(key []string) (T, bool) {
	ptr, ok := t.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	return *ptr, true
}

func (t *Trie[T]) find(key []string) *Trie[T] {
	if len(key) == 0 {
		return nil
	}
	node := t
	for _, w := range key {
		ch, ok := node.children[w]
		if !ok {
			return nil
		}
		node = ch
	}
	return node
}

// Longest returns the longest stored key that is a prefix of words. n is the
// number of words it spans; ok is false when no prefix of words is stored.
func (t *Trie[T]) Longest(words []string) (n int, value *T, ok bool) {
	node := t
	for i, w := range words {
		ch, found := node.children[w]
		if !found {
			break
		}
		node = ch
		if node.set {
			n, value, ok = i+1, &node.value, true
		}
	}
	return n, value, ok
}

// Walk calls f for each node in the trie, including intermediate nodes
// without a value.
func (t *Trie[T]) Walk(f func(key []string, value T, set bool)) {
	t.walk(nil, f)
}

func (t *Trie[T]) walk(key []string, f func([]string, T, bool)) {
	for w, ch := range t.children {
		ch.walk(append(key[:len(key):len(key)], w), f)
	}
	if len(key) > 0 {
		f(key, t.value, t.set)
	}
}

// String returns one "phrase: value" line per stored key, sorted.
func (t *Trie[T]) String() string {
	var lines []string
	t.Walk(func(key []string, value T, set bool) {
		if set {
			lines = append(lines, fmt.Sprintf("%s: %v", strings.Join(key, " "), value))
		}
	})
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

// Len returns the number of values stored in the trie.
func (t *Trie[T]) Len() int {
	count := 0
	t.Walk(func(_ []string, _ T, set bool) {
		if set {
			count++
		}
	})
	return count
}
