// Package label infers instrument labels from free-text sound names.
package label

import "strings"

// DefaultInstruments is the canonical instrument vocabulary.
var DefaultInstruments = []string{
	"Clarinet",
	"Sax Alto",
	"Flute",
	"Violin",
	"Trumpet",
	"Cello",
	"Sax Tenor",
	"Piccolo",
	"Sax Soprano",
	"Sax Baritone",
	"Oboe",
	"Double Bass",
}

// Vocabulary is an ordered, immutable set of instrument names.
type Vocabulary struct {
	names []string
	lower []string
}

// NewVocabulary copies names into a Vocabulary. Order is preserved.
func NewVocabulary(names []string) Vocabulary {
	v := Vocabulary{
		names: make([]string, len(names)),
		lower: make([]string, len(names)),
	}
	for i, n := range names {
		v.names[i] = n
		v.lower[i] = strings.ToLower(n)
	}
	return v
}

// Default returns the vocabulary built from DefaultInstruments.
func Default() Vocabulary {
	return NewVocabulary(DefaultInstruments)
}

// Names returns a copy of the canonical names.
func (v Vocabulary) Names() []string {
	out := make([]string, len(v.names))
	copy(out, v.names)
	return out
}

// Len returns the number of entries.
func (v Vocabulary) Len() int {
	return len(v.names)
}

// Matcher matches sound names against a Vocabulary.
type Matcher struct {
	vocab Vocabulary
}

// NewMatcher creates a Matcher for vocab.
func NewMatcher(vocab Vocabulary) *Matcher {
	return &Matcher{vocab: vocab}
}

// Matches returns every lower-cased vocabulary entry contained in target,
// compared case-insensitively, in vocabulary order.
func (m *Matcher) Matches(target string) []string {
	t := strings.ToLower(target)
	var found []string
	for _, entry := range m.vocab.lower {
		if strings.Contains(t, entry) {
			found = append(found, entry)
		}
	}
	return found
}

// Match returns the single matching entry, or "" when zero or several match.
func (m *Matcher) Match(target string) string {
	found := m.Matches(target)
	if len(found) != 1 {
		return ""
	}
	return found[0]
}
