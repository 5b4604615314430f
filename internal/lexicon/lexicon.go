// Package lexicon holds the legal trigger words that start a legal reference.
package lexicon

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Category is the coarse class of a legal reference
type Category string

const (
	CategoryLaw  Category = "LAW"
	CategoryNorm Category = "NORM"
)

// ParseCategory validates a category name (case-insensitive)
func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryLaw:
		return CategoryLaw, nil
	case CategoryNorm:
		return CategoryNorm, nil
	default:
		return "", fmt.Errorf("unknown lexicon category: %q (supported: LAW, NORM)", s)
	}
}

var defaultEntries = map[string]Category{
	"ley":            CategoryLaw,
	"artículo":       CategoryLaw,
	"código":         CategoryLaw,
	"decreto":        CategoryLaw,
	"resolución":     CategoryLaw,
	"sentencia":      CategoryLaw,
	"jurisprudencia": CategoryLaw,
	"norma":          CategoryNorm,
	"regulación":     CategoryNorm,
	"reglamento":     CategoryNorm,
	"estatuto":       CategoryNorm,
}

var connectors = map[string]bool{
	"de":  true,
	"del": true,
	"y":   true,
	",":   true,
}

// Lexicon maps lowercase trigger words to categories. It is immutable after construction.
type Lexicon struct {
	entries map[string]Category
}

// Entry is a single trigger word and its category
type Entry struct {
	Trigger  string   `yaml:"trigger"`
	Category Category `yaml:"category"`
}

// Default returns the built-in Spanish legal lexicon
func Default() *Lexicon {
	lx, _ := New(nil)
	return lx
}

// New returns the built-in lexicon extended with extra trigger -> category entries
func New(extra map[string]string) (*Lexicon, error) {
	lx := &Lexicon{
		entries: make(map[string]Category, len(defaultEntries)+len(extra)),
	}
	for k, v := range defaultEntries {
		lx.entries[k] = v
	}
	for k, v := range extra {
		cat, err := ParseCategory(v)
		if err != nil {
			return nil, fmt.Errorf("lexicon entry %q: %w", k, err)
		}
		key := lx.Key(k)
		if key == "" {
			return nil, fmt.Errorf("lexicon entry has empty trigger")
		}
		lx.entries[key] = cat
	}
	return lx, nil
}

// Key returns the lookup form of a token: NFC-normalized lowercase text.
// A Caser is stateful, so one is built per call.
func (l *Lexicon) Key(text string) string {
	return norm.NFC.String(cases.Lower(language.Spanish).String(strings.TrimSpace(text)))
}

// Lookup reports the category of a token text, matching case-insensitively
func (l *Lexicon) Lookup(text string) (Category, bool) {
	entry, ok := l.Match(text)
	return entry.Category, ok
}

// Match is Lookup that also returns the normalized trigger
func (l *Lexicon) Match(text string) (Entry, bool) {
	key := l.Key(text)
	cat, ok := l.entries[key]
	if !ok {
		return Entry{}, false
	}
	return Entry{Trigger: key, Category: cat}, true
}

// IsConnector reports whether a token text may continue a legal reference
func (l *Lexicon) IsConnector(text string) bool {
	return connectors[l.Key(text)]
}

// Len returns the number of trigger words
func (l *Lexicon) Len() int {
	return len(l.entries)
}

// Entries returns a sorted copy of the table
func (l *Lexicon) Entries() []Entry {
	out := make([]Entry, 0, len(l.entries))
	for k, v := range l.entries {
		out = append(out, Entry{Trigger: k, Category: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Trigger < out[j].Trigger
	})
	return out
}
