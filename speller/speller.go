// Package speller implements affix-rule-driven spell checking,
// stemming, morphological analysis and suggestion ranking on top of
// an affix table and a dictionary store.
package speller

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/ttab/stave/affix"
	"github.com/ttab/stave/dictionary"
)

// ErrNotLoaded is returned when a query is issued against a checker
// that wasn't constructed with New or NewFromSources.
var ErrNotLoaded = errors.New("spell checker not loaded")

// LoadError wraps a failure to read or parse a dictionary or affix
// source at construction time.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

const defaultMaxSuggestions = 15

type options struct {
	maxSuggestions int
	caseFolding    bool
}

// Option configures a SpellChecker.
type Option func(*options)

// WithMaxSuggestions caps the number of suggestions Suggest returns.
func WithMaxSuggestions(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSuggestions = n
		}
	}
}

// WithCaseFolding makes Check try the all-lowercase form of every
// word, not just of title-case and all-caps words. Capitalized
// dictionary entries still only match capitalized surface forms.
func WithCaseFolding() Option {
	return func(o *options) {
		o.caseFolding = true
	}
}

// SpellChecker checks, analyzes, stems and corrects words against a
// loaded affix table and dictionary.
//
// All query methods are safe for concurrent use. AddWord and the
// other mutating methods may be called concurrently with queries, a
// query in flight sees either the old or the new dictionary state.
type SpellChecker struct {
	table *affix.Table
	store *dictionary.Store
	kb    *keyboard
	opts  options
}

// New opens a spell checking dictionary from a Hunspell-style affix
// file and dictionary file. Failures are reported as a *LoadError,
// with *affix.ParseError or *affix.EncodingError as the cause where
// the source itself is at fault.
func New(affixPath, dictPath string, opts ...Option) (*SpellChecker, error) {
	affixSrc, err := os.ReadFile(affixPath)
	if err != nil {
		return nil, &LoadError{Source: affixPath, Err: err}
	}

	dictSrc, err := os.ReadFile(dictPath)
	if err != nil {
		return nil, &LoadError{Source: dictPath, Err: err}
	}

	return NewFromSources(affixPath, affixSrc, dictPath, dictSrc, opts...)
}

// NewFromSources builds a checker from in-memory affix and dictionary
// sources. The names are used in error messages.
func NewFromSources(
	affixName string, affixSrc []byte,
	dictName string, dictSrc []byte,
	opts ...Option,
) (*SpellChecker, error) {
	table, err := affix.Parse(affixName, affixSrc)
	if err != nil {
		return nil, &LoadError{Source: affixName, Err: err}
	}

	store, err := dictionary.Parse(dictName, dictSrc, table)
	if err != nil {
		return nil, &LoadError{Source: dictName, Err: err}
	}

	c := SpellChecker{
		table: table,
		store: store,
		kb:    newKeyboard(table.KeyRows()),
		opts: options{
			maxSuggestions: defaultMaxSuggestions,
		},
	}

	for _, opt := range opts {
		opt(&c.opts)
	}

	return &c, nil
}

func (c *SpellChecker) loaded() error {
	if c == nil || c.table == nil || c.store == nil {
		return ErrNotLoaded
	}

	return nil
}

// Check reports whether the word is spelled correctly. Unknown words,
// empty input and words with unexpected characters all yield false,
// never an error.
func (c *SpellChecker) Check(word string) (bool, error) {
	if err := c.loaded(); err != nil {
		return false, err
	}

	return c.check(word), nil
}

// Analyze returns the derivations of the word from dictionary stems,
// as a finite lazy sequence. An unknown or empty word yields an empty
// sequence.
func (c *SpellChecker) Analyze(word string) (iter.Seq[Analysis], error) {
	if err := c.loaded(); err != nil {
		return nil, err
	}

	return c.analyses(word), nil
}

// Stem returns the deduplicated stems of the word's analyses, in
// discovery order. The capitalization policy of Check applies.
func (c *SpellChecker) Stem(word string) ([]string, error) {
	if err := c.loaded(); err != nil {
		return nil, err
	}

	return c.stems(word), nil
}

// Suggest returns ranked correction candidates for a misspelled
// word. Every returned candidate is itself accepted by Check. An
// empty result is a normal outcome for hopeless input.
func (c *SpellChecker) Suggest(word string) ([]string, error) {
	if err := c.loaded(); err != nil {
		return nil, err
	}

	return c.suggestions(word), nil
}

// AddWord adds a word to the personal dictionary with no affix
// classes. Adding a word twice is a no-op.
func (c *SpellChecker) AddWord(word string) error {
	if err := c.loaded(); err != nil {
		return err
	}

	c.store.AddWord(word, nil)

	return nil
}

// AddWordWithAffix adds a word to the personal dictionary using the
// example word as the model for its affixation: the new word gets the
// affix classes of the example's dictionary entries.
func (c *SpellChecker) AddWordWithAffix(word, example string) error {
	if err := c.loaded(); err != nil {
		return err
	}

	classes := c.exampleClasses(example)
	if classes == nil {
		return fmt.Errorf("no dictionary entry for example word %q", example)
	}

	c.store.AddWord(word, classes)

	return nil
}

// RemoveWord removes a word added with AddWord or AddWordWithAffix.
func (c *SpellChecker) RemoveWord(word string) error {
	if err := c.loaded(); err != nil {
		return err
	}

	c.store.RemoveWord(word)

	return nil
}

// AddDictionary merges an extra dictionary file into the checker. The
// extra dictionary uses the checker's affix table. At most
// dictionary.MaxExtraDictionaries can be added.
func (c *SpellChecker) AddDictionary(dictPath string) error {
	if err := c.loaded(); err != nil {
		return err
	}

	src, err := os.ReadFile(dictPath)
	if err != nil {
		return &LoadError{Source: dictPath, Err: err}
	}

	err = c.store.AddDictionary(dictPath, src, c.table)
	if err != nil {
		if errors.Is(err, dictionary.ErrTooManyDictionaries) {
			return err
		}

		return &LoadError{Source: dictPath, Err: err}
	}

	return nil
}

// SavePersonal serializes the runtime-added words.
func (c *SpellChecker) SavePersonal(w io.Writer) error {
	if err := c.loaded(); err != nil {
		return err
	}

	return c.store.SavePersonal(w)
}

// LoadPersonal restores words serialized with SavePersonal.
func (c *SpellChecker) LoadPersonal(r io.Reader) error {
	if err := c.loaded(); err != nil {
		return err
	}

	return c.store.LoadPersonal(r)
}

// Clone duplicates the checker. The affix table is immutable and gets
// shared, the dictionary's mutable layers are deep copied, so words
// added to the clone don't affect the original.
func (c *SpellChecker) Clone() *SpellChecker {
	if c.loaded() != nil {
		return &SpellChecker{}
	}

	clone := *c
	clone.store = c.store.Clone()

	return &clone
}
