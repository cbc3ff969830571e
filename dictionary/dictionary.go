// Package dictionary stores base word forms keyed by stem, each
// tagged with the affix classes that apply to it.
//
// A store has two layers: the base layer is built at load time and is
// immutable, the personal layer holds words added at runtime. Reads
// and writes may be issued concurrently, a reader sees either the
// pre-add or the post-add view of the personal layer.
package dictionary

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/ttab/stave/affix"
)

// ErrTooManyDictionaries is returned by AddDictionary when the limit
// of extra dictionaries has been reached.
var ErrTooManyDictionaries = errors.New("too many extra dictionaries")

// MaxExtraDictionaries caps the number of dictionaries that can be
// merged into a store after load.
const MaxExtraDictionaries = 20

// Entry is a base word form with its affix classes and morphological
// feature tags.
type Entry struct {
	Stem    string
	Classes []rune
	Tags    []string
}

// HasClass reports whether the entry belongs to the affix class flag.
func (e Entry) HasClass(flag rune) bool {
	return slices.Contains(e.Classes, flag)
}

// Store holds dictionary entries keyed by stem.
type Store struct {
	mu       sync.RWMutex
	base     map[string][]Entry
	extra    map[string][]Entry
	personal map[string]Entry
	order    []string
	extras   int
}

// Parse reads a dictionary source. The line grammar is an optional
// leading entry count followed by one entry per line:
//
//	stem/FLAGS tag ...
//
// The flags field and the whitespace-separated tags are both
// optional. The affix table interprets the flags field.
func Parse(name string, src []byte, tbl *affix.Table) (*Store, error) {
	s := Store{
		base:     make(map[string][]Entry),
		extra:    make(map[string][]Entry),
		personal: make(map[string]Entry),
	}

	err := parseInto(s.base, name, src, tbl)
	if err != nil {
		return nil, err
	}

	return &s, nil
}

func parseInto(
	dst map[string][]Entry, name string, src []byte, tbl *affix.Table,
) error {
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lineNo int

	for sc.Scan() {
		lineNo++

		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// The first non-empty line may be the entry count.
		if lineNo == 1 {
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
		}

		entry, err := parseEntry(line, tbl)
		if err != nil {
			return &affix.ParseError{
				Source: name,
				Line:   lineNo,
				Msg:    err.Error(),
			}
		}

		dst[entry.Stem] = append(dst[entry.Stem], entry)
	}

	if err := sc.Err(); err != nil {
		return fmt.Errorf("read dictionary source %q: %w", name, err)
	}

	return nil
}

func parseEntry(line string, tbl *affix.Table) (Entry, error) {
	fields := strings.Fields(line)

	word, flagField, hasFlags := strings.Cut(fields[0], "/")
	if word == "" {
		return Entry{}, errors.New("entry without a stem")
	}

	if hasFlags && flagField == "" {
		return Entry{}, fmt.Errorf("entry %q has an empty flag field", word)
	}

	e := Entry{Stem: word}

	if hasFlags {
		e.Classes = tbl.ParseFlags(flagField)
	}

	if len(fields) > 1 {
		e.Tags = fields[1:]
	}

	return e, nil
}

// Lookup returns the entries stored for a stem, from all layers.
// Absence is not an error, the result is simply empty.
func (s *Store) Lookup(stem string) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := s.base[stem]

	if extra, ok := s.extra[stem]; ok {
		entries = append(slices.Clip(entries), extra...)
	}

	if p, ok := s.personal[stem]; ok {
		entries = append(slices.Clip(entries), p)
	}

	return entries
}

// Contains reports whether any layer has an entry for the stem.
func (s *Store) Contains(stem string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.base[stem]; ok {
		return true
	}

	if _, ok := s.extra[stem]; ok {
		return true
	}

	_, ok := s.personal[stem]

	return ok
}

// AddWord inserts a word into the personal layer with the given affix
// classes. Adding a word that is already in the personal layer is a
// no-op, and the return value tells whether the store changed.
func (s *Store) AddWord(word string, classes []rune) bool {
	if word == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.personal[word]; ok {
		return false
	}

	s.personal[word] = Entry{
		Stem:    word,
		Classes: slices.Clone(classes),
	}
	s.order = append(s.order, word)

	return true
}

// RemoveWord removes a word from the personal layer. Base and extra
// entries are not removable.
func (s *Store) RemoveWord(word string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.personal[word]; !ok {
		return false
	}

	delete(s.personal, word)

	s.order = slices.DeleteFunc(s.order, func(w string) bool {
		return w == word
	})

	return true
}

// AddDictionary parses an extra dictionary source and merges its
// entries into the store. At most MaxExtraDictionaries sources can be
// added, further calls fail with ErrTooManyDictionaries.
func (s *Store) AddDictionary(name string, src []byte, tbl *affix.Table) error {
	parsed := make(map[string][]Entry)

	err := parseInto(parsed, name, src, tbl)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.extras >= MaxExtraDictionaries {
		return fmt.Errorf("%w: limit is %d",
			ErrTooManyDictionaries, MaxExtraDictionaries)
	}

	for stem, entries := range parsed {
		s.extra[stem] = append(s.extra[stem], entries...)
	}

	s.extras++

	return nil
}

// EntryCount returns the number of distinct stems across all layers.
func (s *Store) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.base)

	for stem := range s.extra {
		if _, ok := s.base[stem]; !ok {
			n++
		}
	}

	for stem := range s.personal {
		if _, ok := s.base[stem]; ok {
			continue
		}

		if _, ok := s.extra[stem]; ok {
			continue
		}

		n++
	}

	return n
}

// Clone duplicates the store. The immutable base layer is shared,
// the extra and personal layers are deep copied so that later
// mutations don't leak between the two stores.
func (s *Store) Clone() *Store {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := Store{
		base:     s.base,
		extra:    make(map[string][]Entry, len(s.extra)),
		personal: make(map[string]Entry, len(s.personal)),
		order:    slices.Clone(s.order),
		extras:   s.extras,
	}

	for stem, entries := range s.extra {
		clone.extra[stem] = slices.Clone(entries)
	}

	for stem, entry := range s.personal {
		clone.personal[stem] = entry
	}

	return &clone
}
