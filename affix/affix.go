// Package affix parses Hunspell-style affix files and applies the
// prefix and suffix rules they define.
//
// An affix class groups the rules declared under one flag. Rules are
// reversible: Apply derives a surface form from a stem, StripAffix
// recovers the stem candidate from a surface form. Both directions
// check the rule condition against the stem.
package affix

import (
	"strings"
)

// Kind tells whether a rule attaches at the start or the end of a stem.
type Kind int

const (
	Prefix Kind = iota
	Suffix
)

func (k Kind) String() string {
	if k == Prefix {
		return "prefix"
	}

	return "suffix"
}

// Rule is a single strip/append transformation with a condition that
// the stem must satisfy.
type Rule struct {
	Flag         rune
	Kind         Kind
	Strip        string
	Append       string
	CrossProduct bool

	cond condition
}

// Condition returns the source form of the rule condition.
func (r Rule) Condition() string {
	return r.cond.source
}

// Apply derives the surface form of stem under the rule. It returns
// false if the condition fails or the stem doesn't carry the strip
// part at the affix position.
func (r Rule) Apply(stem string) (string, bool) {
	runes := []rune(stem)

	if !r.cond.match(runes, r.Kind) {
		return "", false
	}

	switch r.Kind {
	case Suffix:
		if !strings.HasSuffix(stem, r.Strip) {
			return "", false
		}

		return stem[:len(stem)-len(r.Strip)] + r.Append, true
	case Prefix:
		if !strings.HasPrefix(stem, r.Strip) {
			return "", false
		}

		return r.Append + stem[len(r.Strip):], true
	}

	return "", false
}

// StripAffix is the inverse of Apply: it removes the appended part
// from word, restores the stripped part, and verifies that the
// reconstructed stem satisfies the rule condition. It returns false
// when the word cannot have been produced by this rule.
func (r Rule) StripAffix(word string) (string, bool) {
	if r.Append == "" && r.Strip == "" && r.cond.always() {
		// Identity rule, the word is its own stem.
		return word, true
	}

	var stem string

	switch r.Kind {
	case Suffix:
		if r.Append != "" && !strings.HasSuffix(word, r.Append) {
			return "", false
		}

		stem = word[:len(word)-len(r.Append)] + r.Strip
	case Prefix:
		if r.Append != "" && !strings.HasPrefix(word, r.Append) {
			return "", false
		}

		stem = r.Strip + word[len(r.Append):]
	}

	if stem == "" {
		return "", false
	}

	if !r.cond.match([]rune(stem), r.Kind) {
		return "", false
	}

	return stem, true
}

// Class is the ordered set of rules declared under one flag.
type Class struct {
	Flag         rune
	Kind         Kind
	CrossProduct bool
	Rules        []Rule
}

// Table holds the parsed contents of an affix file.
type Table struct {
	name      string
	encoding  string
	try       string
	wordChars string
	keyRows   []string

	classes  map[rune]*Class
	prefixes []Rule
	suffixes []Rule
}

// Name returns the source name the table was parsed from.
func (t *Table) Name() string {
	return t.name
}

// Encoding returns the character encoding the source declared,
// defaulting to UTF-8.
func (t *Table) Encoding() string {
	return t.encoding
}

// TryChars returns the characters of the TRY directive in declared
// order. Suggestion generation uses them as the insertion and
// substitution alphabet.
func (t *Table) TryChars() string {
	return t.try
}

// WordChars returns the extra word characters declared by WORDCHARS.
func (t *Table) WordChars() string {
	return t.wordChars
}

// KeyRows returns the keyboard rows of the KEY directive, or nil if
// the source didn't declare one.
func (t *Table) KeyRows() []string {
	return t.keyRows
}

// Class looks up the affix class for a flag.
func (t *Table) Class(flag rune) (*Class, bool) {
	c, ok := t.classes[flag]

	return c, ok
}

// Rules returns the ordered rules of the class for flag, or nil when
// the flag names no class.
func (t *Table) Rules(flag rune) []Rule {
	c, ok := t.classes[flag]
	if !ok {
		return nil
	}

	return c.Rules
}

// Prefixes returns all prefix rules in declaration order.
func (t *Table) Prefixes() []Rule {
	return t.prefixes
}

// Suffixes returns all suffix rules in declaration order.
func (t *Table) Suffixes() []Rule {
	return t.suffixes
}

// ParseFlags interprets the flag field of a dictionary entry as a
// sequence of single-character flags.
func (t *Table) ParseFlags(s string) []rune {
	return []rune(s)
}
