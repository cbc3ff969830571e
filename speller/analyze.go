package speller

import (
	"iter"
	"slices"
	"strings"
	"unicode"

	"github.com/ttab/stave/affix"
)

// Analysis is a witness explaining how a surface word derives from a
// dictionary stem via zero or more affix rules.
type Analysis struct {
	Stem    string
	Rules   []affix.Rule
	Surface string
}

// String renders the derivation, e.g. "cats = cat +S(s)".
func (a Analysis) String() string {
	var sb strings.Builder

	sb.WriteString(a.Surface)
	sb.WriteString(" = ")
	sb.WriteString(a.Stem)

	for _, r := range a.Rules {
		sb.WriteString(" +")
		sb.WriteRune(r.Flag)
		sb.WriteString("(")
		sb.WriteString(r.Append)
		sb.WriteString(")")
	}

	return sb.String()
}

// analyses yields every derivation of the surface word, bounded to a
// depth of two rule applications: one prefix and one suffix at most,
// combined only when both classes allow cross products.
func (c *SpellChecker) analyses(word string) iter.Seq[Analysis] {
	return func(yield func(Analysis) bool) {
		if word == "" {
			return
		}

		// Direct stem lookup.
		if c.store.Contains(word) {
			if !yield(Analysis{Stem: word, Surface: word}) {
				return
			}
		}

		// Single suffix.
		for _, r := range c.table.Suffixes() {
			stem, ok := r.StripAffix(word)
			if !ok || !c.stemInClass(stem, r.Flag) {
				continue
			}

			if !yield(Analysis{
				Stem:    stem,
				Rules:   []affix.Rule{r},
				Surface: word,
			}) {
				return
			}
		}

		// Single prefix.
		for _, r := range c.table.Prefixes() {
			stem, ok := r.StripAffix(word)
			if !ok || !c.stemInClass(stem, r.Flag) {
				continue
			}

			if !yield(Analysis{
				Stem:    stem,
				Rules:   []affix.Rule{r},
				Surface: word,
			}) {
				return
			}
		}

		// Prefix and suffix cross product.
		for _, p := range c.table.Prefixes() {
			if !p.CrossProduct {
				continue
			}

			mid, ok := p.StripAffix(word)
			if !ok {
				continue
			}

			for _, s := range c.table.Suffixes() {
				if !s.CrossProduct {
					continue
				}

				stem, ok := s.StripAffix(mid)
				if !ok || !c.stemInClasses(stem, p.Flag, s.Flag) {
					continue
				}

				if !yield(Analysis{
					Stem:    stem,
					Rules:   []affix.Rule{p, s},
					Surface: word,
				}) {
					return
				}
			}
		}
	}
}

func (c *SpellChecker) stemInClass(stem string, flag rune) bool {
	for _, e := range c.store.Lookup(stem) {
		if e.HasClass(flag) {
			return true
		}
	}

	return false
}

func (c *SpellChecker) stemInClasses(stem string, flags ...rune) bool {
	for _, e := range c.store.Lookup(stem) {
		all := true

		for _, f := range flags {
			if !e.HasClass(f) {
				all = false

				break
			}
		}

		if all {
			return true
		}
	}

	return false
}

func (c *SpellChecker) derivable(word string) bool {
	for range c.analyses(word) {
		return true
	}

	return false
}

// check applies the capitalization policy: the exact form is tried
// first, then the all-lowercase transform for title-case and all-caps
// words. A capitalized dictionary entry never matches a lowercase
// surface word.
func (c *SpellChecker) check(word string) bool {
	if word == "" {
		return false
	}

	if c.derivable(word) {
		return true
	}

	lower, ok := c.caseVariant(word)
	if !ok {
		return false
	}

	return c.derivable(lower)
}

// caseVariant returns the lowercase form to fall back to, if the
// capitalization policy permits one for this word.
func (c *SpellChecker) caseVariant(word string) (string, bool) {
	lower := strings.ToLower(word)
	if lower == word {
		return "", false
	}

	if c.opts.caseFolding {
		return lower, true
	}

	if isTitleCase(word) || isAllCaps(word) {
		return lower, true
	}

	return "", false
}

func isTitleCase(word string) bool {
	for i, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}

		upper := unicode.IsUpper(r)

		if i == 0 && !upper {
			return false
		}

		if i > 0 && upper {
			return false
		}
	}

	return true
}

func isAllCaps(word string) bool {
	hasLetter := false

	for _, r := range word {
		if !unicode.IsLetter(r) {
			continue
		}

		hasLetter = true

		if !unicode.IsUpper(r) {
			return false
		}
	}

	return hasLetter
}

// stems collects the deduplicated stems of the word's analyses in
// discovery order, falling back to the lowercase form under the same
// policy as check.
func (c *SpellChecker) stems(word string) []string {
	found := c.collectStems(word)

	if len(found) == 0 {
		if lower, ok := c.caseVariant(word); ok {
			found = c.collectStems(lower)
		}
	}

	return found
}

func (c *SpellChecker) collectStems(word string) []string {
	var found []string

	for a := range c.analyses(word) {
		if !slices.Contains(found, a.Stem) {
			found = append(found, a.Stem)
		}
	}

	return found
}

// exampleClasses resolves the affix classes to model a new word on:
// the union of the classes of the example's entries, analyzing the
// example down to its stems when it isn't a stem itself.
func (c *SpellChecker) exampleClasses(example string) []rune {
	var classes []rune

	seen := map[string]bool{}

	for a := range c.analyses(example) {
		if seen[a.Stem] {
			continue
		}

		seen[a.Stem] = true

		for _, e := range c.store.Lookup(a.Stem) {
			for _, f := range e.Classes {
				if !slices.Contains(classes, f) {
					classes = append(classes, f)
				}
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	if classes == nil {
		// The example exists but carries no classes. Still a
		// valid model, the new word just won't inflect.
		classes = []rune{}
	}

	return classes
}

// Generate produces surface forms of word shaped like the example:
// for each derivation of the example, the same rules are applied to
// word. Returns nil when the example has no analysis or no rule
// transfers.
func (c *SpellChecker) Generate(word, example string) ([]string, error) {
	if err := c.loaded(); err != nil {
		return nil, err
	}

	var forms []string

	for a := range c.analyses(example) {
		if len(a.Rules) == 0 {
			continue
		}

		form := word
		ok := true

		for _, r := range a.Rules {
			form, ok = r.Apply(form)
			if !ok {
				break
			}
		}

		if ok && !slices.Contains(forms, form) {
			forms = append(forms, form)
		}
	}

	return forms, nil
}
