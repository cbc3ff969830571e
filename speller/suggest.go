package speller

import (
	"cmp"
	"slices"
	"strings"
	"unicode"
)

// Strategy base scores. Lower scores rank first. Keyboard-adjacent
// substitutions are scaled by the actual key distance so that a
// neighbouring key beats a diagonal one.
const (
	scoreSubstitution = 0.5
	scoreTranspose    = 0.8
	scoreInsertDelete = 1.0
	scoreSplit        = 1.2
)

type candidate struct {
	word  string
	score float64
}

// suggestions generates and ranks correction candidates for a word
// that fails check. Strategies run in fixed priority order and stop
// once the cap is reached. Every candidate is validated with check
// before it is scored.
func (c *SpellChecker) suggestions(word string) []string {
	if word == "" {
		return nil
	}

	limit := c.opts.maxSuggestions

	var found []candidate

	seen := map[string]bool{word: true}

	consider := func(w string, score float64) bool {
		if seen[w] {
			return len(found) >= limit
		}

		seen[w] = true

		if c.check(w) {
			found = append(found, candidate{word: w, score: score})
		}

		return len(found) >= limit
	}

	runes := []rune(word)

	// Keyboard-adjacent substitutions.
full:
	for i, orig := range runes {
		for _, adj := range c.kb.neighbors(orig) {
			if matchCase(orig, adj) == orig {
				continue
			}

			sub := make([]rune, len(runes))
			copy(sub, runes)
			sub[i] = matchCase(orig, adj)

			d := c.kb.distance(orig, adj)

			if consider(string(sub), scoreSubstitution*d) {
				break full
			}
		}
	}

	// Adjacent transpositions.
	if len(found) < limit {
		for i := 0; i+1 < len(runes); i++ {
			if runes[i] == runes[i+1] {
				continue
			}

			swapped := make([]rune, len(runes))
			copy(swapped, runes)
			swapped[i], swapped[i+1] = swapped[i+1], swapped[i]

			if consider(string(swapped), scoreTranspose) {
				break
			}
		}
	}

	// Insertions and deletions.
	if len(found) < limit {
		c.editCandidates(runes, consider)
	}

	// Two-word splits.
	if len(found) < limit {
		for i := 1; i < len(runes); i++ {
			left := string(runes[:i])
			right := string(runes[i:])

			if !c.check(left) || !c.check(right) {
				continue
			}

			split := left + " " + right
			if seen[split] {
				continue
			}

			seen[split] = true
			found = append(found, candidate{word: split, score: scoreSplit})

			if len(found) >= limit {
				break
			}
		}
	}

	if len(found) == 0 {
		return nil
	}

	slices.SortStableFunc(found, func(a, b candidate) int {
		if n := cmp.Compare(a.score, b.score); n != 0 {
			return n
		}

		return cmp.Compare(a.word, b.word)
	})

	out := make([]string, 0, len(found))

	for _, cand := range found {
		out = append(out, cand.word)
	}

	return out
}

// editCandidates tries single-character insertions using the TRY
// alphabet, then single-character deletions.
func (c *SpellChecker) editCandidates(
	runes []rune, consider func(string, float64) bool,
) {
	alphabet := c.table.TryChars()
	if alphabet == "" {
		alphabet = strings.Join(c.kb.rows, "")
	}

	for i := 0; i <= len(runes); i++ {
		for _, ins := range alphabet {
			word := make([]rune, 0, len(runes)+1)
			word = append(word, runes[:i]...)
			word = append(word, ins)
			word = append(word, runes[i:]...)

			if consider(string(word), scoreInsertDelete) {
				return
			}
		}
	}

	for i := range runes {
		word := make([]rune, 0, len(runes)-1)
		word = append(word, runes[:i]...)
		word = append(word, runes[i+1:]...)

		if consider(string(word), scoreInsertDelete) {
			return
		}
	}
}

// matchCase gives the replacement rune the casing of the rune it
// replaces, so that substitutions in capitalized words stay
// capitalized.
func matchCase(orig, repl rune) rune {
	if unicode.IsUpper(orig) {
		return unicode.ToUpper(repl)
	}

	return unicode.ToLower(repl)
}
