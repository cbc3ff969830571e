package affix

import (
	"fmt"
)

// condPart matches a single rune position of a condition pattern.
type condPart struct {
	any    bool
	negate bool
	runes  string
}

func (p condPart) match(r rune) bool {
	if p.any {
		return true
	}

	in := false

	for _, c := range p.runes {
		if c == r {
			in = true

			break
		}
	}

	return in != p.negate
}

// condition is a compiled rule condition. It is matched against the
// head (prefix rules) or tail (suffix rules) of a stem, one part per
// rune, in O(len) time.
type condition struct {
	source string
	parts  []condPart
}

func (c condition) always() bool {
	return len(c.parts) == 0
}

func (c condition) match(stem []rune, kind Kind) bool {
	n := len(c.parts)
	if n == 0 {
		return true
	}

	if len(stem) < n {
		return false
	}

	var at []rune

	switch kind {
	case Prefix:
		at = stem[:n]
	case Suffix:
		at = stem[len(stem)-n:]
	}

	for i, p := range c.parts {
		if !p.match(at[i]) {
			return false
		}
	}

	return true
}

// compileCondition parses a condition pattern. The grammar is a
// sequence of literal runes, "." wildcards, and "[...]"/"[^...]"
// rune sets. The single pattern "." means no condition.
func compileCondition(pattern string) (condition, error) {
	c := condition{source: pattern}

	if pattern == "." || pattern == "" {
		return c, nil
	}

	runes := []rune(pattern)

	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.':
			c.parts = append(c.parts, condPart{any: true})
		case '[':
			end := -1

			for j := i + 1; j < len(runes); j++ {
				if runes[j] == ']' {
					end = j

					break
				}
			}

			if end == -1 {
				return c, fmt.Errorf(
					"unterminated rune set in condition %q", pattern)
			}

			set := runes[i+1 : end]
			part := condPart{}

			if len(set) > 0 && set[0] == '^' {
				part.negate = true
				set = set[1:]
			}

			if len(set) == 0 {
				return c, fmt.Errorf(
					"empty rune set in condition %q", pattern)
			}

			part.runes = string(set)
			c.parts = append(c.parts, part)

			i = end
		case ']', '^':
			return c, fmt.Errorf(
				"unexpected %q in condition %q", runes[i], pattern)
		default:
			c.parts = append(c.parts, condPart{runes: string(runes[i])})
		}
	}

	return c, nil
}
