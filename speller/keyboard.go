package speller

import (
	"math"
	"unicode"
)

// defaultKeyRows is the layout used when the affix source has no KEY
// directive.
var defaultKeyRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
}

// adjacentKeyDistance is the largest key distance still considered a
// typo-plausible substitution. Covers direct and diagonal neighbours.
const adjacentKeyDistance = 1.5

type keyboard struct {
	rows []string
	pos  map[rune][2]int
}

func newKeyboard(rows []string) *keyboard {
	if len(rows) == 0 {
		rows = defaultKeyRows
	}

	k := keyboard{
		rows: rows,
		pos:  make(map[rune][2]int),
	}

	for r, row := range rows {
		col := 0

		for _, ch := range row {
			k.pos[unicode.ToLower(ch)] = [2]int{r, col}
			col++
		}
	}

	return &k
}

// distance returns the euclidean distance between two keys. Keys that
// aren't on the layout are treated as far apart.
func (k *keyboard) distance(a, b rune) float64 {
	pa, oka := k.pos[unicode.ToLower(a)]
	pb, okb := k.pos[unicode.ToLower(b)]

	if !oka || !okb {
		return 2.5
	}

	dr := float64(pa[0] - pb[0])
	dc := float64(pa[1] - pb[1])

	return math.Sqrt(dr*dr + dc*dc)
}

// neighbors returns the keys adjacent to r on the layout.
func (k *keyboard) neighbors(r rune) []rune {
	p, ok := k.pos[unicode.ToLower(r)]
	if !ok {
		return nil
	}

	var adj []rune

	for ri, row := range k.rows {
		if abs(ri-p[0]) > 1 {
			continue
		}

		ci := 0

		for _, ch := range row {
			if abs(ci-p[1]) <= 1 && !(ri == p[0] && ci == p[1]) {
				adj = append(adj, ch)
			}

			ci++
		}
	}

	return adj
}

func abs(n int) int {
	if n < 0 {
		return -n
	}

	return n
}
