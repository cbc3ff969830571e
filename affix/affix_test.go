package affix_test

import (
	"errors"
	"testing"

	"github.com/ttab/elephantine/test"
	"github.com/ttab/stave/affix"
)

const affixSource = `# test affix table

SET UTF-8
TRY esiant
KEY qwertyuiop|asdfghjkl|zxcvbnm
WORDCHARS '

PFX A Y 1
PFX A 0 re .

SFX S Y 4
SFX S y ies [^aeiou]y
SFX S 0 s [aeiou]y
SFX S 0 es [sxzh]
SFX S 0 s [^sxzhy]
`

func TestParse(t *testing.T) {
	tbl, err := affix.Parse("test.aff", []byte(affixSource))
	test.Must(t, err, "parse affix source")

	test.Equal(t, "UTF-8", tbl.Encoding(), "declared encoding")
	test.Equal(t, "esiant", tbl.TryChars(), "TRY characters")
	test.Equal(t, "'", tbl.WordChars(), "WORDCHARS characters")
	test.EqualDiff(t, []string{
		"qwertyuiop", "asdfghjkl", "zxcvbnm",
	}, tbl.KeyRows(), "keyboard rows")

	class, ok := tbl.Class('S')
	test.Equal(t, true, ok, "class S should exist")
	test.Equal(t, affix.Suffix, class.Kind, "class S kind")
	test.Equal(t, true, class.CrossProduct, "class S cross product")
	test.Equal(t, 4, len(class.Rules), "class S rule count")

	test.Equal(t, 1, len(tbl.Prefixes()), "prefix rule count")
	test.Equal(t, 4, len(tbl.Suffixes()), "suffix rule count")

	_, ok = tbl.Class('Z')
	test.Equal(t, false, ok, "class Z should not exist")
	test.Equal(t, 0, len(tbl.Rules('Z')), "no rules for unknown class")
}

func TestRuleApply(t *testing.T) {
	tbl, err := affix.Parse("test.aff", []byte(affixSource))
	test.Must(t, err, "parse affix source")

	tests := []struct {
		Rule affix.Rule
		Stem string
		Want string
		OK   bool
	}{
		{Rule: tbl.Rules('S')[0], Stem: "city", Want: "cities", OK: true},
		{Rule: tbl.Rules('S')[1], Stem: "boy", Want: "boys", OK: true},
		{Rule: tbl.Rules('S')[2], Stem: "box", Want: "boxes", OK: true},
		{Rule: tbl.Rules('S')[3], Stem: "cat", Want: "cats", OK: true},
		// Condition failures.
		{Rule: tbl.Rules('S')[0], Stem: "boy", OK: false},
		{Rule: tbl.Rules('S')[3], Stem: "box", OK: false},
		{Rule: tbl.Rules('A')[0], Stem: "work", Want: "rework", OK: true},
	}

	for _, tt := range tests {
		got, ok := tt.Rule.Apply(tt.Stem)

		test.Equal(t, tt.OK, ok,
			"apply %s/%s to %q", tt.Rule.Append, tt.Rule.Condition(), tt.Stem)

		if !tt.OK {
			continue
		}

		test.Equal(t, tt.Want, got, "surface form of %q", tt.Stem)

		// StripAffix is the inverse of Apply.
		stem, ok := tt.Rule.StripAffix(got)
		test.Equal(t, true, ok, "strip %q", got)
		test.Equal(t, tt.Stem, stem, "recovered stem of %q", got)
	}
}

func TestStripAffixRejects(t *testing.T) {
	tbl, err := affix.Parse("test.aff", []byte(affixSource))
	test.Must(t, err, "parse affix source")

	// "boys" can't have been produced by the y->ies rule.
	_, ok := tbl.Rules('S')[0].StripAffix("boys")
	test.Equal(t, false, ok, "strip 'boys' with the ies rule")

	// Stripping everything leaves no stem.
	_, ok = tbl.Rules('S')[3].StripAffix("s")
	test.Equal(t, false, ok, "strip 's' down to an empty stem")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		Name   string
		Source string
	}{
		{
			Name:   "unknown directive",
			Source: "BOGUS x\n",
		},
		{
			Name:   "missing rules",
			Source: "SFX S Y 2\nSFX S 0 s .\n",
		},
		{
			Name:   "interrupted rule block",
			Source: "SFX S Y 2\nSFX S 0 s .\nTRY abc\n",
		},
		{
			Name:   "bad cross product flag",
			Source: "SFX S X 1\nSFX S 0 s .\n",
		},
		{
			Name:   "bad rule count",
			Source: "SFX S Y lots\n",
		},
		{
			Name:   "multi-character flag",
			Source: "SFX SS Y 1\nSFX SS 0 s .\n",
		},
		{
			Name:   "rule flag mismatch",
			Source: "SFX S Y 1\nSFX T 0 s .\n",
		},
		{
			Name:   "unterminated rune set",
			Source: "SFX S Y 1\nSFX S 0 s [abc\n",
		},
		{
			Name:   "unsupported flag mode",
			Source: "FLAG long\n",
		},
		{
			Name:   "kind conflict",
			Source: "SFX S Y 1\nSFX S 0 s .\nPFX S Y 1\nPFX S 0 re .\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			_, err := affix.Parse("bad.aff", []byte(tt.Source))

			var parseErr *affix.ParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("expected a *ParseError, got %v", err)
			}

			if parseErr.Source != "bad.aff" {
				t.Fatalf("wrong error source %q", parseErr.Source)
			}

			if parseErr.Line < 1 {
				t.Fatalf("error line %d not set", parseErr.Line)
			}
		})
	}
}

func TestEncodings(t *testing.T) {
	// ISO8859-1 sources get transcoded to UTF-8.
	latin1 := []byte("SET ISO8859-1\nTRY \xe5\xe4\xf6\n")

	tbl, err := affix.Parse("latin1.aff", latin1)
	test.Must(t, err, "parse ISO8859-1 source")

	test.Equal(t, "ISO8859-1", tbl.Encoding(), "declared encoding")
	test.Equal(t, "åäö", tbl.TryChars(), "transcoded TRY characters")

	_, err = affix.Parse("bad.aff", []byte("SET KLINGON-1\n"))

	var encErr *affix.EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected an *EncodingError, got %v", err)
	}

	test.Equal(t, "KLINGON-1", encErr.Encoding, "reported encoding")
}
