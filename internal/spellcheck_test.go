package internal_test

import (
	"testing"

	"github.com/ttab/elephant-api/spell"
	"github.com/ttab/elephantine/test"
	"github.com/ttab/stave/internal"
	"github.com/ttab/stave/postgres"
	"github.com/ttab/stave/speller"
)

type flatEntry struct {
	Text        string
	Level       spell.CorrectionLevel
	Suggestions []string
}

func flatten(m *spell.Misspelled) []flatEntry {
	var out []flatEntry

	for _, e := range m.Entries {
		fe := flatEntry{
			Text:  e.Text,
			Level: e.Level,
		}

		for _, s := range e.Suggestions {
			fe.Suggestions = append(fe.Suggestions, s.Text)
		}

		out = append(out, fe)
	}

	return out
}

func newSpellcheck(t *testing.T) *internal.Spellcheck {
	t.Helper()

	c, err := speller.New(
		"../dictionaries/en_US.aff",
		"../dictionaries/en_US.dic",
	)
	test.Must(t, err, "create checker")

	check, err := internal.NewSpellcheck("en-us", c)
	test.Must(t, err, "create spellchecker")

	return check
}

func TestSpellcheck(t *testing.T) {
	check := newSpellcheck(t)

	err := check.AddPhrase(internal.Phrase{
		Text:           "Gaddafi",
		CommonMistakes: []string{"{Khadaffi|Kadhafi}"},
		Description:    "Libyan head of state",
		Level:          postgres.EntryLevelError,
	})
	test.Must(t, err, "add custom entry")

	result, err := check.Check(
		t.Context(),
		"Mohammar Khadaffi tried to workk",
		true)
	test.Must(t, err, "spellcheck")

	test.EqualDiff(t, []flatEntry{
		{
			Text:        "Khadaffi",
			Level:       spell.CorrectionLevel_LEVEL_ERROR,
			Suggestions: []string{"Gaddafi"},
		},
		{
			Text:  "Mohammar",
			Level: spell.CorrectionLevel_LEVEL_ERROR,
		},
		{
			Text:        "workk",
			Level:       spell.CorrectionLevel_LEVEL_ERROR,
			Suggestions: []string{"work"},
		},
	}, flatten(result), "check with suggestions")

	// Without suggestions only the entries are reported.
	result, err = check.Check(
		t.Context(),
		"Mohammar Khadaffi tried to workk",
		false)
	test.Must(t, err, "spellcheck")

	test.EqualDiff(t, []flatEntry{
		{Text: "Khadaffi", Level: spell.CorrectionLevel_LEVEL_ERROR},
		{Text: "Mohammar", Level: spell.CorrectionLevel_LEVEL_ERROR},
		{Text: "workk", Level: spell.CorrectionLevel_LEVEL_ERROR},
	}, flatten(result), "check without suggestions")

	result, err = check.Check(t.Context(), "", true)
	test.Must(t, err, "spellcheck empty text")
	test.Equal(t, 0, len(result.Entries), "no entries for empty text")
}

func TestSpellcheckForms(t *testing.T) {
	check := newSpellcheck(t)

	err := check.AddPhrase(internal.Phrase{
		Text:        "run",
		Description: "irregular verb",
		Level:       postgres.EntryLevelSuggestion,
		Forms: map[string]string{
			"runned": "ran",
		},
	})
	test.Must(t, err, "add custom entry")

	result, err := check.Check(t.Context(), "the boy runned", true)
	test.Must(t, err, "spellcheck")

	test.EqualDiff(t, []flatEntry{
		{
			Text:        "runned",
			Level:       spell.CorrectionLevel_LEVEL_SUGGESTION,
			Suggestions: []string{"ran"},
		},
	}, flatten(result), "incorrect form should point to the correct one")

	// The correct form was added to the checker.
	result, err = check.Check(t.Context(), "the boy ran", true)
	test.Must(t, err, "spellcheck")
	test.Equal(t, 0, len(result.Entries), "'ran' should be accepted")
}

func TestSpellcheckAffixExample(t *testing.T) {
	check := newSpellcheck(t)

	err := check.AddPhrase(internal.Phrase{
		Text:         "zorp",
		Level:        postgres.EntryLevelError,
		AffixExample: "cat",
	})
	test.Must(t, err, "add custom entry")

	// The entry inflects like its affix example.
	result, err := check.Check(t.Context(), "zorps are great", true)
	test.Must(t, err, "spellcheck")
	test.Equal(t, 0, len(result.Entries), "'zorps' should be accepted")
}

func TestSpellcheckRemovePhrase(t *testing.T) {
	check := newSpellcheck(t)

	err := check.AddPhrase(internal.Phrase{
		Text:           "Gaddafi",
		CommonMistakes: []string{"Khadaffi"},
		Level:          postgres.EntryLevelError,
	})
	test.Must(t, err, "add custom entry")

	result, err := check.Check(t.Context(), "Gaddafi", true)
	test.Must(t, err, "spellcheck")
	test.Equal(t, 0, len(result.Entries), "'Gaddafi' should be accepted")

	check.RemovePhrase("Gaddafi")

	result, err = check.Check(t.Context(), "Khadaffi", true)
	test.Must(t, err, "spellcheck")

	entries := flatten(result)
	test.Equal(t, 1, len(entries), "'Khadaffi' should be misspelled again")
	test.Equal(t, 0, len(entries[0].Suggestions),
		"no custom suggestion after removal")
}

func TestSuggestions(t *testing.T) {
	check := newSpellcheck(t)

	err := check.AddPhrase(internal.Phrase{
		Text:           "Gaddafi",
		CommonMistakes: []string{"Khadaffi"},
		Description:    "Libyan head of state",
		Level:          postgres.EntryLevelError,
	})
	test.Must(t, err, "add custom entry")

	sugg, err := check.Suggestions("Khadaffi")
	test.Must(t, err, "suggestions")

	test.Equal(t, 1, len(sugg), "one suggestion")
	test.Equal(t, "Gaddafi", sugg[0].Text, "suggestion text")
	test.Equal(t, "Libyan head of state", sugg[0].Description,
		"suggestion description")

	sugg, err = check.Suggestions("cst")
	test.Must(t, err, "engine suggestions")

	test.Equal(t, 1, len(sugg), "one engine suggestion")
	test.Equal(t, "cat", sugg[0].Text, "engine suggestion text")
}
