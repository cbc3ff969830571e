package dictionary_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/ttab/elephantine/test"
	"github.com/ttab/stave/affix"
	"github.com/ttab/stave/dictionary"
)

const affixSource = `SET UTF-8

SFX S Y 1
SFX S 0 s .
`

const dictSource = `3
cat/S po:noun
dog/S po:noun
the
`

func newStore(t *testing.T) (*affix.Table, *dictionary.Store) {
	t.Helper()

	tbl, err := affix.Parse("test.aff", []byte(affixSource))
	test.Must(t, err, "parse affix source")

	store, err := dictionary.Parse("test.dic", []byte(dictSource), tbl)
	test.Must(t, err, "parse dictionary source")

	return tbl, store
}

func TestParse(t *testing.T) {
	_, store := newStore(t)

	test.Equal(t, 3, store.EntryCount(), "entry count")

	entries := store.Lookup("cat")
	test.Equal(t, 1, len(entries), "entries for 'cat'")
	test.Equal(t, "cat", entries[0].Stem, "stem")
	test.Equal(t, true, entries[0].HasClass('S'), "'cat' should have class S")
	test.Equal(t, false, entries[0].HasClass('X'), "'cat' should not have class X")
	test.EqualDiff(t, []string{"po:noun"}, entries[0].Tags, "tags for 'cat'")

	entries = store.Lookup("the")
	test.Equal(t, 1, len(entries), "entries for 'the'")
	test.Equal(t, 0, len(entries[0].Classes), "'the' should have no classes")

	test.Equal(t, true, store.Contains("dog"), "contains 'dog'")
	test.Equal(t, false, store.Contains("cats"), "inflections are not stems")
	test.Equal(t, 0, len(store.Lookup("missing")), "lookup of a missing stem")
}

func TestParseErrors(t *testing.T) {
	tbl, err := affix.Parse("test.aff", []byte(affixSource))
	test.Must(t, err, "parse affix source")

	_, err = dictionary.Parse("bad.dic", []byte("cat/\n"), tbl)

	var parseErr *affix.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a *ParseError, got %v", err)
	}

	test.Equal(t, "bad.dic", parseErr.Source, "error source")
	test.Equal(t, 1, parseErr.Line, "error line")
}

func TestAddRemoveWord(t *testing.T) {
	_, store := newStore(t)

	test.Equal(t, true, store.AddWord("bird", nil), "first add")
	test.Equal(t, false, store.AddWord("bird", nil), "second add is a no-op")
	test.Equal(t, true, store.Contains("bird"), "contains added word")
	test.Equal(t, 4, store.EntryCount(), "entry count after add")

	test.Equal(t, false, store.AddWord("", nil), "empty word is rejected")

	test.Equal(t, true, store.RemoveWord("bird"), "remove")
	test.Equal(t, false, store.RemoveWord("bird"), "second remove is a no-op")
	test.Equal(t, false, store.Contains("bird"), "word is gone")

	// Base entries are not removable.
	test.Equal(t, false, store.RemoveWord("cat"), "remove base entry")
	test.Equal(t, true, store.Contains("cat"), "base entry stays")
}

func TestAddDictionary(t *testing.T) {
	tbl, store := newStore(t)

	err := store.AddDictionary("extra.dic", []byte("bird/S\n"), tbl)
	test.Must(t, err, "add extra dictionary")

	test.Equal(t, true, store.Contains("bird"), "contains merged entry")

	entries := store.Lookup("bird")
	test.Equal(t, 1, len(entries), "entries for 'bird'")
	test.Equal(t, true, entries[0].HasClass('S'), "'bird' should have class S")

	for i := 1; i < dictionary.MaxExtraDictionaries; i++ {
		err := store.AddDictionary(
			fmt.Sprintf("extra%d.dic", i),
			[]byte(fmt.Sprintf("word%d\n", i)), tbl)
		test.Must(t, err, "add extra dictionary %d", i)
	}

	err = store.AddDictionary("toomany.dic", []byte("straw\n"), tbl)
	if !errors.Is(err, dictionary.ErrTooManyDictionaries) {
		t.Fatalf("expected ErrTooManyDictionaries, got %v", err)
	}

	test.Equal(t, false, store.Contains("straw"),
		"rejected dictionary should not be merged")
}

func TestClone(t *testing.T) {
	tbl, store := newStore(t)

	store.AddWord("before", nil)

	clone := store.Clone()

	test.Equal(t, true, clone.Contains("before"),
		"clone sees pre-clone personal words")

	clone.AddWord("after", nil)
	test.Equal(t, false, store.Contains("after"),
		"original doesn't see clone-added words")

	store.AddWord("original-only", nil)
	test.Equal(t, false, clone.Contains("original-only"),
		"clone doesn't see original-added words")

	err := clone.AddDictionary("extra.dic", []byte("bird\n"), tbl)
	test.Must(t, err, "add extra dictionary to clone")

	test.Equal(t, false, store.Contains("bird"),
		"original doesn't see clone-merged dictionaries")
}

func TestPersonalRoundTrip(t *testing.T) {
	tbl, store := newStore(t)

	store.AddWord("blog", tbl.ParseFlags("S"))
	store.AddWord("al-Fatiha", nil)

	var buf bytes.Buffer

	err := store.SavePersonal(&buf)
	test.Must(t, err, "save personal layer")

	_, fresh := newStore(t)

	err = fresh.LoadPersonal(&buf)
	test.Must(t, err, "load personal layer")

	test.Equal(t, true, fresh.Contains("blog"), "contains 'blog'")
	test.Equal(t, true, fresh.Contains("al-Fatiha"), "contains 'al-Fatiha'")

	entries := fresh.Lookup("blog")
	test.Equal(t, 1, len(entries), "entries for 'blog'")
	test.Equal(t, true, entries[0].HasClass('S'),
		"affix classes survive the round trip")

	err = fresh.LoadPersonal(bytes.NewReader([]byte("not json")))
	if err == nil {
		t.Fatal("expected an error for malformed input")
	}
}
