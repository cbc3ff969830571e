package dictionary

import (
	"encoding/json"
	"fmt"
	"io"
)

// personalRecord is the serialized form of a personal dictionary
// word.
type personalRecord struct {
	Stem         string   `json:"stem"`
	AffixClasses []string `json:"affix_classes,omitempty"`
}

// SavePersonal writes the personal layer as a JSON list of
// {stem, affix_classes} records, in insertion order.
func (s *Store) SavePersonal(w io.Writer) error {
	s.mu.RLock()

	records := make([]personalRecord, 0, len(s.order))

	for _, word := range s.order {
		entry, ok := s.personal[word]
		if !ok {
			continue
		}

		rec := personalRecord{Stem: entry.Stem}

		for _, flag := range entry.Classes {
			rec.AffixClasses = append(rec.AffixClasses, string(flag))
		}

		records = append(records, rec)
	}

	s.mu.RUnlock()

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(records)
	if err != nil {
		return fmt.Errorf("encode personal dictionary: %w", err)
	}

	return nil
}

// LoadPersonal reads records written by SavePersonal and adds them to
// the personal layer. Words that are already present are skipped.
func (s *Store) LoadPersonal(r io.Reader) error {
	var records []personalRecord

	dec := json.NewDecoder(r)

	err := dec.Decode(&records)
	if err != nil {
		return fmt.Errorf("decode personal dictionary: %w", err)
	}

	for _, rec := range records {
		if rec.Stem == "" {
			continue
		}

		var classes []rune

		for _, c := range rec.AffixClasses {
			classes = append(classes, []rune(c)...)
		}

		s.AddWord(rec.Stem, classes)
	}

	return nil
}
