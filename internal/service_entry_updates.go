package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/ttab/elephantine"
	"github.com/ttab/stave/postgres"
)

func (a *Application) preloadEntries(ctx context.Context) error {
	var (
		limit  int64 = 200
		offset int64
	)

	for {
		rows, err := a.q.ListEntries(ctx, postgres.ListEntriesParams{
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("list entries: %w", err)
		}

		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			spell, ok := a.language(row.Language)
			if !ok {
				continue
			}

			err := spell.AddPhrase(entryAsPhrase(row))
			if err != nil {
				a.logger.WarnContext(ctx,
					"failed to load custom entry",
					elephantine.LogKeyError, err.Error(),
					"language", row.Language,
					"entry", row.Entry)
			}
		}

		offset += limit
	}
}

func (a *Application) handleEntryUpdate(
	ctx context.Context, n EntryUpdateNotification,
) error {
	spell, ok := a.language(n.Language)
	if !ok {
		return nil
	}

	if n.Deleted {
		spell.RemovePhrase(n.Text)

		return nil
	}

	entry, err := a.q.GetEntry(ctx, postgres.GetEntryParams{
		Language: n.Language,
		Entry:    n.Text,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		spell.RemovePhrase(n.Text)

		return nil
	} else if err != nil {
		return fmt.Errorf("read entry from database: %w", err)
	}

	err = spell.AddPhrase(entryAsPhrase(entry))
	if err != nil {
		return fmt.Errorf("add entry to checker: %w", err)
	}

	return nil
}

func entryAsPhrase(e postgres.Entry) Phrase {
	var (
		forms        map[string]string
		affixExample string
	)

	if e.Data != nil {
		forms = e.Data.Forms
		affixExample = e.Data.AffixExample
	}

	return Phrase{
		Text:           e.Entry,
		Description:    e.Description,
		CommonMistakes: e.CommonMistakes,
		Level:          e.Level,
		Forms:          forms,
		AffixExample:   affixExample,
	}
}
