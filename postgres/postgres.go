// Package postgres contains the database access layer for custom
// dictionary entries.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// EntryLevel is the correction level of a custom entry.
type EntryLevel string

const (
	EntryLevelError      EntryLevel = "error"
	EntryLevelSuggestion EntryLevel = "suggestion"
)

// EntryData is the free-form part of a custom entry, stored as JSON.
type EntryData struct {
	// Forms maps incorrect inflected forms to their corrections.
	Forms map[string]string `json:"forms,omitempty"`
	// AffixExample is a model word whose affix classes the entry
	// inherits when it's added to a checker.
	AffixExample string `json:"affix_example,omitempty"`
}

// Entry is a custom dictionary entry row.
type Entry struct {
	Language       string
	Entry          string
	Status         string
	Description    string
	CommonMistakes []string
	Level          EntryLevel
	Data           *EntryData
}

// DBTX is the subset of pgx that the queries need, satisfied by both
// a pool and a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

type SetEntryParams struct {
	Language       string
	Entry          string
	Status         string
	Description    string
	CommonMistakes []string
	Level          EntryLevel
	Data           *EntryData
}

const setEntry = `
INSERT INTO entry(language, entry, status, description, common_mistakes, level, data)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (language, entry) DO UPDATE SET
  status = excluded.status,
  description = excluded.description,
  common_mistakes = excluded.common_mistakes,
  level = excluded.level,
  data = excluded.data
`

func (q *Queries) SetEntry(ctx context.Context, arg SetEntryParams) error {
	level := arg.Level
	if level == "" {
		level = EntryLevelError
	}

	_, err := q.db.Exec(ctx, setEntry,
		arg.Language,
		arg.Entry,
		arg.Status,
		arg.Description,
		arg.CommonMistakes,
		string(level),
		arg.Data,
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}

	return nil
}

type GetEntryParams struct {
	Language string
	Entry    string
}

const getEntry = `
SELECT language, entry, status, description, common_mistakes, level, data
FROM entry
WHERE language = $1 AND entry = $2
`

func (q *Queries) GetEntry(ctx context.Context, arg GetEntryParams) (Entry, error) {
	row := q.db.QueryRow(ctx, getEntry, arg.Language, arg.Entry)

	return scanEntry(row)
}

type DeleteEntryParams struct {
	Language string
	Entry    string
}

const deleteEntry = `
DELETE FROM entry WHERE language = $1 AND entry = $2
`

func (q *Queries) DeleteEntry(ctx context.Context, arg DeleteEntryParams) error {
	_, err := q.db.Exec(ctx, deleteEntry, arg.Language, arg.Entry)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	return nil
}

type ListEntriesParams struct {
	Language pgtype.Text
	Pattern  pgtype.Text
	Status   pgtype.Text
	Limit    int64
	Offset   int64
}

const listEntries = `
SELECT language, entry, status, description, common_mistakes, level, data
FROM entry
WHERE ($1::text IS NULL OR language = $1)
  AND ($2::text IS NULL OR entry LIKE $2)
  AND ($3::text IS NULL OR status = $3)
ORDER BY language, entry
LIMIT $4 OFFSET $5
`

func (q *Queries) ListEntries(
	ctx context.Context, arg ListEntriesParams,
) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntries,
		arg.Language, arg.Pattern, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read entry rows: %w", err)
	}

	return entries, nil
}

type ListDictionariesRow struct {
	Language string
	Entries  int64
}

const listDictionaries = `
SELECT language, COUNT(*) AS entries
FROM entry
GROUP BY language
ORDER BY language
`

func (q *Queries) ListDictionaries(
	ctx context.Context,
) ([]ListDictionariesRow, error) {
	rows, err := q.db.Query(ctx, listDictionaries)
	if err != nil {
		return nil, fmt.Errorf("query dictionaries: %w", err)
	}

	defer rows.Close()

	var dicts []ListDictionariesRow

	for rows.Next() {
		var d ListDictionariesRow

		err := rows.Scan(&d.Language, &d.Entries)
		if err != nil {
			return nil, fmt.Errorf("scan dictionary row: %w", err)
		}

		dicts = append(dicts, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary rows: %w", err)
	}

	return dicts, nil
}

type NotifyParams struct {
	Channel string
	Message string
}

const notify = `
SELECT pg_notify($1, $2)
`

func (q *Queries) Notify(ctx context.Context, arg NotifyParams) error {
	_, err := q.db.Exec(ctx, notify, arg.Channel, arg.Message)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}

	return nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e     Entry
		level string
	)

	err := row.Scan(
		&e.Language,
		&e.Entry,
		&e.Status,
		&e.Description,
		&e.CommonMistakes,
		&level,
		&e.Data,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("scan entry row: %w", err)
	}

	e.Level = EntryLevel(level)

	return e, nil
}
