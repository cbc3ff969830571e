package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/ttab/elephant-api/spell"
	"github.com/ttab/elephantine"
	"github.com/ttab/elephantine/pg"
	"github.com/ttab/stave/dictionaries"
	"github.com/ttab/stave/postgres"
	"github.com/ttab/stave/speller"
	"github.com/twitchtv/twirp"
	"golang.org/x/sync/errgroup"
)

const (
	ScopeSpellcheckWrite = "spell_write"
)

type NotifyChannel string

const (
	NotifyEntryUpdate NotifyChannel = "entry_update"
)

var (
	_ spell.Check        = &Application{}
	_ spell.Dictionaries = &Application{}
)

type Parameters struct {
	Addr           string
	ProfileAddr    string
	Logger         *slog.Logger
	Database       *pgxpool.Pool
	PubsubDatabase *pgxpool.Pool
	AuthInfoParser *elephantine.AuthInfoParser
	Registerer     prometheus.Registerer
}

func NewApplication(
	ctx context.Context, p Parameters,
) (*Application, error) {
	dictFS := dictionaries.GetFS()

	supportedLanguages, err := dictionaries.Languages()
	if err != nil {
		return nil, fmt.Errorf("list embedded dictionaries: %w", err)
	}

	if len(supportedLanguages) == 0 {
		return nil, errors.New("no embedded dictionaries")
	}

	languages := make(map[string]*Spellcheck, len(supportedLanguages))

	// Instantiate one checker per language.
	for _, lang := range supportedLanguages {
		affixSrc, err := fs.ReadFile(dictFS, lang+".aff")
		if err != nil {
			return nil, fmt.Errorf("read embedded affix file for %q: %w",
				lang, err)
		}

		dictSrc, err := fs.ReadFile(dictFS, lang+".dic")
		if err != nil {
			return nil, fmt.Errorf("read embedded dictionary for %q: %w",
				lang, err)
		}

		checker, err := speller.NewFromSources(
			lang+".aff", affixSrc,
			lang+".dic", dictSrc,
		)
		if err != nil {
			return nil, fmt.Errorf("create checker for %q: %w",
				lang, err)
		}

		// Convert from sv_SE to sv-se.
		code := strings.ToLower(strings.Replace(lang, "_", "-", 1))

		check, err := NewSpellcheck(code, checker)
		if err != nil {
			return nil, fmt.Errorf("create spellcheck for %q: %w",
				lang, err)
		}

		languages[code] = check
	}

	metrics, err := NewMetrics(p.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	app := Application{
		p:         p,
		logger:    p.Logger,
		db:        p.Database,
		q:         postgres.New(p.Database),
		metrics:   metrics,
		languages: languages,
	}

	return &app, nil
}

type Application struct {
	p            Parameters
	logger       *slog.Logger
	db           *pgxpool.Pool
	q            *postgres.Queries
	metrics      *Metrics
	entryUpdates chan EntryUpdateNotification

	m         sync.RWMutex
	languages map[string]*Spellcheck
}

func (a *Application) Run(ctx context.Context) error {
	grace := elephantine.NewGracefulShutdown(a.logger, 10*time.Second)
	server := elephantine.NewAPIServer(a.logger, a.p.Addr, a.p.ProfileAddr)

	opts, err := elephantine.NewDefaultServiceOptions(
		a.logger, a.p.AuthInfoParser, a.p.Registerer,
	)
	if err != nil {
		return fmt.Errorf("set up service options: %w", err)
	}

	checkServer := spell.NewCheckServer(a,
		twirp.WithServerJSONSkipDefaults(true),
		twirp.WithServerHooks(opts.Hooks))

	dictServer := spell.NewDictionariesServer(a,
		twirp.WithServerJSONSkipDefaults(true),
		twirp.WithServerHooks(opts.Hooks))

	server.RegisterAPI(checkServer, opts)
	server.RegisterAPI(dictServer, opts)

	grp := elephantine.NewErrGroup(ctx, a.logger)

	grp.Go("server", func(ctx context.Context) error {
		return server.ListenAndServe(grace.CancelOnQuit(ctx))
	})

	a.entryUpdates = make(chan EntryUpdateNotification, 16)

	grp.Go("notification_listener", func(ctx context.Context) error {
		defer close(a.entryUpdates)

		return a.runListener(grace.CancelOnStop(ctx))
	})

	grp.Go("entry_updater", func(ctx context.Context) error {
		err := a.preloadEntries(ctx)
		if err != nil {
			return fmt.Errorf("preload entries: %w", err)
		}

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case n, ok := <-a.entryUpdates:
				if !ok {
					return nil
				}

				err := a.handleEntryUpdate(ctx, n)
				if err != nil {
					return fmt.Errorf("handle %s update of %q: %w",
						n.Language, n.Text, err)
				}
			}
		}
	})

	return grp.Wait()
}

func (a *Application) language(code string) (*Spellcheck, bool) {
	a.m.RLock()
	defer a.m.RUnlock()

	s, ok := a.languages[code]

	return s, ok
}

// DeleteEntry implements spell.Dictionaries.
func (a *Application) DeleteEntry(
	ctx context.Context, req *spell.DeleteEntryRequest,
) (_ *spell.DeleteEntryResponse, outErr error) {
	_, err := elephantine.RequireAnyScope(ctx, ScopeSpellcheckWrite)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if req.Language == "" {
		return nil, twirp.RequiredArgumentError("language")
	}

	if req.Text == "" {
		return nil, twirp.RequiredArgumentError("text")
	}

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return nil, twirp.InternalErrorf("start transaction: %w", err)
	}

	defer pg.Rollback(tx, &outErr)

	q := a.q.WithTx(tx)

	err = q.DeleteEntry(ctx, postgres.DeleteEntryParams{
		Language: req.Language,
		Entry:    req.Text,
	})
	if err != nil {
		return nil, twirp.InternalErrorf("write to database: %w", err)
	}

	err = notifyEntryUpdated(ctx, q, EntryUpdateNotification{
		Language: req.Language,
		Text:     req.Text,
		Deleted:  true,
	})
	if err != nil {
		return nil, twirp.InternalErrorf("send notification: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, twirp.InternalErrorf("commit changes: %w", err)
	}

	return &spell.DeleteEntryResponse{}, nil
}

// GetEntry implements spell.Dictionaries.
func (a *Application) GetEntry(
	ctx context.Context, req *spell.GetEntryRequest,
) (*spell.GetEntryResponse, error) {
	_, err := elephantine.RequireAnyScope(ctx, ScopeSpellcheckWrite)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if req.Language == "" {
		return nil, twirp.RequiredArgumentError("language")
	}

	if req.Text == "" {
		return nil, twirp.RequiredArgumentError("text")
	}

	row, err := a.q.GetEntry(ctx, postgres.GetEntryParams{
		Language: req.Language,
		Entry:    req.Text,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, twirp.NotFoundError("no such entry")
	} else if err != nil {
		return nil, twirp.InternalErrorf("read from database: %w", err)
	}

	res := spell.GetEntryResponse{
		Entry: entryToRPC(row),
	}

	return &res, nil
}

// ListDictionaries implements spell.Dictionaries.
func (a *Application) ListDictionaries(
	ctx context.Context, req *spell.ListDictionariesRequest,
) (*spell.ListDictionariesResponse, error) {
	_, err := elephantine.RequireAnyScope(ctx, ScopeSpellcheckWrite)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	rows, err := a.q.ListDictionaries(ctx)
	if err != nil {
		return nil, twirp.InternalErrorf("read from database: %w", err)
	}

	res := spell.ListDictionariesResponse{
		Dictionaries: make([]*spell.CustomDictionary, len(rows)),
	}

	for i, row := range rows {
		res.Dictionaries[i] = &spell.CustomDictionary{
			Language:   row.Language,
			EntryCount: row.Entries,
		}
	}

	return &res, nil
}

// ListEntries implements spell.Dictionaries.
func (a *Application) ListEntries(
	ctx context.Context,
	req *spell.ListEntriesRequest,
) (*spell.ListEntriesResponse, error) {
	_, err := elephantine.RequireAnyScope(ctx, ScopeSpellcheckWrite)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if strings.Contains(req.Prefix, "%") {
		return nil, twirp.InvalidArgumentError("prefix", "prefix cannot contain '%'")
	}

	var pattern string

	if req.Prefix != "" {
		pattern = req.Prefix + "%"
	}

	limit := int64(100)
	offset := limit * req.Page

	rows, err := a.q.ListEntries(ctx, postgres.ListEntriesParams{
		Language: pg.TextOrNull(req.Language),
		Pattern:  pg.TextOrNull(pattern),
		Status:   pg.TextOrNull(req.Status),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		return nil, twirp.InternalErrorf("read from database: %w", err)
	}

	res := spell.ListEntriesResponse{
		Entries: make([]*spell.CustomEntry, len(rows)),
	}

	for i, row := range rows {
		res.Entries[i] = entryToRPC(row)
	}

	return &res, nil
}

// SetEntry implements spell.Dictionaries.
func (a *Application) SetEntry(
	ctx context.Context, req *spell.SetEntryRequest,
) (_ *spell.SetEntryResponse, outErr error) {
	_, err := elephantine.RequireAnyScope(ctx, ScopeSpellcheckWrite)
	if err != nil {
		return nil, err //nolint: wrapcheck
	}

	if req.Entry == nil {
		return nil, twirp.RequiredArgumentError("entry")
	}

	if req.Entry.Language == "" {
		return nil, twirp.RequiredArgumentError("entry.language")
	}

	_, ok := a.language(req.Entry.Language)
	if !ok {
		return nil, twirp.InvalidArgumentError("entry.language",
			fmt.Sprintf("unknown language %q", req.Entry.Language))
	}

	if req.Entry.Text == "" {
		return nil, twirp.RequiredArgumentError("entry.text")
	}

	if req.Entry.Status == "" {
		return nil, twirp.RequiredArgumentError("entry.status")
	}

	params := postgres.SetEntryParams{
		Language:       req.Entry.Language,
		Entry:          req.Entry.Text,
		Status:         req.Entry.Status,
		Description:    req.Entry.Description,
		CommonMistakes: req.Entry.CommonMistakes,
		Level:          rpcToEntryLevel(req.Entry.Level),
	}

	if len(req.Entry.Forms) > 0 {
		params.Data = &postgres.EntryData{
			Forms: req.Entry.Forms,
		}
	}

	tx, err := a.db.Begin(ctx)
	if err != nil {
		return nil, twirp.InternalErrorf("start transaction: %w", err)
	}

	defer pg.Rollback(tx, &outErr)

	q := a.q.WithTx(tx)

	err = q.SetEntry(ctx, params)
	if err != nil {
		return nil, twirp.InternalErrorf("write to database: %w", err)
	}

	err = notifyEntryUpdated(ctx, q, EntryUpdateNotification{
		Language: req.Entry.Language,
		Text:     req.Entry.Text,
	})
	if err != nil {
		return nil, twirp.InternalErrorf("send notification: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, twirp.InternalErrorf("commit changes: %w", err)
	}

	return &spell.SetEntryResponse{}, nil
}

// Text implements spell.Check.
func (a *Application) Text(
	ctx context.Context, req *spell.TextRequest,
) (*spell.TextResponse, error) {
	_, ok := elephantine.GetAuthInfo(ctx)
	if !ok {
		return nil, twirp.Unauthenticated.Error("unauthenticated")
	}

	langCode := strings.ToLower(req.Language)

	check, ok := a.language(langCode)
	if !ok {
		return nil, twirp.InvalidArgument.Errorf("unsupported language %q", req.Language)
	}

	res := spell.TextResponse{
		Misspelled: make([]*spell.Misspelled, len(req.Text)),
	}

	for i := range req.Text {
		misspelled, err := check.Check(ctx, req.Text[i], true)
		if err != nil {
			return nil, twirp.InternalErrorf("check text: %w", err)
		}

		a.metrics.TextsChecked.WithLabelValues(langCode).Inc()
		a.metrics.Misspellings.WithLabelValues(langCode).
			Add(float64(len(misspelled.Entries)))

		res.Misspelled[i] = misspelled
	}

	return &res, nil
}

func entryToRPC(row postgres.Entry) *spell.CustomEntry {
	level, _ := entryLevelToRPC(row.Level)

	entry := spell.CustomEntry{
		Language:       row.Language,
		Text:           row.Entry,
		Status:         row.Status,
		Description:    row.Description,
		CommonMistakes: row.CommonMistakes,
		Level:          level,
	}

	if row.Data != nil {
		entry.Forms = row.Data.Forms
	}

	return &entry
}

func rpcToEntryLevel(level spell.CorrectionLevel) postgres.EntryLevel {
	if level == spell.CorrectionLevel_LEVEL_SUGGESTION {
		return postgres.EntryLevelSuggestion
	}

	return postgres.EntryLevelError
}

type EntryUpdateNotification struct {
	Language string
	Text     string
	Deleted  bool
}

func (a *Application) runListener(ctx context.Context) (outErr error) {
	pool := a.p.PubsubDatabase
	if pool == nil {
		pool = a.db
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection from pool: %w", err)
	}

	pConn := conn.Hijack()

	defer func() {
		err := pConn.Close(ctx)
		if err != nil {
			outErr = errors.Join(outErr, fmt.Errorf(
				"failed to close PG listen connection: %w", err))
		}
	}()

	notifications := []NotifyChannel{
		NotifyEntryUpdate,
	}

	for _, channel := range notifications {
		ident := pgx.Identifier{string(channel)}

		_, err := pConn.Exec(ctx, "LISTEN "+ident.Sanitize())
		if err != nil {
			return fmt.Errorf("failed to start listening to %q: %w",
				channel, err)
		}
	}

	received := make(chan *pgconn.Notification)
	grp, gCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		for {
			notification, err := pConn.WaitForNotification(gCtx)
			if err != nil {
				return fmt.Errorf(
					"error while waiting for notification: %w", err)
			}

			received <- notification
		}
	})

	grp.Go(func() error {
		for {
			var notification *pgconn.Notification

			select {
			case <-ctx.Done():
				return ctx.Err()
			case notification = <-received:
			}

			switch NotifyChannel(notification.Channel) {
			case NotifyEntryUpdate:
				var n EntryUpdateNotification

				err := json.Unmarshal(
					[]byte(notification.Payload), &n)
				if err != nil {
					break
				}

				a.entryUpdates <- n
			}
		}
	})

	err = grp.Wait()
	if err != nil {
		return err //nolint:wrapcheck
	}

	return nil
}

func notifyEntryUpdated(
	ctx context.Context, q *postgres.Queries,
	payload EntryUpdateNotification,
) error {
	return pgNotify(ctx, q, NotifyEntryUpdate, payload)
}

func pgNotify[T any](
	ctx context.Context, q *postgres.Queries,
	channel NotifyChannel, payload T,
) error {
	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload for notification: %w", err)
	}

	err = q.Notify(ctx, postgres.NotifyParams{
		Channel: string(channel),
		Message: string(message),
	})
	if err != nil {
		return fmt.Errorf("failed to publish notification payload to channel: %w", err)
	}

	return nil
}
