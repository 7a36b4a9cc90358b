package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bloom-journal/bloom/internal/domain"
)

// querier is satisfied by *sql.DB and by the *sql.Conn holding a garden
// transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ─── Garden State ───────────────────────────────────────────────────────────

// GetGardenState returns the singleton row, or nil if it was never created.
func (d *DB) GetGardenState(ctx context.Context) (*domain.GardenState, error) {
	return getGarden(ctx, d.db)
}

// UpsertGardenState writes the singleton row outside any transaction.
// Read-modify-write callers use UpdateGarden.
func (d *DB) UpsertGardenState(ctx context.Context, g domain.GardenState) error {
	if err := upsertGarden(ctx, d.db, g); err != nil {
		return err
	}
	d.feed.publish(topicGarden)
	return nil
}

// UpdateGarden runs fn under BEGIN IMMEDIATE on a dedicated connection.
// The write lock is taken before fn reads anything, so a second writer
// (another handle or another process) waits on busy_timeout instead of
// overwriting a row it read earlier.
func (d *DB) UpdateGarden(ctx context.Context, fn func(tx domain.GardenTx) error) error {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// COMMIT and ROLLBACK must run even when ctx is already done, or the
	// pooled connection would go back still inside the transaction.
	endCtx := context.WithoutCancel(ctx)

	tx := &gardenTx{q: conn}
	if err := fn(tx); err != nil {
		if _, rbErr := conn.ExecContext(endCtx, "ROLLBACK"); rbErr != nil {
			d.log.Warn("garden rollback failed", "error", rbErr)
		}
		return err
	}
	if _, err := conn.ExecContext(endCtx, "COMMIT"); err != nil {
		if _, rbErr := conn.ExecContext(endCtx, "ROLLBACK"); rbErr != nil {
			d.log.Warn("garden rollback failed", "error", rbErr)
		}
		return fmt.Errorf("commit: %w", err)
	}
	if tx.wrote {
		d.feed.publish(topicGarden)
	}
	return nil
}

// gardenTx implements domain.GardenTx on the connection that holds the
// write lock.
type gardenTx struct {
	q     querier
	wrote bool
}

func (t *gardenTx) GetGardenState(ctx context.Context) (*domain.GardenState, error) {
	return getGarden(ctx, t.q)
}

func (t *gardenTx) UpsertGardenState(ctx context.Context, g domain.GardenState) error {
	if err := upsertGarden(ctx, t.q, g); err != nil {
		return err
	}
	t.wrote = true
	return nil
}

func (t *gardenTx) AppendLedger(ctx context.Context, e domain.LedgerEntry) error {
	return appendLedger(ctx, t.q, e)
}

func getGarden(ctx context.Context, q querier) (*domain.GardenState, error) {
	var g domain.GardenState
	var daily, mood, journal int64
	err := q.QueryRowContext(ctx,
		`SELECT xp, water_tokens, level, last_daily_reset, last_mood_token, last_journal_token,
		        pending_daily, pending_mood, pending_journal
		 FROM garden_state WHERE id = 1`,
	).Scan(&g.XP, &g.WaterTokens, &g.Level, &daily, &mood, &journal,
		&g.PendingDaily, &g.PendingMood, &g.PendingJournal)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.LastDailyReset = fromMillis(daily)
	g.LastMoodToken = fromMillis(mood)
	g.LastJournalToken = fromMillis(journal)
	return &g, nil
}

func upsertGarden(ctx context.Context, q querier, g domain.GardenState) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO garden_state (id, xp, water_tokens, level, last_daily_reset, last_mood_token,
		                           last_journal_token, pending_daily, pending_mood, pending_journal)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			xp=excluded.xp,
			water_tokens=excluded.water_tokens,
			level=excluded.level,
			last_daily_reset=excluded.last_daily_reset,
			last_mood_token=excluded.last_mood_token,
			last_journal_token=excluded.last_journal_token,
			pending_daily=excluded.pending_daily,
			pending_mood=excluded.pending_mood,
			pending_journal=excluded.pending_journal`,
		g.XP, g.WaterTokens, g.Level,
		toMillis(g.LastDailyReset), toMillis(g.LastMoodToken), toMillis(g.LastJournalToken),
		g.PendingDaily, g.PendingMood, g.PendingJournal,
	)
	return err
}

// ─── Garden Ledger ──────────────────────────────────────────────────────────

// AppendLedger inserts one ledger entry outside any transaction.
func (d *DB) AppendLedger(ctx context.Context, e domain.LedgerEntry) error {
	return appendLedger(ctx, d.db, e)
}

func appendLedger(ctx context.Context, q querier, e domain.LedgerEntry) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO garden_ledger (at, kind, source, tokens, xp, balance)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		toMillis(e.At), string(e.Kind), string(e.Source), e.Tokens, e.XP, e.Balance,
	)
	return err
}

// ListLedger returns ledger entries newest first. limit <= 0 returns all.
func (d *DB) ListLedger(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, at, kind, source, tokens, xp, balance
		 FROM garden_ledger ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var at int64
		var kind, source string
		if err := rows.Scan(&e.ID, &at, &kind, &source, &e.Tokens, &e.XP, &e.Balance); err != nil {
			return nil, err
		}
		e.At = fromMillis(at)
		e.Kind = domain.LedgerKind(kind)
		e.Source = domain.RewardSource(source)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
