package domain

import (
	"context"
	"time"
)

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// MoodStore persists mood check-ins.
type MoodStore interface {
	InsertMood(ctx context.Context, r MoodRecord) error
	ListMoods(ctx context.Context) ([]MoodRecord, error) // newest first
	ListMoodsInRange(ctx context.Context, start, end time.Time) ([]MoodRecord, error)
	ClearMoods(ctx context.Context) error
}

// JournalStore persists journal entries.
type JournalStore interface {
	InsertJournal(ctx context.Context, r JournalRecord) error
	GetJournal(ctx context.Context, id string) (*JournalRecord, error)
	ListJournals(ctx context.Context) ([]JournalRecord, error) // newest first
	UpdateJournal(ctx context.Context, r JournalRecord) error
	DeleteJournal(ctx context.Context, id string) error
}

// GardenStore persists the singleton garden row.
// GetGardenState returns (nil, nil) when no row exists yet.
type GardenStore interface {
	GetGardenState(ctx context.Context) (*GardenState, error)
	// UpdateGarden runs fn inside one write transaction that excludes every
	// other writer of the same database, including other processes. The
	// writes fn makes commit when it returns nil and roll back otherwise.
	UpdateGarden(ctx context.Context, fn func(tx GardenTx) error) error
}

// GardenTx reads and writes the garden row and its ledger within one
// transaction.
type GardenTx interface {
	GetGardenState(ctx context.Context) (*GardenState, error)
	UpsertGardenState(ctx context.Context, g GardenState) error
	AppendLedger(ctx context.Context, e LedgerEntry) error
}

// RecordFeed exposes live snapshots of the store. Each channel delivers the
// current snapshot immediately, then again after every relevant write, and
// closes when ctx is done.
type RecordFeed interface {
	ObserveMoods(ctx context.Context) (<-chan []MoodRecord, error)
	ObserveJournals(ctx context.Context) (<-chan []JournalRecord, error)
	ObserveGardenState(ctx context.Context) (<-chan *GardenState, error) // nil until created
}
