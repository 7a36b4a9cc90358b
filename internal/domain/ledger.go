package domain

import (
	"context"
	"time"
)

// ─── Garden Ledger ──────────────────────────────────────────────────────────
// Every change to the token balance or XP is appended as one entry. Replaying
// Tokens oldest-first reproduces each entry's Balance.

// LedgerKind tags a ledger entry.
type LedgerKind string

const (
	LedgerSeed  LedgerKind = "seed"  // starting token when the garden is created
	LedgerGrant LedgerKind = "grant" // daily, mood or journal token
	LedgerWater LedgerKind = "water" // token spent for XP
)

// LedgerEntry records one garden economy event. A grant that hit the cap
// is still recorded, with Tokens 0.
type LedgerEntry struct {
	ID      int64        `json:"id"`
	At      time.Time    `json:"at"`
	Kind    LedgerKind   `json:"kind"`
	Source  RewardSource `json:"source,omitempty"`
	Tokens  int          `json:"tokens"`
	XP      int64        `json:"xp"`
	Balance int          `json:"balance"`
}

// GardenLedger reads ledger entries. Entries are written through GardenTx
// together with the state they describe.
type GardenLedger interface {
	ListLedger(ctx context.Context, limit int) ([]LedgerEntry, error) // newest first; limit <= 0 means all
}
