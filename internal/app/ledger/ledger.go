// Package ledger reads the garden ledger: every token grant and watering in
// order. The running balance of the entries must match the garden row.
package ledger

import (
	"context"
	"fmt"

	"github.com/bloom-journal/bloom/internal/domain"
)

// Service answers history and balance questions about the garden economy.
type Service struct {
	store domain.GardenLedger
}

// NewService creates a ledger service.
func NewService(store domain.GardenLedger) *Service {
	return &Service{store: store}
}

// History returns the most recent entries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	entries, err := s.store.ListLedger(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w: %w", domain.ErrStorageUnavailable, err)
	}
	return entries, nil
}

// Summary totals the whole ledger.
type Summary struct {
	Earned  map[domain.RewardSource]int `json:"earned"`  // tokens actually added, by source
	Capped  int                         `json:"capped"`  // grants that hit the cap
	Spent   int                         `json:"spent"`   // waterings
	XP      int64                       `json:"xp"`      // XP from waterings
	Balance int                         `json:"balance"` // tokens after the last entry
}

// Summary totals every entry and checks the running balance.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	entries, err := s.History(ctx, 0)
	if err != nil {
		return Summary{}, err
	}
	if err := Verify(entries); err != nil {
		return Summary{}, err
	}
	return Summarize(entries), nil
}

// Summarize totals entries in any order.
func Summarize(entries []domain.LedgerEntry) Summary {
	sum := Summary{Earned: make(map[domain.RewardSource]int)}
	var lastID int64 = -1
	for _, e := range entries {
		switch e.Kind {
		case domain.LedgerSeed:
			sum.Earned[domain.RewardDaily] += e.Tokens
		case domain.LedgerGrant:
			if e.Tokens == 0 {
				sum.Capped++
			}
			sum.Earned[e.Source] += e.Tokens
		case domain.LedgerWater:
			sum.Spent += -e.Tokens
		}
		sum.XP += e.XP
		if e.ID > lastID {
			lastID = e.ID
			sum.Balance = e.Balance
		}
	}
	return sum
}

// Verify checks that replaying token deltas oldest-first reproduces every
// recorded balance. entries are newest first, as History returns them.
func Verify(entries []domain.LedgerEntry) error {
	balance := 0
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		balance += e.Tokens
		if balance != e.Balance {
			return fmt.Errorf("ledger entry %d: balance %d, replay gives %d", e.ID, e.Balance, balance)
		}
		if balance < 0 {
			return fmt.Errorf("ledger entry %d: negative balance %d", e.ID, balance)
		}
	}
	return nil
}
