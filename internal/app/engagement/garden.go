// Package engagement implements the bloom reward loop: water tokens earned
// from daily visits, mood check-ins and journal entries, spent to grow the
// garden plant. One token per source per calendar day.
package engagement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/infra/logger"
	"github.com/bloom-journal/bloom/internal/infra/metrics"
)

// Policy tunes the garden economy.
type Policy struct {
	TokenCap int // Upper bound for token grants
	// CapClaimGrants applies TokenCap to mood and journal grants as well as
	// the daily grant. When false those grants are uncapped.
	CapClaimGrants bool
	WaterXP        int64 // XP per watering
}

// DefaultPolicy returns the standard economy: cap 5 on every grant path, 20 XP per watering.
func DefaultPolicy() Policy {
	return Policy{
		TokenCap:       domain.TokenCap,
		CapClaimGrants: true,
		WaterXP:        domain.WaterXP,
	}
}

// GardenService owns the singleton garden row. Every operation is a
// read-modify-write inside one store transaction, so award triggers from
// this process or another one never lose an update. mu keeps this
// process's callers from queueing on the database lock.
type GardenService struct {
	mu     sync.Mutex
	store  domain.GardenStore
	clock  clockwork.Clock
	policy Policy
	log    *logger.Logger

	queued []domain.LedgerEntry // entries of the mutation in progress
}

// NewGardenService creates a garden service.
func NewGardenService(store domain.GardenStore, clock clockwork.Clock, policy Policy, log *logger.Logger) *GardenService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	if policy.TokenCap <= 0 {
		policy.TokenCap = domain.TokenCap
	}
	if policy.WaterXP <= 0 {
		policy.WaterXP = domain.WaterXP
	}
	return &GardenService{
		store:  store,
		clock:  clock,
		policy: policy,
		log:    log.With("component", "garden"),
	}
}

// GardenStatus is the garden state plus derived presentation values.
type GardenStatus struct {
	domain.GardenState
	Stage    domain.Stage `json:"stage"`
	XPToNext int64        `json:"xp_to_next_level"`
	CanWater bool         `json:"can_water"`
}

// StatusOf derives the status view of a state.
func StatusOf(g domain.GardenState) GardenStatus {
	return GardenStatus{
		GardenState: g,
		Stage:       g.Stage(),
		XPToNext:    domain.XPToNextLevel(g.XP),
		CanWater:    g.WaterTokens > 0,
	}
}

// EnsureInitialized creates the garden row with defaults if it does not
// exist yet. Calls after the first are plain reads.
func (s *GardenService) EnsureInitialized(ctx context.Context) (domain.GardenState, error) {
	g, err := s.store.GetGardenState(ctx)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("get_garden").Inc()
		return domain.GardenState{}, fmt.Errorf("load garden: %w: %w", domain.ErrStorageUnavailable, err)
	}
	if g != nil {
		return *g, nil
	}
	return s.mutate(ctx, "init_garden", func(*domain.GardenState, time.Time) bool { return false })
}

// State returns the current garden state, creating it if needed.
func (s *GardenService) State(ctx context.Context) (domain.GardenState, error) {
	return s.EnsureInitialized(ctx)
}

// CheckDailyReset grants the free daily token on the first call of a new
// calendar day: tokens = min(tokens+1, cap), and flags the daily reward.
// Later calls on the same day change nothing.
func (s *GardenService) CheckDailyReset(ctx context.Context) (domain.GardenState, error) {
	return s.mutate(ctx, "daily_reset", func(g *domain.GardenState, now time.Time) bool {
		if domain.SameDay(g.LastDailyReset, now) {
			return false
		}
		s.grant(g, domain.RewardDaily, true, now)
		g.LastDailyReset = now
		g.PendingDaily = true
		return true
	})
}

// ClaimMoodToken grants the once-per-day mood token. Call it once per
// successful mood save; repeat claims on the same day are no-ops.
func (s *GardenService) ClaimMoodToken(ctx context.Context) (domain.GardenState, error) {
	return s.mutate(ctx, "claim_mood", func(g *domain.GardenState, now time.Time) bool {
		if domain.SameDay(g.LastMoodToken, now) {
			return false
		}
		s.grant(g, domain.RewardMood, s.policy.CapClaimGrants, now)
		g.LastMoodToken = now
		g.PendingMood = true
		return true
	})
}

// ClaimJournalToken grants the once-per-day journal token.
func (s *GardenService) ClaimJournalToken(ctx context.Context) (domain.GardenState, error) {
	return s.mutate(ctx, "claim_journal", func(g *domain.GardenState, now time.Time) bool {
		if domain.SameDay(g.LastJournalToken, now) {
			return false
		}
		s.grant(g, domain.RewardJournal, s.policy.CapClaimGrants, now)
		g.LastJournalToken = now
		g.PendingJournal = true
		return true
	})
}

// ClearPendingRewards acknowledges every pending reward animation.
// Nothing is written when no flag was set.
func (s *GardenService) ClearPendingRewards(ctx context.Context) (domain.GardenState, error) {
	return s.mutate(ctx, "clear_rewards", func(g *domain.GardenState, _ time.Time) bool {
		if !g.HasPendingReward() {
			return false
		}
		g.PendingDaily, g.PendingMood, g.PendingJournal = false, false, false
		return true
	})
}

// WaterPlant spends one token for WaterXP experience and recomputes the
// level. With no tokens it is a no-op and watered is false.
func (s *GardenService) WaterPlant(ctx context.Context) (state domain.GardenState, watered bool, err error) {
	state, err = s.mutate(ctx, "water", func(g *domain.GardenState, now time.Time) bool {
		if g.WaterTokens <= 0 {
			return false
		}
		oldLevel := g.Level
		g.XP += s.policy.WaterXP
		g.WaterTokens--
		g.Level = domain.LevelForXP(g.XP)
		s.record(domain.LedgerEntry{
			At:      now,
			Kind:    domain.LedgerWater,
			Tokens:  -1,
			XP:      s.policy.WaterXP,
			Balance: g.WaterTokens,
		})
		if g.Level > oldLevel {
			s.log.Info("garden leveled up", "level", g.Level, "stage", g.Stage())
		}
		watered = true
		return true
	})
	if err != nil {
		return state, false, err
	}
	if watered {
		metrics.Waterings.Inc()
	}
	return state, watered, nil
}

// grant adds one token to g, bounded by the policy cap when capped is set.
// A capped grant never lowers a balance that uncapped claims already
// pushed above the cap.
func (s *GardenService) grant(g *domain.GardenState, source domain.RewardSource, capped bool, now time.Time) {
	before := g.WaterTokens
	g.WaterTokens++
	if capped && g.WaterTokens > s.policy.TokenCap {
		g.WaterTokens = max(before, s.policy.TokenCap)
	}
	if g.WaterTokens > before {
		metrics.TokensGranted.WithLabelValues(string(source)).Inc()
	}
	s.record(domain.LedgerEntry{
		At:      now,
		Kind:    domain.LedgerGrant,
		Source:  source,
		Tokens:  g.WaterTokens - before,
		Balance: g.WaterTokens,
	})
	s.log.Debug("token grant", "source", source, "tokens", g.WaterTokens)
}

// record queues a ledger entry for the mutation in progress. Callers hold mu.
func (s *GardenService) record(e domain.LedgerEntry) {
	s.queued = append(s.queued, e)
}

// mutate runs fn against the current state inside one store transaction and
// writes the result, with its ledger entries, only when fn reports a change.
// A missing row is created first, in the same transaction.
func (s *GardenService) mutate(ctx context.Context, op string, fn func(g *domain.GardenState, now time.Time) bool) (domain.GardenState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := domain.Stamp(s.clock.Now())
	var current, result domain.GardenState
	var wrote bool
	err := s.store.UpdateGarden(ctx, func(tx domain.GardenTx) error {
		s.queued = s.queued[:0]
		wrote = false

		g, created, err := s.load(ctx, tx, now)
		if err != nil {
			return err
		}
		current, result, wrote = g, g, created

		next := g
		if fn(&next, now) {
			if err := tx.UpsertGardenState(ctx, next); err != nil {
				return err
			}
			result, wrote = next, true
		}
		for _, e := range s.queued {
			if err := tx.AppendLedger(ctx, e); err != nil {
				return fmt.Errorf("append ledger: %w", err)
			}
		}
		return nil
	})
	s.queued = s.queued[:0]
	if err != nil {
		metrics.StorageErrors.WithLabelValues(op).Inc()
		s.log.Error("persist garden failed", "op", op, "error", err)
		return current, fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
	}
	if wrote {
		metrics.ObserveGarden(result.Level, result.XP, result.WaterTokens)
	}
	return result, nil
}

// load reads the singleton row inside tx, creating the default one (and its
// seed ledger entry) when none exists.
func (s *GardenService) load(ctx context.Context, tx domain.GardenTx, now time.Time) (domain.GardenState, bool, error) {
	g, err := tx.GetGardenState(ctx)
	if err != nil {
		return domain.GardenState{}, false, fmt.Errorf("load garden: %w", err)
	}
	if g != nil {
		return *g, false, nil
	}

	def := domain.DefaultGardenState(now)
	if err := tx.UpsertGardenState(ctx, def); err != nil {
		return domain.GardenState{}, false, fmt.Errorf("init garden: %w", err)
	}
	s.record(domain.LedgerEntry{
		At:      now,
		Kind:    domain.LedgerSeed,
		Source:  domain.RewardDaily,
		Tokens:  def.WaterTokens,
		Balance: def.WaterTokens,
	})
	s.log.Info("garden created", "tokens", def.WaterTokens)
	return def, true, nil
}
