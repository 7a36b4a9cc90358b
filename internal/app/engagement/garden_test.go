package engagement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/domain"
)

// memStore is an in-memory GardenStore with failure injection. UpdateGarden
// holds mu for the whole transaction and keeps writes only on success.
type memStore struct {
	mu         sync.Mutex
	state      *domain.GardenState
	entries    []domain.LedgerEntry
	writes     int
	failGet    error
	failPut    error
	failAppend error
}

func (m *memStore) GetGardenState(ctx context.Context) (*domain.GardenState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get()
}

func (m *memStore) get() (*domain.GardenState, error) {
	if m.failGet != nil {
		return nil, m.failGet
	}
	if m.state == nil {
		return nil, nil
	}
	g := *m.state
	return &g, nil
}

func (m *memStore) UpdateGarden(ctx context.Context, fn func(tx domain.GardenTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{m: m}
	if err := fn(tx); err != nil {
		return err
	}
	if tx.state != nil {
		m.state = tx.state
		m.writes += tx.writes
	}
	m.entries = append(m.entries, tx.entries...)
	return nil
}

// memTx stages writes until UpdateGarden commits them.
type memTx struct {
	m       *memStore
	state   *domain.GardenState
	writes  int
	entries []domain.LedgerEntry
}

func (t *memTx) GetGardenState(ctx context.Context) (*domain.GardenState, error) {
	if t.state != nil {
		g := *t.state
		return &g, nil
	}
	return t.m.get()
}

func (t *memTx) UpsertGardenState(ctx context.Context, g domain.GardenState) error {
	if t.m.failPut != nil {
		return t.m.failPut
	}
	t.state = &g
	t.writes++
	return nil
}

func (t *memTx) AppendLedger(ctx context.Context, e domain.LedgerEntry) error {
	if t.m.failAppend != nil {
		return t.m.failAppend
	}
	t.entries = append(t.entries, e)
	return nil
}

var start = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, seed *domain.GardenState) (*engagement.GardenService, *memStore, *clockwork.FakeClock) {
	t.Helper()
	store := &memStore{state: seed}
	clock := clockwork.NewFakeClockAt(start)
	svc := engagement.NewGardenService(store, clock, engagement.DefaultPolicy(), nil)
	return svc, store, clock
}

func seeded(tokens int, xp int64) *domain.GardenState {
	return &domain.GardenState{
		XP:             xp,
		WaterTokens:    tokens,
		Level:          domain.LevelForXP(xp),
		LastDailyReset: start,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Initialization
// ═══════════════════════════════════════════════════════════════════════════

func TestEnsureInitialized_CreatesDefaults(t *testing.T) {
	svc, store, _ := newService(t, nil)
	ctx := context.Background()

	g, err := svc.EnsureInitialized(ctx)
	if err != nil {
		t.Fatalf("EnsureInitialized: %v", err)
	}
	if g.XP != 0 || g.WaterTokens != 1 || g.Level != 1 || !g.PendingDaily {
		t.Errorf("defaults = %+v", g)
	}
	if store.writes != 1 {
		t.Errorf("writes = %d, want 1", store.writes)
	}

	// Second call is a read.
	if _, err := svc.EnsureInitialized(ctx); err != nil {
		t.Fatalf("second EnsureInitialized: %v", err)
	}
	if store.writes != 1 {
		t.Errorf("writes after second call = %d, want 1", store.writes)
	}
}

func TestEnsureInitialized_SameDayResetDoesNotDoubleGrant(t *testing.T) {
	svc, _, _ := newService(t, nil)
	ctx := context.Background()
	_, _ = svc.EnsureInitialized(ctx)

	g, err := svc.CheckDailyReset(ctx)
	if err != nil {
		t.Fatalf("CheckDailyReset: %v", err)
	}
	if g.WaterTokens != 1 {
		t.Errorf("tokens = %d, want 1 (creation token is today's grant)", g.WaterTokens)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Daily Reset
// ═══════════════════════════════════════════════════════════════════════════

func TestCheckDailyReset_IdempotentWithinDay(t *testing.T) {
	svc, store, clock := newService(t, seeded(2, 0))
	ctx := context.Background()

	clock.Advance(24 * time.Hour)
	first, err := svc.CheckDailyReset(ctx)
	if err != nil {
		t.Fatalf("first reset: %v", err)
	}
	if first.WaterTokens != 3 || !first.PendingDaily {
		t.Errorf("after first reset = %+v", first)
	}
	writes := store.writes

	clock.Advance(3 * time.Hour)
	second, err := svc.CheckDailyReset(ctx)
	if err != nil {
		t.Fatalf("second reset: %v", err)
	}
	if !second.Equal(first) {
		t.Errorf("second reset changed state: %+v vs %+v", second, first)
	}
	if store.writes != writes {
		t.Errorf("second reset wrote to the store")
	}
}

func TestCheckDailyReset_Cap(t *testing.T) {
	tests := []struct {
		from, want int
	}{
		{4, 5},
		{5, 5},
		{0, 1},
	}
	for _, tt := range tests {
		svc, _, clock := newService(t, seeded(tt.from, 0))
		clock.Advance(24 * time.Hour)
		g, err := svc.CheckDailyReset(context.Background())
		if err != nil {
			t.Fatalf("reset from %d: %v", tt.from, err)
		}
		if g.WaterTokens != tt.want {
			t.Errorf("reset from %d tokens = %d, want %d", tt.from, g.WaterTokens, tt.want)
		}
		if !g.PendingDaily {
			t.Errorf("reset from %d: daily reward should be pending even when capped", tt.from)
		}
	}
}

func TestCheckDailyReset_UsesCalendarDayNot24h(t *testing.T) {
	late := &domain.GardenState{WaterTokens: 1, Level: 1, LastDailyReset: time.Date(2025, 7, 1, 23, 50, 0, 0, time.UTC)}
	svc, _, clock := newService(t, late)
	clock.Advance(15*time.Hour + 5*time.Minute) // 2025-07-02 00:05

	g, err := svc.CheckDailyReset(context.Background())
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if g.WaterTokens != 2 {
		t.Errorf("tokens = %d, want 2 after midnight rollover", g.WaterTokens)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Claims
// ═══════════════════════════════════════════════════════════════════════════

func TestClaimMoodToken_OncePerDay(t *testing.T) {
	svc, _, clock := newService(t, seeded(1, 0))
	ctx := context.Background()

	g1, err := svc.ClaimMoodToken(ctx)
	if err != nil {
		t.Fatalf("claim 1: %v", err)
	}
	clock.Advance(time.Hour)
	g2, err := svc.ClaimMoodToken(ctx)
	if err != nil {
		t.Fatalf("claim 2: %v", err)
	}
	if g1.WaterTokens != 2 || g2.WaterTokens != 2 {
		t.Errorf("tokens after claims = %d, %d; want 2, 2", g1.WaterTokens, g2.WaterTokens)
	}
	if !g2.PendingMood {
		t.Error("mood reward should be pending")
	}

	clock.Advance(24 * time.Hour)
	g3, _ := svc.ClaimMoodToken(ctx)
	if g3.WaterTokens != 3 {
		t.Errorf("next-day claim tokens = %d, want 3", g3.WaterTokens)
	}
}

func TestClaimJournalToken_IndependentOfMood(t *testing.T) {
	svc, _, _ := newService(t, seeded(1, 0))
	ctx := context.Background()

	_, _ = svc.ClaimMoodToken(ctx)
	g, err := svc.ClaimJournalToken(ctx)
	if err != nil {
		t.Fatalf("claim journal: %v", err)
	}
	if g.WaterTokens != 3 || !g.PendingJournal || !g.PendingMood {
		t.Errorf("state = %+v", g)
	}
	g, _ = svc.ClaimJournalToken(ctx)
	if g.WaterTokens != 3 {
		t.Errorf("second journal claim tokens = %d, want 3", g.WaterTokens)
	}
}

func TestClaim_CapPolicy(t *testing.T) {
	ctx := context.Background()

	capped, _, _ := newService(t, seeded(5, 0))
	g, _ := capped.ClaimMoodToken(ctx)
	if g.WaterTokens != 5 {
		t.Errorf("capped claim tokens = %d, want 5", g.WaterTokens)
	}

	store := &memStore{state: seeded(5, 0)}
	policy := engagement.DefaultPolicy()
	policy.CapClaimGrants = false
	uncapped := engagement.NewGardenService(store, clockwork.NewFakeClockAt(start), policy, nil)
	g, _ = uncapped.ClaimMoodToken(ctx)
	g, _ = uncapped.ClaimJournalToken(ctx)
	if g.WaterTokens != 7 {
		t.Errorf("uncapped claims tokens = %d, want 7", g.WaterTokens)
	}
}

func TestCheckDailyReset_KeepsUncappedBalance(t *testing.T) {
	ctx := context.Background()
	store := &memStore{state: seeded(7, 0)}
	policy := engagement.DefaultPolicy()
	policy.CapClaimGrants = false
	clock := clockwork.NewFakeClockAt(start)
	svc := engagement.NewGardenService(store, clock, policy, nil)

	clock.Advance(24 * time.Hour)
	g, err := svc.CheckDailyReset(ctx)
	if err != nil {
		t.Fatalf("CheckDailyReset: %v", err)
	}
	if g.WaterTokens != 7 {
		t.Errorf("tokens = %d, want 7 (daily grant capped, balance not lowered)", g.WaterTokens)
	}
	if !g.PendingDaily {
		t.Error("capped daily grant should still flag the reward")
	}
	if len(store.entries) != 1 || store.entries[0].Tokens != 0 {
		t.Errorf("entries = %+v, want one zero-token grant", store.entries)
	}
}

func TestClaim_ConcurrentTriggersGrantOnce(t *testing.T) {
	svc, _, _ := newService(t, seeded(0, 0))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ClaimMoodToken(ctx)
		}()
	}
	wg.Wait()

	g, _ := svc.State(ctx)
	if g.WaterTokens != 1 {
		t.Errorf("tokens = %d, want exactly 1 grant", g.WaterTokens)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pending Rewards
// ═══════════════════════════════════════════════════════════════════════════

func TestClearPendingRewards(t *testing.T) {
	svc, store, _ := newService(t, nil)
	ctx := context.Background()

	_, _ = svc.ClaimJournalToken(ctx)
	g, err := svc.ClearPendingRewards(ctx)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if g.HasPendingReward() {
		t.Errorf("flags still set: %+v", g)
	}

	writes := store.writes
	if _, err := svc.ClearPendingRewards(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if store.writes != writes {
		t.Error("clearing with no pending flags should not write")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Watering
// ═══════════════════════════════════════════════════════════════════════════

func TestWaterPlant_Arithmetic(t *testing.T) {
	svc, _, _ := newService(t, seeded(3, 0))
	ctx := context.Background()

	var g domain.GardenState
	for i := 0; i < 3; i++ {
		var ok bool
		var err error
		g, ok, err = svc.WaterPlant(ctx)
		if err != nil || !ok {
			t.Fatalf("water %d: ok=%v err=%v", i, ok, err)
		}
	}
	if g.XP != 60 || g.Level != 1 || g.WaterTokens != 0 {
		t.Errorf("after 3 waterings = %+v, want 60 XP, level 1, 0 tokens", g)
	}

	after, ok, err := svc.WaterPlant(ctx)
	if err != nil {
		t.Fatalf("fourth water: %v", err)
	}
	if ok {
		t.Error("watering with no tokens should report false")
	}
	if !after.Equal(g) {
		t.Errorf("no-op watering changed state: %+v", after)
	}
}

func TestWaterPlant_LevelUpAndStage(t *testing.T) {
	svc, _, _ := newService(t, seeded(2, 80))
	g, _, _ := svc.WaterPlant(context.Background())
	if g.XP != 100 || g.Level != 2 {
		t.Errorf("state = %+v, want 100 XP level 2", g)
	}
	if g.Stage() != domain.StageSprout {
		t.Errorf("stage = %s, want sprout", g.Stage())
	}
	status := engagement.StatusOf(g)
	if status.XPToNext != 100 || !status.CanWater {
		t.Errorf("status = %+v", status)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Storage Failures
// ═══════════════════════════════════════════════════════════════════════════

func TestStorageFailuresPropagate(t *testing.T) {
	boom := errors.New("disk gone")
	ctx := context.Background()

	svc, store, _ := newService(t, seeded(1, 0))
	store.failGet = boom
	if _, err := svc.CheckDailyReset(ctx); !errors.Is(err, domain.ErrStorageUnavailable) || !errors.Is(err, boom) {
		t.Errorf("get failure err = %v", err)
	}

	svc, store, _ = newService(t, seeded(1, 0))
	store.failPut = boom
	g, ok, err := svc.WaterPlant(ctx)
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("put failure err = %v", err)
	}
	if ok || g.WaterTokens != 1 {
		t.Errorf("failed write should return the unchanged state, got ok=%v %+v", ok, g)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Ledger
// ═══════════════════════════════════════════════════════════════════════════

func TestLedger_RecordsEveryChange(t *testing.T) {
	svc, store, clock := newService(t, nil)
	ctx := context.Background()

	svc.EnsureInitialized(ctx)
	svc.ClaimMoodToken(ctx)
	svc.ClaimMoodToken(ctx) // no-op, no entry
	svc.WaterPlant(ctx)
	clock.Advance(24 * time.Hour)
	svc.CheckDailyReset(ctx)

	got := store.entries
	if len(got) != 4 {
		t.Fatalf("entries = %d, want 4: %+v", len(got), got)
	}
	want := []struct {
		kind    domain.LedgerKind
		tokens  int
		balance int
	}{
		{domain.LedgerSeed, 1, 1},
		{domain.LedgerGrant, 1, 2},
		{domain.LedgerWater, -1, 1},
		{domain.LedgerGrant, 1, 2},
	}
	for i, w := range want {
		if got[i].Kind != w.kind || got[i].Tokens != w.tokens || got[i].Balance != w.balance {
			t.Errorf("entry %d = %+v, want %v", i, got[i], w)
		}
	}
	if got[1].Source != domain.RewardMood || got[3].Source != domain.RewardDaily {
		t.Errorf("sources = %q, %q", got[1].Source, got[3].Source)
	}
	if got[2].XP != engagement.DefaultPolicy().WaterXP {
		t.Errorf("water XP = %d", got[2].XP)
	}
}

func TestLedger_CappedGrantHasZeroTokens(t *testing.T) {
	svc, store, _ := newService(t, seeded(5, 0))

	g, err := svc.ClaimMoodToken(context.Background())
	if err != nil {
		t.Fatalf("ClaimMoodToken: %v", err)
	}
	if g.WaterTokens != 5 {
		t.Fatalf("WaterTokens = %d, want 5", g.WaterTokens)
	}
	if len(store.entries) != 1 || store.entries[0].Tokens != 0 || store.entries[0].Balance != 5 {
		t.Errorf("entries = %+v", store.entries)
	}
}

func TestLedger_FailedWriteRecordsNothing(t *testing.T) {
	svc, store, _ := newService(t, seeded(1, 0))
	store.failPut = errors.New("disk gone")

	svc.WaterPlant(context.Background())
	if len(store.entries) != 0 {
		t.Errorf("entries = %+v, want none after a failed upsert", store.entries)
	}

	// A later successful mutation must not replay the dropped entry.
	store.failPut = nil
	svc.WaterPlant(context.Background())
	if len(store.entries) != 1 || store.entries[0].Balance != 0 {
		t.Errorf("entries = %+v", store.entries)
	}
}

func TestLedger_AppendFailureRollsBackGardenChange(t *testing.T) {
	svc, store, _ := newService(t, seeded(1, 0))
	store.failAppend = errors.New("ledger full")

	g, ok, err := svc.WaterPlant(context.Background())
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Fatalf("err = %v, want ErrStorageUnavailable", err)
	}
	if ok || g.WaterTokens != 1 {
		t.Errorf("WaterPlant = %v, %+v, want unchanged state", ok, g)
	}
	if store.state.WaterTokens != 1 || store.state.XP != 0 {
		t.Errorf("stored = %+v, want the write rolled back", *store.state)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Timestamps
// ═══════════════════════════════════════════════════════════════════════════

func TestMutation_StampsAtStoreResolution(t *testing.T) {
	store := &memStore{state: seeded(1, 0)}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 7, 2, 10, 0, 0, 123456789, time.UTC))
	svc := engagement.NewGardenService(store, clock, engagement.DefaultPolicy(), nil)

	g, err := svc.ClaimMoodToken(context.Background())
	if err != nil {
		t.Fatalf("ClaimMoodToken: %v", err)
	}
	want := time.Date(2025, 7, 2, 10, 0, 0, 123000000, time.UTC)
	if !g.LastMoodToken.Equal(want) {
		t.Errorf("LastMoodToken = %v, want %v", g.LastMoodToken, want)
	}
	if store.entries[0].At.Nanosecond()%int(time.Millisecond) != 0 {
		t.Errorf("ledger At = %v, want millisecond resolution", store.entries[0].At)
	}
}
