package journal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Fakes ──────────────────────────────────────────────────────────────────

type memStore struct {
	mu       sync.Mutex
	moods    []domain.MoodRecord
	journals map[string]domain.JournalRecord
	fail     error
}

func newMemStore() *memStore {
	return &memStore{journals: make(map[string]domain.JournalRecord)}
}

func (m *memStore) InsertMood(_ context.Context, r domain.MoodRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.moods = append(m.moods, r)
	return nil
}

func (m *memStore) ListMoods(context.Context) ([]domain.MoodRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.MoodRecord(nil), m.moods...), m.fail
}

func (m *memStore) ListMoodsInRange(ctx context.Context, _, _ time.Time) ([]domain.MoodRecord, error) {
	return m.ListMoods(ctx)
}

func (m *memStore) ClearMoods(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.moods = nil
	return nil
}

func (m *memStore) InsertJournal(_ context.Context, r domain.JournalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.journals[r.ID] = r
	return nil
}

func (m *memStore) GetJournal(_ context.Context, id string) (*domain.JournalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.journals[id]
	if !ok {
		return nil, m.fail
	}
	return &j, m.fail
}

func (m *memStore) ListJournals(context.Context) ([]domain.JournalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.JournalRecord
	for _, j := range m.journals {
		out = append(out, j)
	}
	return out, m.fail
}

func (m *memStore) UpdateJournal(_ context.Context, r domain.JournalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journals[r.ID]; !ok {
		return domain.ErrJournalNotFound
	}
	m.journals[r.ID] = r
	return nil
}

func (m *memStore) DeleteJournal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.journals[id]; !ok {
		return domain.ErrJournalNotFound
	}
	delete(m.journals, id)
	return nil
}

type countingRewarder struct {
	mood, journal int
	fail          error
}

func (c *countingRewarder) ClaimMoodToken(context.Context) (domain.GardenState, error) {
	c.mood++
	return domain.GardenState{}, c.fail
}

func (c *countingRewarder) ClaimJournalToken(context.Context) (domain.GardenState, error) {
	c.journal++
	return domain.GardenState{}, c.fail
}

var now = time.Date(2025, 7, 9, 20, 15, 0, 0, time.UTC)

func newTestService() (*Service, *memStore, *countingRewarder) {
	store := newMemStore()
	rw := &countingRewarder{}
	return NewService(store, rw, clockwork.NewFakeClockAt(now), nil), store, rw
}

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

func TestLogMood(t *testing.T) {
	svc, store, rw := newTestService()

	rec, err := svc.LogMood(context.Background(), MoodInput{
		Mood: domain.MoodHappy, Intensity: 4, Prompt: " Why? ", Answer: "sunny",
	})
	if err != nil {
		t.Fatalf("LogMood: %v", err)
	}
	if rec.ID == "" {
		t.Error("ID should be assigned")
	}
	if !rec.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, now)
	}
	if rec.Prompt != "Why?" {
		t.Errorf("Prompt = %q, want trimmed", rec.Prompt)
	}
	if len(store.moods) != 1 {
		t.Errorf("stored = %d, want 1", len(store.moods))
	}
	if rw.mood != 1 || rw.journal != 0 {
		t.Errorf("claims = mood %d journal %d, want 1/0", rw.mood, rw.journal)
	}
}

func TestTimestampsAtStoreResolution(t *testing.T) {
	store := newMemStore()
	clock := clockwork.NewFakeClockAt(time.Date(2025, 7, 9, 10, 0, 0, 123456789, time.UTC))
	svc := NewService(store, &countingRewarder{}, clock, nil)
	want := time.Date(2025, 7, 9, 10, 0, 0, 123000000, time.UTC)

	rec, err := svc.LogMood(context.Background(), MoodInput{Mood: domain.MoodNeutral, Intensity: 2})
	if err != nil {
		t.Fatalf("LogMood: %v", err)
	}
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("mood CreatedAt = %v, want %v", rec.CreatedAt, want)
	}

	entry, err := svc.WriteJournal(context.Background(), EntryInput{Title: "t"})
	if err != nil {
		t.Fatalf("WriteJournal: %v", err)
	}
	if !entry.CreatedAt.Equal(want) {
		t.Errorf("journal CreatedAt = %v, want %v", entry.CreatedAt, want)
	}
}

func TestLogMood_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   MoodInput
		want error
	}{
		{"bad mood", MoodInput{Mood: 7, Intensity: 3}, domain.ErrInvalidMood},
		{"low intensity", MoodInput{Mood: domain.MoodSad, Intensity: 0.5}, domain.ErrInvalidIntensity},
		{"high intensity", MoodInput{Mood: domain.MoodSad, Intensity: 5.5}, domain.ErrInvalidIntensity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, rw := newTestService()
			_, err := svc.LogMood(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if len(store.moods) != 0 || rw.mood != 0 {
				t.Error("invalid input must not be stored or rewarded")
			}
		})
	}
}

func TestLogMood_StorageFailure(t *testing.T) {
	svc, store, rw := newTestService()
	store.fail = errors.New("disk full")

	_, err := svc.LogMood(context.Background(), MoodInput{Mood: domain.MoodSad, Intensity: 1})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("err = %v, want ErrStorageUnavailable", err)
	}
	if rw.mood != 0 {
		t.Error("failed save must not claim a token")
	}
}

func TestLogMood_ClaimFailureKeepsRecord(t *testing.T) {
	svc, store, rw := newTestService()
	rw.fail = domain.ErrStorageUnavailable

	rec, err := svc.LogMood(context.Background(), MoodInput{Mood: domain.MoodNeutral, Intensity: 3})
	if !errors.Is(err, domain.ErrStorageUnavailable) {
		t.Errorf("err = %v", err)
	}
	if rec.ID == "" || len(store.moods) != 1 {
		t.Error("record should be saved and returned even when the claim fails")
	}
}

// ─── Journal Entries ────────────────────────────────────────────────────────

func TestWriteJournal(t *testing.T) {
	svc, store, rw := newTestService()
	tag := domain.MoodExcited

	rec, err := svc.WriteJournal(context.Background(), EntryInput{
		Title: "Trip", Body: "Mountains.", Mood: &tag, Images: []string{"a.jpg"},
	})
	if err != nil {
		t.Fatalf("WriteJournal: %v", err)
	}
	if _, ok := store.journals[rec.ID]; !ok {
		t.Error("entry not stored")
	}
	if rw.journal != 1 || rw.mood != 0 {
		t.Errorf("claims = mood %d journal %d, want 0/1", rw.mood, rw.journal)
	}
}

func TestWriteJournal_Empty(t *testing.T) {
	svc, _, rw := newTestService()
	_, err := svc.WriteJournal(context.Background(), EntryInput{Title: "  ", Body: "\n"})
	if !errors.Is(err, domain.ErrEmptyJournal) {
		t.Errorf("err = %v, want ErrEmptyJournal", err)
	}
	if rw.journal != 0 {
		t.Error("empty entry must not be rewarded")
	}
}

func TestToggleArchiveAndDelete(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	rec, _ := svc.WriteJournal(ctx, EntryInput{Body: "note"})

	got, err := svc.ToggleArchive(ctx, rec.ID)
	if err != nil || !got.Archived {
		t.Fatalf("ToggleArchive = %+v, %v", got, err)
	}
	visible, _ := svc.Journals(ctx, false)
	if len(visible) != 0 {
		t.Errorf("archived entry listed: %d", len(visible))
	}
	all, _ := svc.Journals(ctx, true)
	if len(all) != 1 {
		t.Errorf("with archived = %d, want 1", len(all))
	}

	got, _ = svc.ToggleArchive(ctx, rec.ID)
	if got.Archived {
		t.Error("second toggle should unarchive")
	}

	if err := svc.DeleteJournal(ctx, rec.ID); err != nil {
		t.Fatalf("DeleteJournal: %v", err)
	}
	if err := svc.DeleteJournal(ctx, rec.ID); !errors.Is(err, domain.ErrJournalNotFound) {
		t.Errorf("second delete err = %v, want ErrJournalNotFound", err)
	}
	if errors.Is(svc.DeleteJournal(ctx, rec.ID), domain.ErrStorageUnavailable) {
		t.Error("not-found must not be reported as a storage failure")
	}
	if _, err := svc.ToggleArchive(ctx, "missing"); !errors.Is(err, domain.ErrJournalNotFound) {
		t.Errorf("ToggleArchive(missing) err = %v", err)
	}
}

func TestClearMoods(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.LogMood(ctx, MoodInput{Mood: domain.MoodSad, Intensity: 2})

	if err := svc.ClearMoods(ctx); err != nil {
		t.Fatalf("ClearMoods: %v", err)
	}
	moods, _ := svc.Moods(ctx)
	if len(moods) != 0 {
		t.Errorf("moods = %d, want 0", len(moods))
	}
}
