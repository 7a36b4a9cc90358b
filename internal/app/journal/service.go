// Package journal implements the save flows for mood check-ins and journal
// entries. Each successful save claims that source's daily water token.
package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/infra/logger"
	"github.com/bloom-journal/bloom/internal/infra/metrics"
)

// Store is the persistence the save flows need.
type Store interface {
	domain.MoodStore
	domain.JournalStore
}

// Rewarder grants the per-source daily tokens.
type Rewarder interface {
	ClaimMoodToken(ctx context.Context) (domain.GardenState, error)
	ClaimJournalToken(ctx context.Context) (domain.GardenState, error)
}

// MoodInput is a mood check-in before it is stored.
type MoodInput struct {
	Mood      domain.Mood `json:"mood"`
	Intensity float64     `json:"intensity"`
	Prompt    string      `json:"prompt,omitempty"`
	Answer    string      `json:"answer,omitempty"`
}

// EntryInput is a journal entry before it is stored.
type EntryInput struct {
	Title  string       `json:"title"`
	Body   string       `json:"body"`
	Mood   *domain.Mood `json:"mood,omitempty"`
	Images []string     `json:"images,omitempty"`
}

// Service saves records and triggers reward grants.
type Service struct {
	store   Store
	rewards Rewarder
	clock   clockwork.Clock
	log     *logger.Logger
}

// NewService creates a journal service.
func NewService(store Store, rewards Rewarder, clock clockwork.Clock, log *logger.Logger) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:   store,
		rewards: rewards,
		clock:   clock,
		log:     log.With("component", "journal"),
	}
}

// LogMood validates and stores a mood check-in, then claims the mood token.
// When the record is stored but the claim fails, the record is returned
// together with the error.
func (s *Service) LogMood(ctx context.Context, in MoodInput) (domain.MoodRecord, error) {
	rec := domain.MoodRecord{
		ID:        uuid.NewString(),
		Mood:      in.Mood,
		Intensity: in.Intensity,
		Prompt:    strings.TrimSpace(in.Prompt),
		Answer:    strings.TrimSpace(in.Answer),
		CreatedAt: domain.Stamp(s.clock.Now()),
	}
	if err := rec.Validate(); err != nil {
		return domain.MoodRecord{}, err
	}
	if err := s.store.InsertMood(ctx, rec); err != nil {
		return domain.MoodRecord{}, storageErr("insert_mood", err)
	}
	metrics.MoodCheckins.WithLabelValues(rec.Mood.String()).Inc()
	s.log.Info("mood logged", "id", rec.ID, "mood", rec.Mood)

	if _, err := s.rewards.ClaimMoodToken(ctx); err != nil {
		return rec, fmt.Errorf("claim mood token: %w", err)
	}
	return rec, nil
}

// WriteJournal validates and stores a journal entry, then claims the
// journal token.
func (s *Service) WriteJournal(ctx context.Context, in EntryInput) (domain.JournalRecord, error) {
	rec := domain.JournalRecord{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(in.Title),
		Body:      strings.TrimSpace(in.Body),
		Mood:      in.Mood,
		Images:    in.Images,
		CreatedAt: domain.Stamp(s.clock.Now()),
	}
	if err := rec.Validate(); err != nil {
		return domain.JournalRecord{}, err
	}
	if err := s.store.InsertJournal(ctx, rec); err != nil {
		return domain.JournalRecord{}, storageErr("insert_journal", err)
	}
	metrics.JournalEntries.Inc()
	s.log.Info("journal written", "id", rec.ID, "images", len(rec.Images))

	if _, err := s.rewards.ClaimJournalToken(ctx); err != nil {
		return rec, fmt.Errorf("claim journal token: %w", err)
	}
	return rec, nil
}

// ToggleArchive flips the archived flag of an entry and returns the result.
func (s *Service) ToggleArchive(ctx context.Context, id string) (domain.JournalRecord, error) {
	rec, err := s.store.GetJournal(ctx, id)
	if err != nil {
		return domain.JournalRecord{}, storageErr("get_journal", err)
	}
	if rec == nil {
		return domain.JournalRecord{}, fmt.Errorf("%w: %s", domain.ErrJournalNotFound, id)
	}
	rec.Archived = !rec.Archived
	if err := s.store.UpdateJournal(ctx, *rec); err != nil {
		return domain.JournalRecord{}, storageErr("update_journal", err)
	}
	return *rec, nil
}

// DeleteJournal removes an entry.
func (s *Service) DeleteJournal(ctx context.Context, id string) error {
	if err := s.store.DeleteJournal(ctx, id); err != nil {
		return storageErr("delete_journal", err)
	}
	s.log.Info("journal deleted", "id", id)
	return nil
}

// ClearMoods removes every mood record. Garden progress is kept.
func (s *Service) ClearMoods(ctx context.Context) error {
	if err := s.store.ClearMoods(ctx); err != nil {
		return storageErr("clear_moods", err)
	}
	s.log.Warn("mood history cleared")
	return nil
}

// Moods lists mood records, newest first.
func (s *Service) Moods(ctx context.Context) ([]domain.MoodRecord, error) {
	moods, err := s.store.ListMoods(ctx)
	if err != nil {
		return nil, storageErr("list_moods", err)
	}
	return moods, nil
}

// Journals lists journal entries, newest first. Archived entries are
// included only when withArchived is set.
func (s *Service) Journals(ctx context.Context, withArchived bool) ([]domain.JournalRecord, error) {
	all, err := s.store.ListJournals(ctx)
	if err != nil {
		return nil, storageErr("list_journals", err)
	}
	if withArchived {
		return all, nil
	}
	out := all[:0]
	for _, j := range all {
		if !j.Archived {
			out = append(out, j)
		}
	}
	return out, nil
}

// storageErr marks err as a storage failure. Not-found passes through
// unchanged so callers can tell the two apart.
func storageErr(op string, err error) error {
	if errors.Is(err, domain.ErrJournalNotFound) || errors.Is(err, domain.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.StorageErrors.WithLabelValues(op).Inc()
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStorageUnavailable, err)
}
