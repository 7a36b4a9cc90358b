// Package dashboard keeps a live view model of the home screen: every time
// the store reports new moods, journals or garden state, the insights are
// recomputed and pushed to subscribers.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/app/insights"
	"github.com/bloom-journal/bloom/internal/domain"
	"github.com/bloom-journal/bloom/internal/infra/logger"
)

// Snapshot is everything the home screen shows.
type Snapshot struct {
	At                 time.Time                `json:"at"`
	WeeklySeries       [7]float64               `json:"weekly_series"`
	Distribution       insights.Distribution    `json:"distribution"`
	Shares             []domain.MoodShare       `json:"shares"`
	Streak             int                      `json:"streak"`
	MonthlyCheckinDays int                      `json:"monthly_checkin_days"`
	MonthlyJournalDays int                      `json:"monthly_journal_days"`
	Tier               domain.InsightTier       `json:"tier"`
	Activity           [7]domain.DayActivity    `json:"activity"`
	Garden             *engagement.GardenStatus `json:"garden,omitempty"`
	Today              []domain.TimelineEvent   `json:"today"`
}

// Compute builds a snapshot from full record lists. garden may be nil
// before the garden row exists.
func Compute(moods []domain.MoodRecord, journals []domain.JournalRecord, garden *domain.GardenState, now time.Time) Snapshot {
	dist := insights.WeeklyDistribution(moods, now)
	moodTimes := insights.MoodTimes(moods)
	journalTimes := insights.JournalTimes(journals)
	journalDays := insights.MonthlyUniqueDayCount(journalTimes, now)

	s := Snapshot{
		At:                 now,
		WeeklySeries:       insights.WeeklySeries(moods, now),
		Distribution:       dist,
		Shares:             dist.NonZero(),
		Streak:             insights.Streak(append(moodTimes, journalTimes...), now),
		MonthlyCheckinDays: insights.MonthlyUniqueDayCount(moodTimes, now),
		MonthlyJournalDays: journalDays,
		Tier:               insights.Tier(journalDays),
		Activity:           engagement.WeeklyActivityPresence(moods, journals, now),
		Today:              insights.DailyTimeline(moods, journals, now),
	}
	if garden != nil {
		st := engagement.StatusOf(*garden)
		s.Garden = &st
	}
	return s
}

// Dashboard recomputes snapshots from a live record feed.
type Dashboard struct {
	feed  domain.RecordFeed
	clock clockwork.Clock
	log   *logger.Logger

	mu       sync.Mutex
	moods    []domain.MoodRecord
	journals []domain.JournalRecord
	garden   *domain.GardenState
	seen     int // bitmask of streams that delivered at least once
	latest   *Snapshot
	subs     map[chan Snapshot]struct{}
}

const (
	seenMoods = 1 << iota
	seenJournals
	seenGarden
	seenAll = seenMoods | seenJournals | seenGarden
)

// New creates a dashboard over feed.
func New(feed domain.RecordFeed, clock clockwork.Clock, log *logger.Logger) *Dashboard {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dashboard{
		feed:  feed,
		clock: clock,
		log:   log.With("component", "dashboard"),
		subs:  make(map[chan Snapshot]struct{}),
	}
}

// Run follows the feed until ctx is cancelled. It returns nil on
// cancellation and the first subscription error otherwise.
func (d *Dashboard) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	moods, err := d.feed.ObserveMoods(ctx)
	if err != nil {
		return err
	}
	journals, err := d.feed.ObserveJournals(ctx)
	if err != nil {
		return err
	}
	garden, err := d.feed.ObserveGardenState(ctx)
	if err != nil {
		return err
	}

	g.Go(func() error {
		return follow(ctx, moods, func(v []domain.MoodRecord) {
			d.update(seenMoods, func() { d.moods = v })
		})
	})
	g.Go(func() error {
		return follow(ctx, journals, func(v []domain.JournalRecord) {
			d.update(seenJournals, func() { d.journals = v })
		})
	})
	g.Go(func() error {
		return follow(ctx, garden, func(v *domain.GardenState) {
			d.update(seenGarden, func() { d.garden = v })
		})
	})

	g.Go(func() error {
		return d.rollover(ctx)
	})

	d.log.Info("dashboard following record feed")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func follow[T any](ctx context.Context, ch <-chan T, apply func(T)) error {
	for {
		select {
		case v, ok := <-ch:
			if !ok {
				return ctx.Err()
			}
			apply(v)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// rollover recomputes the snapshot at each midnight so the day-relative
// fields (Today, Streak, Activity, the weekly and monthly windows) move on
// even when nothing is written.
func (d *Dashboard) rollover(ctx context.Context) error {
	for {
		now := d.clock.Now()
		midnight := domain.DayStart(now).AddDate(0, 0, 1)
		timer := d.clock.NewTimer(midnight.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
			d.update(0, func() {})
		}
	}
}

// update applies set and, once every stream has reported, publishes a
// recomputed snapshot.
func (d *Dashboard) update(stream int, set func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set()
	d.seen |= stream
	if d.seen != seenAll {
		return
	}
	snap := Compute(d.moods, d.journals, d.garden, d.clock.Now())
	d.latest = &snap
	for ch := range d.subs {
		offer(ch, snap)
	}
}

// Latest returns the most recent snapshot, if one has been computed.
func (d *Dashboard) Latest() (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.latest == nil {
		return Snapshot{}, false
	}
	return *d.latest, true
}

// Subscribe returns a channel of snapshots, starting with the latest one
// when available. A slow reader only ever sees the newest snapshot.
// The returned func unsubscribes and closes the channel.
func (d *Dashboard) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	d.mu.Lock()
	d.subs[ch] = struct{}{}
	if d.latest != nil {
		ch <- *d.latest
	}
	d.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, ch)
			close(ch)
			d.mu.Unlock()
		})
	}
}

// offer replaces any undelivered snapshot in ch with snap. Callers hold mu.
func offer(ch chan Snapshot, snap Snapshot) {
	select {
	case ch <- snap:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
