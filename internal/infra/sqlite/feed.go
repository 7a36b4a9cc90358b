package sqlite

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Change Feed ────────────────────────────────────────────────────────────
// Writes publish a signal per table; observers re-query and deliver a fresh
// snapshot. Signals coalesce, so a slow observer skips to the latest state.

type topic string

const (
	topicMoods    topic = "moods"
	topicJournals topic = "journals"
	topicGarden   topic = "garden"
)

type broadcaster struct {
	mu   sync.Mutex
	subs map[topic]map[chan struct{}]struct{}
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[topic]map[chan struct{}]struct{})}
}

func (b *broadcaster) subscribe(t topic) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.subs[t] == nil {
		b.subs[t] = make(map[chan struct{}]struct{})
	}
	b.subs[t][ch] = struct{}{}
	b.mu.Unlock()

	return ch, func() {
		b.mu.Lock()
		delete(b.subs[t], ch)
		b.mu.Unlock()
	}
}

func (b *broadcaster) publish(topics ...topic) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range topics {
		for ch := range b.subs[t] {
			select {
			case ch <- struct{}{}:
			default: // already signalled
			}
		}
	}
}

// WatchInterval is how often Watch polls for commits from other connections.
const WatchInterval = 2 * time.Second

// Watch republishes every topic when another connection to the same file
// has committed, such as a CLI command writing while the daemon serves.
// PRAGMA data_version only moves for commits made by other connections, so
// this handle's own writes, already published, are not signalled twice.
// Watch blocks until ctx is done and returns nil then.
func (d *DB) Watch(ctx context.Context, clock clockwork.Clock, every time.Duration) error {
	last, err := d.dataVersion(ctx)
	if err != nil {
		return err
	}
	ticker := clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
		v, err := d.dataVersion(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.log.Warn("poll data_version failed", "error", err)
			continue
		}
		if v != last {
			last = v
			d.feed.publish(topicMoods, topicJournals, topicGarden)
		}
	}
}

func (d *DB) dataVersion(ctx context.Context) (int64, error) {
	var v int64
	err := d.db.QueryRowContext(ctx, "PRAGMA data_version").Scan(&v)
	return v, err
}

// observe delivers load's result now and after every write to t until ctx ends.
func observe[T any](ctx context.Context, d *DB, t topic, load func(context.Context) (T, error)) (<-chan T, error) {
	sig, unsubscribe := d.feed.subscribe(t)
	snap, err := load(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}

	out := make(chan T, 1)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			for {
				select {
				case <-sig:
				case <-ctx.Done():
					return
				}
				next, err := load(ctx)
				if err == nil {
					snap = next
					break
				}
				if ctx.Err() != nil {
					return
				}
				// Keep the last good snapshot and retry on the next write.
				d.log.Warn("observer reload failed", "topic", string(t), "error", err)
			}
		}
	}()
	return out, nil
}

// ObserveMoods streams every check-in, newest first.
func (d *DB) ObserveMoods(ctx context.Context) (<-chan []domain.MoodRecord, error) {
	return observe(ctx, d, topicMoods, d.ListMoods)
}

// ObserveMoodsInRange streams check-ins with start <= created_at < end.
func (d *DB) ObserveMoodsInRange(ctx context.Context, start, end time.Time) (<-chan []domain.MoodRecord, error) {
	return observe(ctx, d, topicMoods, func(ctx context.Context) ([]domain.MoodRecord, error) {
		return d.ListMoodsInRange(ctx, start, end)
	})
}

// ObserveJournals streams every journal entry, newest first.
func (d *DB) ObserveJournals(ctx context.Context) (<-chan []domain.JournalRecord, error) {
	return observe(ctx, d, topicJournals, d.ListJournals)
}

// ObserveGardenState streams the garden row; nil until it is created.
func (d *DB) ObserveGardenState(ctx context.Context) (<-chan *domain.GardenState, error) {
	return observe(ctx, d, topicGarden, d.GetGardenState)
}
