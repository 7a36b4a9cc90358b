package insights

import (
	"sort"
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// DailyTimeline merges the mood and journal records of day's calendar date
// into one list, newest first. An empty result means no activity.
func DailyTimeline(moods []domain.MoodRecord, journals []domain.JournalRecord, day time.Time) []domain.TimelineEvent {
	events := make([]domain.TimelineEvent, 0)
	for i := range moods {
		m := moods[i]
		if m.Validate() != nil || !domain.SameDay(m.CreatedAt, day) {
			continue
		}
		events = append(events, domain.TimelineEvent{Kind: domain.EventMood, At: m.CreatedAt, Mood: &m})
	}
	for i := range journals {
		j := journals[i]
		if !domain.SameDay(j.CreatedAt, day) {
			continue
		}
		events = append(events, domain.TimelineEvent{Kind: domain.EventJournal, At: j.CreatedAt, Journal: &j})
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].At.After(events[b].At)
	})
	return events
}
