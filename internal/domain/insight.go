package domain

import "time"

// ─── Insight Types ──────────────────────────────────────────────────────────

// EventKind tags the source of a timeline event.
type EventKind string

const (
	EventMood    EventKind = "mood"
	EventJournal EventKind = "journal"
)

// TimelineEvent is one entry of a merged daily timeline. Exactly one of
// Mood or Journal is set, matching Kind.
type TimelineEvent struct {
	Kind    EventKind      `json:"kind"`
	At      time.Time      `json:"at"`
	Mood    *MoodRecord    `json:"mood,omitempty"`
	Journal *JournalRecord `json:"journal,omitempty"`
}

// DayActivity marks whether anything was logged on a day.
type DayActivity struct {
	Date   time.Time `json:"date"`
	Label  string    `json:"label"`
	Active bool      `json:"active"`
}

// MoodShare is one non-zero slice of a weekly distribution.
type MoodShare struct {
	Mood    Mood `json:"mood"`
	Count   int  `json:"count"`
	Percent int  `json:"percent"`
}

// InsightTier buckets a month by number of distinct active days.
type InsightTier string

const (
	TierBaseline InsightTier = "baseline" // <= 5 days
	TierSteady   InsightTier = "steady"   // 6..15 days
	TierThriving InsightTier = "thriving" // > 15 days
)
