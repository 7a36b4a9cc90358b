package insights

import (
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// Tier thresholds on distinct active days in a month.
const (
	thrivingAbove = 15
	steadyAbove   = 5
)

// MonthlyUniqueDayCount returns how many distinct calendar days of ref's
// month and year appear in times. Several entries on one day count once.
func MonthlyUniqueDayCount(times []time.Time, ref time.Time) int {
	loc := ref.Location()
	year, month := ref.Year(), ref.Month()
	days := make(map[int]struct{})
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		lt := t.In(loc)
		if lt.Year() != year || lt.Month() != month {
			continue
		}
		days[lt.YearDay()] = struct{}{}
	}
	return len(days)
}

// Tier buckets a monthly unique-day count.
func Tier(uniqueDays int) domain.InsightTier {
	switch {
	case uniqueDays > thrivingAbove:
		return domain.TierThriving
	case uniqueDays > steadyAbove:
		return domain.TierSteady
	default:
		return domain.TierBaseline
	}
}

// MoodTimes projects well-formed mood records to their timestamps.
func MoodTimes(records []domain.MoodRecord) []time.Time {
	out := make([]time.Time, 0, len(records))
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		out = append(out, r.CreatedAt)
	}
	return out
}

// JournalTimes projects journal records to their timestamps.
func JournalTimes(records []domain.JournalRecord) []time.Time {
	out := make([]time.Time, 0, len(records))
	for _, r := range records {
		out = append(out, r.CreatedAt)
	}
	return out
}
