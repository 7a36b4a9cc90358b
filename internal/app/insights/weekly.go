// Package insights computes the derived views over mood and journal logs:
// weekly trend and distribution, monthly unique days, streaks, and the
// merged daily timeline. Everything here is pure and safe for concurrent use.
//
// Calendar days are resolved in the location of the reference time the
// caller passes in; record timestamps are converted into that location.
package insights

import (
	"math"
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// WeeklySeries returns one value per day of the Monday-start week that
// contains anchor, ordered Monday..Sunday. A day's value is the mean mood
// score (ordinal + 1) of its records, or 0 when nothing was logged.
func WeeklySeries(records []domain.MoodRecord, anchor time.Time) [7]float64 {
	var (
		sums   [7]float64
		counts [7]int
		series [7]float64
	)
	start := domain.WeekStart(anchor)
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		i, ok := weekIndex(start, r.CreatedAt)
		if !ok {
			continue
		}
		sums[i] += float64(r.Mood)
		counts[i]++
	}
	for i := range series {
		if counts[i] > 0 {
			series[i] = sums[i]/float64(counts[i]) + 1
		}
	}
	return series
}

// Distribution is the per-mood count over one week.
type Distribution struct {
	Counts [domain.MoodCount]int `json:"counts"`
	Total  int                   `json:"total"`
}

// Percent returns round(count / total * 100), or 0 for an empty week.
func (d Distribution) Percent(m domain.Mood) int {
	if d.Total == 0 || !m.Valid() {
		return 0
	}
	return int(math.Round(float64(d.Counts[m]) / float64(d.Total) * 100))
}

// NonZero lists the moods that occurred, in ordinal order.
func (d Distribution) NonZero() []domain.MoodShare {
	var shares []domain.MoodShare
	for _, m := range domain.AllMoods {
		if d.Counts[m] == 0 {
			continue
		}
		shares = append(shares, domain.MoodShare{Mood: m, Count: d.Counts[m], Percent: d.Percent(m)})
	}
	return shares
}

// Empty reports whether nothing was logged in the week.
func (d Distribution) Empty() bool { return d.Total == 0 }

// WeeklyDistribution counts records per mood inside anchor's week,
// inclusive of Monday and Sunday.
func WeeklyDistribution(records []domain.MoodRecord, anchor time.Time) Distribution {
	var d Distribution
	start := domain.WeekStart(anchor)
	for _, r := range records {
		if r.Validate() != nil {
			continue
		}
		if _, ok := weekIndex(start, r.CreatedAt); !ok {
			continue
		}
		d.Counts[r.Mood]++
		d.Total++
	}
	return d
}

// weekIndex returns the 0..6 day offset of t from the week starting at
// start, comparing calendar dates in start's location.
func weekIndex(start, t time.Time) (int, bool) {
	day := domain.DayStart(t.In(start.Location()))
	for i := 0; i < 7; i++ {
		if day.Equal(start.AddDate(0, 0, i)) {
			return i, true
		}
	}
	return 0, false
}
