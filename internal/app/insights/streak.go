package insights

import (
	"sort"
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// Streak counts consecutive calendar days with activity, ending today.
// If today has nothing yet the count starts from yesterday, so an unbroken
// run is not lost before the first entry of the day. A gap ends the run.
func Streak(times []time.Time, now time.Time) int {
	days := activeDays(times, now.Location())
	if len(days) == 0 {
		return 0
	}

	cursor := domain.DayStart(now)
	if _, ok := days[domain.KeyOf(cursor, now.Location())]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
	}

	n := 0
	for {
		if _, ok := days[domain.KeyOf(cursor, now.Location())]; !ok {
			return n
		}
		n++
		cursor = cursor.AddDate(0, 0, -1)
	}
}

// LongestStreak returns the longest run of consecutive active days in loc.
func LongestStreak(times []time.Time, loc *time.Location) int {
	set := activeDays(times, loc)
	if len(set) == 0 {
		return 0
	}
	days := make([]time.Time, 0, len(set))
	for k := range set {
		days = append(days, time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i-1].AddDate(0, 0, 1).Equal(days[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// activeDays deduplicates timestamps into calendar days in loc.
func activeDays(times []time.Time, loc *time.Location) map[domain.DayKey]struct{} {
	set := make(map[domain.DayKey]struct{}, len(times))
	for _, t := range times {
		if t.IsZero() {
			continue
		}
		set[domain.KeyOf(t, loc)] = struct{}{}
	}
	return set
}
