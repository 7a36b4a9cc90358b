package engagement

import (
	"time"

	"github.com/bloom-journal/bloom/internal/domain"
)

// WeeklyActivityPresence marks each of the seven days ending today
// (oldest first) as active when a mood check-in OR a journal entry exists
// on that calendar day.
func WeeklyActivityPresence(moods []domain.MoodRecord, journals []domain.JournalRecord, now time.Time) [7]domain.DayActivity {
	loc := now.Location()
	active := make(map[domain.DayKey]struct{}, len(moods)+len(journals))
	for _, m := range moods {
		if m.Validate() != nil {
			continue
		}
		active[domain.KeyOf(m.CreatedAt, loc)] = struct{}{}
	}
	for _, j := range journals {
		if j.CreatedAt.IsZero() {
			continue
		}
		active[domain.KeyOf(j.CreatedAt, loc)] = struct{}{}
	}

	var week [7]domain.DayActivity
	today := domain.DayStart(now)
	for i := range week {
		day := today.AddDate(0, 0, i-6)
		_, ok := active[domain.KeyOf(day, loc)]
		week[i] = domain.DayActivity{
			Date:   day,
			Label:  domain.WeekdayLetter(day.Weekday()),
			Active: ok,
		}
	}
	return week
}
