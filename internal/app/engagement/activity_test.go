package engagement_test

import (
	"testing"
	"time"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/domain"
)

func TestWeeklyActivityPresence(t *testing.T) {
	now := time.Date(2025, 7, 13, 18, 0, 0, 0, time.UTC) // Sunday
	moods := []domain.MoodRecord{
		{Mood: domain.MoodHappy, Intensity: 3, CreatedAt: time.Date(2025, 7, 7, 9, 0, 0, 0, time.UTC)}, // Monday
		{Mood: domain.MoodSad, Intensity: 2, CreatedAt: time.Date(2025, 7, 13, 7, 0, 0, 0, time.UTC)},  // today
		{Mood: domain.MoodSad, Intensity: 2, CreatedAt: time.Date(2025, 7, 6, 7, 0, 0, 0, time.UTC)},   // outside window
		{Mood: domain.Mood(42), Intensity: 2, CreatedAt: time.Date(2025, 7, 8, 7, 0, 0, 0, time.UTC)},  // malformed
	}
	journals := []domain.JournalRecord{
		{Body: "only a journal", CreatedAt: time.Date(2025, 7, 10, 22, 0, 0, 0, time.UTC)}, // Thursday
	}

	week := engagement.WeeklyActivityPresence(moods, journals, now)

	wantLabels := []string{"M", "T", "W", "T", "F", "S", "S"}
	wantActive := []bool{true, false, false, true, false, false, true}
	for i, d := range week {
		if d.Label != wantLabels[i] {
			t.Errorf("day %d label = %q, want %q", i, d.Label, wantLabels[i])
		}
		if d.Active != wantActive[i] {
			t.Errorf("day %d (%s) active = %v, want %v", i, d.Date.Format("2006-01-02"), d.Active, wantActive[i])
		}
	}
	if !week[6].Date.Equal(time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("last day = %v, want today", week[6].Date)
	}
}

func TestWeeklyActivityPresence_Empty(t *testing.T) {
	week := engagement.WeeklyActivityPresence(nil, nil, time.Date(2025, 7, 9, 12, 0, 0, 0, time.UTC))
	for _, d := range week {
		if d.Active {
			t.Errorf("%s should be inactive", d.Date)
		}
	}
	if week[0].Label != "T" { // Thursday July 3
		t.Errorf("first label = %q, want T", week[0].Label)
	}
}

func TestWeeklyActivityPresence_SkipsMalformed(t *testing.T) {
	now := time.Date(2025, 7, 13, 18, 0, 0, 0, time.UTC)
	moods := []domain.MoodRecord{
		{Mood: domain.Mood(-3), Intensity: 3, CreatedAt: now.Add(-time.Hour)},
		{Mood: domain.MoodHappy, Intensity: 0.5, CreatedAt: now.AddDate(0, 0, -1)},
		{Mood: domain.MoodHappy, Intensity: 8, CreatedAt: now.AddDate(0, 0, -2)},
	}

	for i, d := range engagement.WeeklyActivityPresence(moods, nil, now) {
		if d.Active {
			t.Errorf("day %d (%s) active from a malformed check-in", i, d.Date.Format("2006-01-02"))
		}
	}
}
