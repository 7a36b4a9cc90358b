package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/bloom-journal/bloom/internal/app/insights"
	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Insights (/api/insights/*) ─────────────────────────────────────────────
// Each endpoint takes an optional ?date=YYYY-MM-DD reference day in the
// server's local zone; the default is today.

const dateLayout = "2006-01-02"

// refTime resolves the reference time of a request.
func (s *Server) refTime(r *http.Request) (time.Time, error) {
	now := s.clock.Now()
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(dateLayout, raw, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", raw)
	}
	// Noon keeps the reference inside the day across DST shifts.
	return day.Add(12 * time.Hour), nil
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	ref, err := s.refTime(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	moods, err := s.records.Moods(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	dist := insights.WeeklyDistribution(moods, ref)
	shares := dist.NonZero()
	if shares == nil {
		shares = []domain.MoodShare{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"week_start":   domain.WeekStart(ref).Format(dateLayout),
		"series":       insights.WeeklySeries(moods, ref),
		"distribution": dist,
		"shares":       shares,
	})
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ref, err := s.refTime(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	moods, err := s.records.Moods(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	journals, err := s.records.Journals(r.Context(), true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":   ref.Format(dateLayout),
		"events": insights.DailyTimeline(moods, journals, ref),
	})
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	ref, err := s.refTime(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	moods, err := s.records.Moods(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	journals, err := s.records.Journals(r.Context(), true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	journalDays := insights.MonthlyUniqueDayCount(insights.JournalTimes(journals), ref)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"month":        ref.Format("2006-01"),
		"checkin_days": insights.MonthlyUniqueDayCount(insights.MoodTimes(moods), ref),
		"journal_days": journalDays,
		"tier":         insights.Tier(journalDays),
	})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	moods, err := s.records.Moods(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	journals, err := s.records.Journals(r.Context(), true)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	now := s.clock.Now()
	times := append(insights.MoodTimes(moods), insights.JournalTimes(journals)...)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"current": insights.Streak(times, now),
		"longest": insights.LongestStreak(times, now.Location()),
	})
}
