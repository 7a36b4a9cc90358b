package api

import (
	"net/http"
	"strconv"

	"github.com/bloom-journal/bloom/internal/app/engagement"
)

// ─── Garden (/api/garden/*) ─────────────────────────────────────────────────

func (s *Server) handleGarden(w http.ResponseWriter, r *http.Request) {
	g, err := s.garden.State(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement.StatusOf(g))
}

func (s *Server) handleWater(w http.ResponseWriter, r *http.Request) {
	g, watered, err := s.garden.WaterPlant(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watered": watered,
		"garden":  engagement.StatusOf(g),
	})
}

func (s *Server) handleDailyReset(w http.ResponseWriter, r *http.Request) {
	g, err := s.garden.CheckDailyReset(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement.StatusOf(g))
}

func (s *Server) handleClearRewards(w http.ResponseWriter, r *http.Request) {
	g, err := s.garden.ClearPendingRewards(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, engagement.StatusOf(g))
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
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
		"days": engagement.WeeklyActivityPresence(moods, journals, s.clock.Now()),
	})
}

// handleHistory returns recent ledger entries with totals over the whole
// ledger. ?limit= caps the entry list (default 50, 0 for all).
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	entries, err := s.ledger.History(r.Context(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sum, err := s.ledger.Summary(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"summary": sum,
	})
}
