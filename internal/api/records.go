package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bloom-journal/bloom/internal/app/journal"
	"github.com/bloom-journal/bloom/internal/domain"
)

// ─── Moods & Journals (/api/moods, /api/journals) ───────────────────────────

// moodParam accepts a mood as its name ("happy") or ordinal (3 or "3").
type moodParam domain.Mood

func (m *moodParam) UnmarshalJSON(b []byte) error {
	v, err := domain.ParseMood(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*m = moodParam(v)
	return nil
}

type logMoodRequest struct {
	Mood      *moodParam `json:"mood"`
	Intensity float64    `json:"intensity"`
	Prompt    string     `json:"prompt,omitempty"`
	Answer    string     `json:"answer,omitempty"`
}

func (s *Server) handleLogMood(w http.ResponseWriter, r *http.Request) {
	var req logMoodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mood == nil {
		writeError(w, http.StatusBadRequest, "mood is required")
		return
	}

	rec, err := s.records.LogMood(r.Context(), journal.MoodInput{
		Mood:      domain.Mood(*req.Mood),
		Intensity: req.Intensity,
		Prompt:    req.Prompt,
		Answer:    req.Answer,
	})
	if err != nil && rec.ID == "" {
		s.fail(w, r, err)
		return
	}
	writeSaved(w, rec, err)
}

type writeJournalRequest struct {
	Title  string     `json:"title"`
	Body   string     `json:"body"`
	Mood   *moodParam `json:"mood,omitempty"`
	Images []string   `json:"images,omitempty"`
}

func (s *Server) handleWriteJournal(w http.ResponseWriter, r *http.Request) {
	var req writeJournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := journal.EntryInput{Title: req.Title, Body: req.Body, Images: req.Images}
	if req.Mood != nil {
		m := domain.Mood(*req.Mood)
		in.Mood = &m
	}
	rec, err := s.records.WriteJournal(r.Context(), in)
	if err != nil && rec.ID == "" {
		s.fail(w, r, err)
		return
	}
	writeSaved(w, rec, err)
}

// writeSaved answers a successful save. A failed token claim after the
// record was stored is reported as a warning, not an error.
func writeSaved(w http.ResponseWriter, rec interface{}, claimErr error) {
	out := map[string]interface{}{"record": rec}
	if claimErr != nil {
		out["warning"] = claimErr.Error()
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleListMoods(w http.ResponseWriter, r *http.Request) {
	moods, err := s.records.Moods(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if moods == nil {
		moods = []domain.MoodRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moods": moods,
	})
}

func (s *Server) handleClearMoods(w http.ResponseWriter, r *http.Request) {
	if err := s.records.ClearMoods(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request) {
	withArchived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	journals, err := s.records.Journals(r.Context(), withArchived)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if journals == nil {
		journals = []domain.JournalRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"journals": journals,
	})
}

func (s *Server) handleToggleArchive(w http.ResponseWriter, r *http.Request) {
	rec, err := s.records.ToggleArchive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteJournal(w http.ResponseWriter, r *http.Request) {
	if err := s.records.DeleteJournal(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
