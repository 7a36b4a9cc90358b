package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Storage errors
	ErrStorageUnavailable = errors.New("record store unavailable")

	// Record validation errors
	ErrInvalidMood      = errors.New("invalid mood")
	ErrInvalidIntensity = errors.New("intensity must be between 1 and 5")
	ErrEmptyJournal     = errors.New("journal entry needs a title or body")

	// Lookup errors
	ErrJournalNotFound = errors.New("journal entry not found")
)
