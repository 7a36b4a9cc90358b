// Package domain holds the core types shared by every bloom layer.
// Domain types carry no infrastructure dependency.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// ─── Mood ───────────────────────────────────────────────────────────────────

// Mood is a check-in category. The ordinal (0..4) is what the insight
// engine averages; display attributes live in a separate table.
type Mood int

const (
	MoodSad Mood = iota
	MoodUpset
	MoodNeutral
	MoodHappy
	MoodExcited
)

// MoodCount is the number of defined moods.
const MoodCount = 5

// AllMoods lists every mood in ordinal order.
var AllMoods = [MoodCount]Mood{MoodSad, MoodUpset, MoodNeutral, MoodHappy, MoodExcited}

var moodNames = [MoodCount]string{"sad", "upset", "neutral", "happy", "excited"}

// Valid reports whether m is one of the five defined moods.
func (m Mood) Valid() bool {
	return m >= MoodSad && m <= MoodExcited
}

// Score returns the 1..5 scale value of the mood (ordinal + 1).
func (m Mood) Score() float64 {
	return float64(m) + 1
}

func (m Mood) String() string {
	if !m.Valid() {
		return fmt.Sprintf("mood(%d)", int(m))
	}
	return moodNames[m]
}

// ParseMood accepts a mood name (case-insensitive) or its ordinal.
func ParseMood(s string) (Mood, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range moodNames {
		if s == name || s == fmt.Sprint(i) {
			return Mood(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMood, s)
}

// Display is the presentation metadata attached to a mood.
type Display struct {
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Color string `json:"color"` // "#RRGGBB"
}

var moodDisplay = [MoodCount]Display{
	{Label: "Sad", Emoji: "😢", Color: "#5B8DEF"},
	{Label: "Upset", Emoji: "😠", Color: "#E5675B"},
	{Label: "Neutral", Emoji: "😐", Color: "#B0B4BA"},
	{Label: "Happy", Emoji: "🙂", Color: "#F5C451"},
	{Label: "Excited", Emoji: "🤩", Color: "#7DCB7A"},
}

// MoodDisplay returns the display attributes for m.
func MoodDisplay(m Mood) Display {
	if !m.Valid() {
		return Display{Label: "Unknown", Color: "#000000"}
	}
	return moodDisplay[m]
}

// ─── Records ────────────────────────────────────────────────────────────────

// Intensity bounds for a mood check-in.
const (
	MinIntensity = 1.0
	MaxIntensity = 5.0
)

// MoodRecord is one mood check-in. Records are never mutated after insert.
type MoodRecord struct {
	ID        string    `json:"id"`
	Mood      Mood      `json:"mood"`
	Intensity float64   `json:"intensity"`
	Prompt    string    `json:"prompt,omitempty"`
	Answer    string    `json:"answer,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the mood ordinal and intensity bounds.
func (r MoodRecord) Validate() error {
	if !r.Mood.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMood, int(r.Mood))
	}
	if r.Intensity < MinIntensity || r.Intensity > MaxIntensity {
		return fmt.Errorf("%w: %.2f", ErrInvalidIntensity, r.Intensity)
	}
	return nil
}

// JournalRecord is one free-text entry. Archived is the only field that
// changes after creation outside of content edits.
type JournalRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Mood      *Mood     `json:"mood,omitempty"`
	Images    []string  `json:"images,omitempty"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate rejects entries with neither title nor body and bad mood tags.
func (r JournalRecord) Validate() error {
	if strings.TrimSpace(r.Title) == "" && strings.TrimSpace(r.Body) == "" {
		return ErrEmptyJournal
	}
	if r.Mood != nil && !r.Mood.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMood, int(*r.Mood))
	}
	return nil
}
