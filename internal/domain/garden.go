package domain

import "time"

// ─── Garden Types ───────────────────────────────────────────────────────────

// Garden economy constants.
const (
	TokenCap   = 5   // Daily-reset grants never push the balance above this
	WaterXP    = 20  // XP gained per watering
	XPPerLevel = 100 // Linear level curve
)

// GardenState is the singleton reward record for one installation.
// Level is derived from XP but persisted alongside it for quick reads.
type GardenState struct {
	XP               int64     `json:"xp"`
	WaterTokens      int       `json:"water_tokens"`
	Level            int       `json:"level"`
	LastDailyReset   time.Time `json:"last_daily_reset"`
	LastMoodToken    time.Time `json:"last_mood_token"`
	LastJournalToken time.Time `json:"last_journal_token"`
	PendingDaily     bool      `json:"pending_daily_reward"`
	PendingMood      bool      `json:"pending_mood_reward"`
	PendingJournal   bool      `json:"pending_journal_reward"`
}

// DefaultGardenState is the row created on first access. The starting
// token counts as today's daily grant, so LastDailyReset is now.
func DefaultGardenState(now time.Time) GardenState {
	return GardenState{
		XP:             0,
		WaterTokens:    1,
		Level:          1,
		LastDailyReset: now,
		PendingDaily:   true,
	}
}

// HasPendingReward reports whether any reward animation is still owed.
func (g GardenState) HasPendingReward() bool {
	return g.PendingDaily || g.PendingMood || g.PendingJournal
}

// Stage returns the growth stage for the current level.
func (g GardenState) Stage() Stage {
	return StageForLevel(g.Level)
}

// Equal compares two states field by field; timestamps compare by instant.
func (g GardenState) Equal(o GardenState) bool {
	return g.XP == o.XP &&
		g.WaterTokens == o.WaterTokens &&
		g.Level == o.Level &&
		g.LastDailyReset.Equal(o.LastDailyReset) &&
		g.LastMoodToken.Equal(o.LastMoodToken) &&
		g.LastJournalToken.Equal(o.LastJournalToken) &&
		g.PendingDaily == o.PendingDaily &&
		g.PendingMood == o.PendingMood &&
		g.PendingJournal == o.PendingJournal
}

// LevelForXP returns floor(xp / 100) + 1. There is no upper bound.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/XPPerLevel) + 1
}

// XPToNextLevel returns the XP still needed to reach the next level.
func XPToNextLevel(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return XPPerLevel - xp%XPPerLevel
}

// ─── Growth Stages ──────────────────────────────────────────────────────────

// Stage is the visual growth stage of the plant.
type Stage string

const (
	StageSeed   Stage = "seed"   // level 1
	StageSprout Stage = "sprout" // level 2
	StageBud    Stage = "bud"    // level 3
	StageBloom  Stage = "bloom"  // level 4+
)

// StageForLevel maps level ranges 1, 2, 3, >=4 to stages.
func StageForLevel(level int) Stage {
	switch {
	case level >= 4:
		return StageBloom
	case level == 3:
		return StageBud
	case level == 2:
		return StageSprout
	default:
		return StageSeed
	}
}

// ─── Reward Sources ─────────────────────────────────────────────────────────

// RewardSource identifies which grant path awarded a token.
type RewardSource string

const (
	RewardDaily   RewardSource = "daily"
	RewardMood    RewardSource = "mood"
	RewardJournal RewardSource = "journal"
)
