// Package metrics provides Prometheus metrics for bloom.
// Counters and gauges for check-ins, journal entries, garden rewards and storage.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Records ────────────────────────────────────────────────────────────────

// MoodCheckins tracks saved mood check-ins by mood.
var MoodCheckins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "mood_checkins_total",
	Help:      "Total mood check-ins saved.",
}, []string{"mood"})

// JournalEntries tracks saved journal entries.
var JournalEntries = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "journal_entries_total",
	Help:      "Total journal entries saved.",
})

// ─── Garden ─────────────────────────────────────────────────────────────────

// TokensGranted tracks water tokens granted per source (daily, mood, journal).
var TokensGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "garden_tokens_granted_total",
	Help:      "Total water tokens granted by source.",
}, []string{"source"})

// Waterings tracks successful plant waterings.
var Waterings = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "garden_waterings_total",
	Help:      "Total successful plant waterings.",
})

// GardenLevel tracks the current plant level.
var GardenLevel = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "garden_level",
	Help:      "Current garden level.",
})

// GardenXP tracks accumulated experience.
var GardenXP = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "garden_xp",
	Help:      "Current garden experience points.",
})

// GardenTokens tracks the current water-token balance.
var GardenTokens = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "bloom",
	Name:      "garden_water_tokens",
	Help:      "Current water-token balance.",
})

// ─── Storage ────────────────────────────────────────────────────────────────

// StorageErrors tracks failed store operations by operation name.
var StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "bloom",
	Name:      "storage_errors_total",
	Help:      "Total failed record-store operations.",
}, []string{"op"})

// ObserveGarden updates the garden gauges from a state snapshot.
func ObserveGarden(level int, xp int64, tokens int) {
	GardenLevel.Set(float64(level))
	GardenXP.Set(float64(xp))
	GardenTokens.Set(float64(tokens))
}
