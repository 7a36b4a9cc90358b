package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/daemon"
	"github.com/bloom-journal/bloom/internal/domain"
)

const dateLayout = "2006-01-02"

// openDaemon loads the config, opens the store and runs the app-open
// check, so every command sees today's daily token.
func openDaemon(ctx context.Context) (*daemon.Daemon, error) {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if !verbose {
		cfg.Logging.Level = "warn"
	}

	d, err := daemon.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := d.Foreground(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// parseDate resolves a --date flag value in now's zone. Empty means now.
func parseDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	day, err := time.ParseInLocation(dateLayout, s, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	return day.Add(12 * time.Hour), nil
}

// bar renders value on a 0..top scale as a fixed-width bar.
func bar(value, top float64, width int) string {
	if top <= 0 || value <= 0 {
		return strings.Repeat("·", width)
	}
	n := int(value/top*float64(width) + 0.5)
	n = min(n, width)
	return strings.Repeat("█", n) + strings.Repeat("·", width-n)
}

func moodLabel(m domain.Mood) string {
	return fmt.Sprintf("%s %s", domain.MoodDisplay(m).Emoji, m)
}

func printGarden(w io.Writer, s engagement.GardenStatus) {
	fmt.Fprintf(w, "Plant:   %s (level %d)\n", s.Stage, s.Level)
	fmt.Fprintf(w, "XP:      %d  (%d to next level)\n", s.XP, s.XPToNext)
	fmt.Fprintf(w, "Water:   %s %d\n", strings.Repeat("💧", s.WaterTokens), s.WaterTokens)

	var pending []string
	if s.PendingDaily {
		pending = append(pending, "daily visit")
	}
	if s.PendingMood {
		pending = append(pending, "mood check-in")
	}
	if s.PendingJournal {
		pending = append(pending, "journal entry")
	}
	if len(pending) > 0 {
		fmt.Fprintf(w, "New:     +water for %s\n", strings.Join(pending, ", "))
	}
}

func printActivity(w io.Writer, days [7]domain.DayActivity) {
	var labels, marks strings.Builder
	for _, d := range days {
		labels.WriteString(d.Label + " ")
		if d.Active {
			marks.WriteString("● ")
		} else {
			marks.WriteString("○ ")
		}
	}
	fmt.Fprintln(w, strings.TrimSpace(labels.String()))
	fmt.Fprintln(w, strings.TrimSpace(marks.String()))
}
