package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloom-journal/bloom/internal/app/insights"
	"github.com/bloom-journal/bloom/internal/domain"
)

func init() {
	weekCmd.Flags().StringVar(&weekDate, "date", "", "Any day of the week to show (YYYY-MM-DD)")
	rootCmd.AddCommand(weekCmd)
}

var weekDate string

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the weekly mood chart, mood mix, streak and monthly tier",
	Args:  cobra.NoArgs,
	RunE:  runWeek,
}

func runWeek(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	now := d.Clock.Now()
	ref, err := parseDate(weekDate, now)
	if err != nil {
		return err
	}
	moods, err := d.Journal.Moods(ctx)
	if err != nil {
		return err
	}
	journals, err := d.Journal.Journals(ctx, true)
	if err != nil {
		return err
	}

	printWeek(os.Stdout, ref, insights.WeeklySeries(moods, ref), insights.WeeklyDistribution(moods, ref))

	times := append(insights.MoodTimes(moods), insights.JournalTimes(journals)...)
	journalDays := insights.MonthlyUniqueDayCount(insights.JournalTimes(journals), ref)
	fmt.Println()
	fmt.Printf("Streak:  %d day(s), longest %d\n", insights.Streak(times, now), insights.LongestStreak(times, now.Location()))
	fmt.Printf("Month:   %d check-in day(s), %d journal day(s) in %s (%s)\n",
		insights.MonthlyUniqueDayCount(insights.MoodTimes(moods), ref),
		journalDays,
		ref.Format("January"),
		insights.Tier(journalDays),
	)
	return nil
}

// printWeek draws one bar per weekday and the week's mood mix.
func printWeek(w io.Writer, ref time.Time, series [7]float64, dist insights.Distribution) {
	start := domain.WeekStart(ref)
	fmt.Fprintf(w, "Week of %s\n", start.Format("Mon 2 Jan 2006"))
	for i, v := range series {
		day := start.AddDate(0, 0, i)
		value := "  -"
		if v > 0 {
			value = fmt.Sprintf("%.1f", v)
		}
		fmt.Fprintf(w, "%s  %s %s\n", day.Format("Mon"), bar(v, 5, 20), value)
	}

	if dist.Empty() {
		fmt.Fprintln(w, "\nNo check-ins this week.")
		return
	}
	fmt.Fprintln(w)
	for _, share := range dist.NonZero() {
		fmt.Fprintf(w, "%-12s %s %3d%% (%d)\n",
			moodLabel(share.Mood),
			bar(float64(share.Percent), 100, 20),
			share.Percent,
			share.Count,
		)
	}
}
