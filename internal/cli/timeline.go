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
	timelineCmd.Flags().StringVar(&timelineDate, "date", "", "Day to show (YYYY-MM-DD)")
	rootCmd.AddCommand(timelineCmd)
}

var timelineDate string

var timelineCmd = &cobra.Command{
	Use:     "timeline",
	Aliases: []string{"today"},
	Short:   "Show a day's check-ins and entries, newest first",
	Args:    cobra.NoArgs,
	RunE:    runTimeline,
}

func runTimeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	day, err := parseDate(timelineDate, d.Clock.Now())
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

	printTimeline(os.Stdout, day, insights.DailyTimeline(moods, journals, day))
	return nil
}

func printTimeline(w io.Writer, day time.Time, events []domain.TimelineEvent) {
	fmt.Fprintln(w, day.Format("Monday 2 January 2006"))
	if len(events) == 0 {
		fmt.Fprintln(w, "  Nothing logged.")
		return
	}
	for _, e := range events {
		switch e.Kind {
		case domain.EventMood:
			line := fmt.Sprintf("  %s  %s (%.1f)", e.At.Format("15:04"), moodLabel(e.Mood.Mood), e.Mood.Intensity)
			if e.Mood.Answer != "" {
				line += " · " + e.Mood.Answer
			}
			fmt.Fprintln(w, line)
		case domain.EventJournal:
			title := e.Journal.Title
			if title == "" {
				title = truncate(e.Journal.Body, 40)
			}
			fmt.Fprintf(w, "  %s  📓 %s\n", e.At.Format("15:04"), title)
		}
	}
}
