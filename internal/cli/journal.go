package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bloom-journal/bloom/internal/app/journal"
	"github.com/bloom-journal/bloom/internal/daemon"
	"github.com/bloom-journal/bloom/internal/domain"
)

func init() {
	journalCmd.Flags().StringVarP(&journalTitle, "title", "t", "", "Entry title")
	journalCmd.Flags().StringVarP(&journalBody, "body", "b", "", "Entry text")
	journalCmd.Flags().StringVarP(&journalMood, "mood", "m", "", "Optional mood tag")
	journalCmd.Flags().StringSliceVar(&journalImages, "image", nil, "Attached image reference (repeatable)")
	journalCmd.Flags().BoolVar(&journalList, "list", false, "List entries instead of writing one")
	journalCmd.Flags().BoolVar(&journalAll, "all", false, "Include archived entries in --list")
	journalCmd.Flags().StringVar(&journalArchive, "archive", "", "Toggle the archived flag of an entry by ID")
	journalCmd.Flags().StringVar(&journalDelete, "delete", "", "Delete an entry by ID")
	rootCmd.AddCommand(journalCmd)
}

var (
	journalTitle   string
	journalBody    string
	journalMood    string
	journalImages  []string
	journalList    bool
	journalAll     bool
	journalArchive string
	journalDelete  string
)

var errNoEntry = errors.New("nothing to save: pass --title or --body")

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Write, list, archive or delete journal entries",
	Example: `  bloom journal -t "Sunday" -b "Walked by the river." -m happy
  bloom journal --list --all
  bloom journal --archive 3f0c…`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func runJournal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	switch {
	case journalList:
		return listJournals(ctx, d)
	case journalArchive != "":
		rec, err := d.Journal.ToggleArchive(ctx, journalArchive)
		if err != nil {
			return err
		}
		state := "unarchived"
		if rec.Archived {
			state = "archived"
		}
		fmt.Printf("Entry %s %s\n", rec.ID, state)
		return nil
	case journalDelete != "":
		if err := d.Journal.DeleteJournal(ctx, journalDelete); err != nil {
			return err
		}
		fmt.Printf("Deleted entry %s\n", journalDelete)
		return nil
	}

	if strings.TrimSpace(journalTitle) == "" && strings.TrimSpace(journalBody) == "" {
		return errNoEntry
	}
	in := journal.EntryInput{Title: journalTitle, Body: journalBody, Images: journalImages}
	if journalMood != "" {
		m, err := domain.ParseMood(journalMood)
		if err != nil {
			return err
		}
		in.Mood = &m
	}

	before, _ := d.Garden.State(ctx)
	rec, err := d.Journal.WriteJournal(ctx, in)
	if err != nil && rec.ID == "" {
		return err
	}
	fmt.Printf("Saved entry %s\n", rec.ID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
		return nil
	}
	printReward(ctx, d, before)
	return nil
}

func listJournals(ctx context.Context, d *daemon.Daemon) error {
	entries, err := d.Journal.Journals(ctx, journalAll)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No journal entries yet. Run 'bloom journal -b \"...\"' to write one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tWHEN\tMOOD\tTITLE\tARCHIVED")
	for _, j := range entries {
		mood := "-"
		if j.Mood != nil {
			mood = moodLabel(*j.Mood)
		}
		title := j.Title
		if title == "" {
			title = truncate(j.Body, 32)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
			j.ID,
			j.CreatedAt.Format("2006-01-02 15:04"),
			mood,
			title,
			j.Archived,
		)
	}
	return w.Flush()
}

// printReward reports a token granted by the save that just happened.
func printReward(ctx context.Context, d *daemon.Daemon, before domain.GardenState) {
	after, err := d.Garden.State(ctx)
	if err != nil {
		return
	}
	if after.WaterTokens > before.WaterTokens {
		fmt.Printf("💧 +1 water (%d available). Run 'bloom water' to grow your plant.\n", after.WaterTokens)
	}
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
