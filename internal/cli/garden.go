package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bloom-journal/bloom/internal/app/engagement"
	"github.com/bloom-journal/bloom/internal/app/ledger"
	"github.com/bloom-journal/bloom/internal/domain"
)

func init() {
	gardenCmd.Flags().BoolVar(&gardenAck, "ack", false, "Acknowledge pending rewards")
	gardenCmd.Flags().IntVar(&gardenHistory, "history", 0, "Show the last N token grants and waterings")
	rootCmd.AddCommand(gardenCmd)
	rootCmd.AddCommand(waterCmd)
}

var (
	gardenAck     bool
	gardenHistory int
)

var gardenCmd = &cobra.Command{
	Use:   "garden",
	Short: "Show your plant, water tokens and the last 7 days of activity",
	Args:  cobra.NoArgs,
	RunE:  runGarden,
}

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Spend one water token to grow your plant",
	Args:  cobra.NoArgs,
	RunE:  runWater,
}

func runGarden(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	g, err := d.Garden.State(ctx)
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

	printGarden(os.Stdout, engagement.StatusOf(g))
	fmt.Println()
	printActivity(os.Stdout, engagement.WeeklyActivityPresence(moods, journals, d.Clock.Now()))

	if gardenHistory > 0 {
		entries, err := d.Ledger.History(ctx, gardenHistory)
		if err != nil {
			return err
		}
		sum, err := d.Ledger.Summary(ctx)
		if err != nil {
			return err
		}
		fmt.Println()
		printHistory(os.Stdout, entries, sum)
	}

	if gardenAck && g.HasPendingReward() {
		if _, err := d.Garden.ClearPendingRewards(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runWater(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	before, err := d.Garden.State(ctx)
	if err != nil {
		return err
	}
	g, watered, err := d.Garden.WaterPlant(ctx)
	if err != nil {
		return err
	}
	if !watered {
		fmt.Println("No water left. Check in or write an entry to earn more.")
		return nil
	}

	fmt.Printf("Watered! +%d XP\n", g.XP-before.XP)
	if g.Level > before.Level {
		fmt.Printf("🌱 Your plant reached level %d (%s)\n", g.Level, g.Stage())
	}
	printGarden(os.Stdout, engagement.StatusOf(g))
	return nil
}

func printHistory(out io.Writer, entries []domain.LedgerEntry, sum ledger.Summary) {
	if len(entries) == 0 {
		fmt.Fprintln(out, "No garden history yet.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tEVENT\tTOKENS\tXP\tBALANCE")
	for _, e := range entries {
		event := string(e.Kind)
		if e.Source != "" && e.Kind == domain.LedgerGrant {
			event += " (" + string(e.Source) + ")"
		}
		tokens := fmt.Sprintf("%+d", e.Tokens)
		if e.Kind == domain.LedgerGrant && e.Tokens == 0 {
			tokens = "capped"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n",
			e.At.Format("2006-01-02 15:04"), event, tokens, e.XP, e.Balance)
	}
	w.Flush()

	fmt.Fprintf(out, "\nEarned: %d daily, %d mood, %d journal", sum.Earned[domain.RewardDaily],
		sum.Earned[domain.RewardMood], sum.Earned[domain.RewardJournal])
	if sum.Capped > 0 {
		fmt.Fprintf(out, " (%d capped)", sum.Capped)
	}
	fmt.Fprintf(out, ". Spent: %d. Balance: %d.\n", sum.Spent, sum.Balance)
}
