package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bloom-journal/bloom/internal/app/journal"
	"github.com/bloom-journal/bloom/internal/domain"
)

func init() {
	moodCmd.Flags().Float64VarP(&moodIntensity, "intensity", "i", 3, "How strongly you feel it, 1 to 5")
	moodCmd.Flags().StringVar(&moodPrompt, "prompt", "", "Question you answered")
	moodCmd.Flags().StringVarP(&moodAnswer, "answer", "a", "", "Your answer")
	moodCmd.Flags().BoolVar(&moodList, "list", false, "List recent check-ins instead of logging one")
	rootCmd.AddCommand(moodCmd)
}

var (
	moodIntensity float64
	moodPrompt    string
	moodAnswer    string
	moodList      bool
)

var moodCmd = &cobra.Command{
	Use:   "mood <sad|upset|neutral|happy|excited>",
	Short: "Log a mood check-in",
	Example: `  bloom mood happy -i 4 -a "finished the project"
  bloom mood --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if moodList {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runMood,
}

func runMood(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	d, err := openDaemon(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	if moodList {
		moods, err := d.Journal.Moods(ctx)
		if err != nil {
			return err
		}
		if len(moods) == 0 {
			fmt.Println("No check-ins yet. Run 'bloom mood happy' to log one.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "WHEN\tMOOD\tINTENSITY\tANSWER")
		for _, m := range moods {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%s\n",
				m.CreatedAt.Format("2006-01-02 15:04"),
				moodLabel(m.Mood),
				m.Intensity,
				m.Answer,
			)
		}
		return w.Flush()
	}

	m, err := domain.ParseMood(args[0])
	if err != nil {
		return err
	}

	before, _ := d.Garden.State(ctx)
	rec, err := d.Journal.LogMood(ctx, journal.MoodInput{
		Mood:      m,
		Intensity: moodIntensity,
		Prompt:    moodPrompt,
		Answer:    moodAnswer,
	})
	if err != nil && rec.ID == "" {
		return err
	}
	fmt.Printf("Logged %s at %s\n", moodLabel(rec.Mood), rec.CreatedAt.Format("15:04"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Warning:", err)
		return nil
	}
	printReward(ctx, d, before)
	return nil
}
