package cli

import (
	"fmt"
	"time"

	"github.com/neilberkman/daybook/internal/core/dates"
	"github.com/neilberkman/daybook/internal/core/draft"
	"github.com/neilberkman/daybook/internal/core/journal"
	"github.com/spf13/cobra"
)

var (
	proposeDate      string
	proposeTime      string
	proposeTopic     string
	proposeWorked    []string
	proposeLearned   []string
	proposeDecisions []string
	proposeGotchas   []string
	proposeCatches   []string
)

var proposeCmd = &cobra.Command{
	Use:   "propose",
	Short: "Draft a journal session for review",
	Long: `Draft a session entry without touching the journal.

Prints the rendered session and a draft ID. Nothing is written to the day's
file until the draft is approved with "daybook commit" or in the review
screen.

Examples:
  daybook propose --topic "Lock handling" --worked "Added stale lock recovery"
  daybook propose --topic "Retro" --worked "Reviewed flaky tests" --gotcha "CI caches go.sum"
  daybook propose --date yesterday --time 17:30 --topic "Cleanup" --worked "Removed dead flags"`,
	RunE: runPropose,
}

func init() {
	rootCmd.AddCommand(proposeCmd)
	proposeCmd.Flags().StringVar(&proposeDate, "date", "today", "Journal day (YYYY-MM-DD or natural language)")
	proposeCmd.Flags().StringVar(&proposeTime, "time", "", "Time label HH:MM (default: now)")
	proposeCmd.Flags().StringVarP(&proposeTopic, "topic", "t", "", "Session topic")
	proposeCmd.Flags().StringArrayVarP(&proposeWorked, "worked", "w", nil, "What we worked on (repeatable)")
	proposeCmd.Flags().StringArrayVarP(&proposeLearned, "learned", "l", nil, "Key learning (repeatable)")
	proposeCmd.Flags().StringArrayVar(&proposeDecisions, "decision", nil, "Decision note (repeatable)")
	proposeCmd.Flags().StringArrayVar(&proposeGotchas, "gotcha", nil, "Gotcha note (repeatable)")
	proposeCmd.Flags().StringArrayVar(&proposeCatches, "catch", nil, "Catch note (repeatable)")
	_ = proposeCmd.MarkFlagRequired("topic")
}

func runPropose(cmd *cobra.Command, args []string) error {
	_, store, err := openStore()
	if err != nil {
		return err
	}

	date, err := dates.Resolve(proposeDate, time.Now())
	if err != nil {
		return fmt.Errorf("invalid --date: %w", err)
	}

	entry := buildEntry(proposeTime, proposeTopic, proposeWorked, proposeLearned, map[journal.NoteKind][]string{
		journal.NoteDecision: proposeDecisions,
		journal.NoteGotcha:   proposeGotchas,
		journal.NoteCatch:    proposeCatches,
	})

	gate := draft.NewGate(store)
	d, err := gate.Propose(date, entry)
	if err != nil {
		return err
	}

	fmt.Printf("Draft %s for %s (would be session %d)\n\n", d.ID, d.Date, d.ProjectedSession)
	fmt.Println(d.Preview)
	fmt.Println()
	fmt.Printf("Commit with: daybook commit %s\n", d.ID)
	fmt.Printf("Discard with: daybook reject %s\n", d.ID)
	return nil
}

// buildEntry assembles an entry from flag values, keeping note order
// decision, gotcha, catch.
func buildEntry(timeLabel, topic string, worked, learned []string, notes map[journal.NoteKind][]string) journal.Entry {
	entry := journal.Entry{
		Time:     timeLabel,
		Topic:    topic,
		WorkedOn: worked,
		Learning: learned,
	}
	for _, kind := range []journal.NoteKind{journal.NoteDecision, journal.NoteGotcha, journal.NoteCatch} {
		for _, text := range notes[kind] {
			entry.Notes = append(entry.Notes, journal.Note{Kind: kind, Text: text})
		}
	}
	return entry
}

func printAppendResult(res journal.AppendResult) {
	verb := "Appended"
	if res.Created {
		verb = "Created"
	}
	fmt.Printf("%s session %d in %s (%d -> %d bytes)\n", verb, res.Session, res.Path, res.BytesBefore, res.BytesAfter)
}
