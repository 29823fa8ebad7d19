package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
)

var (
	suggestOriginal string
	suggestFormat   string
	snoozeFor       time.Duration
)

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().StringVar(&suggestOriginal, "original", "", "Original snapshot JSON, boosts fixes for new blockers")
	suggestCmd.Flags().StringVarP(&suggestFormat, "format", "f", "text", "Output format (text|json)")

	suggestCmd.AddCommand(snoozeCmd)
	snoozeCmd.Flags().DurationVar(&snoozeFor, "for", 24*time.Hour, "Snooze duration")

	suggestCmd.AddCommand(dismissCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <snapshot.json>",
	Short: "Suggest the next fix for a trip",
	Long: "Ranks corrective actions for a trip snapshot and prints the single best one.\n" +
		"Suggestions snoozed or dismissed for the snapshot's change are hidden.",
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

var snoozeCmd = &cobra.Command{
	Use:   "snooze <trip/change/suggestion>",
	Short: "Hide a suggestion for a while",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSuggestion(args[0], func(s *nextfix.Store, k nextfix.Key) error {
			return s.Snooze(k, snoozeFor)
		}, "snoozed")
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss <trip/change/suggestion>",
	Short: "Hide a suggestion until the trip changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateSuggestion(args[0], (*nextfix.Store).Dismiss, "dismissed")
	},
}

type suggestOutput struct {
	Key        string                  `json:"key,omitempty"`
	Suggestion *trip.NextFixSuggestion `json:"suggestion"`
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	current, err := readSnapshot(args[0])
	if err != nil {
		return err
	}

	var cmp *tripdiff.Comparison
	if suggestOriginal != "" {
		original, err := readSnapshot(suggestOriginal)
		if err != nil {
			return err
		}
		cmp = tripdiff.Compare(original, current)
	}

	out := suggestOutput{Suggestion: nextfix.Suggest(cmp, current, &cfg.NextFix)}

	// Only snapshots tied to a trip and change take part in the lifecycle.
	if out.Suggestion != nil && current.TripID != "" && current.ChangeID != "" {
		store, err := nextfix.NewStore(cfg.SuggestionsDir, nil)
		if err != nil {
			return fmt.Errorf("open suggestion store: %w", err)
		}
		key := nextfix.NewKey(current.TripID, current.ChangeID, out.Suggestion.ID)
		if err := store.Invalidate(current.TripID, current.ChangeID); err != nil {
			return err
		}
		visible, err := store.Visible(key)
		if err != nil {
			return err
		}
		if !visible {
			out.Suggestion = nil
		} else {
			if err := store.Show(key); err != nil {
				return err
			}
			out.Key = key.String()
		}
	}

	if suggestFormat == "json" {
		return printJSON(out)
	}
	if out.Suggestion == nil {
		fmt.Println("No suggestion. Nothing actionable remains.")
		return nil
	}
	s := out.Suggestion
	fmt.Printf("Next fix: %s (+%d certainty, %s)\n", s.Title, s.EstimatedImpact, s.Category)
	fmt.Printf("  id:     %s\n", s.ID)
	fmt.Printf("  target: %s\n", s.TargetField)
	if out.Key != "" {
		fmt.Printf("  key:    %s\n", out.Key)
	}
	return nil
}

func updateSuggestion(raw string, fn func(*nextfix.Store, nextfix.Key) error, verb string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	key, err := nextfix.ParseKey(raw)
	if err != nil {
		return err
	}
	store, err := nextfix.NewStore(cfg.SuggestionsDir, nil)
	if err != nil {
		return fmt.Errorf("open suggestion store: %w", err)
	}
	if err := fn(store, key); err != nil {
		return err
	}
	fmt.Printf("Suggestion %s %s.\n", key.String(), verb)
	return nil
}
