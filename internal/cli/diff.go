package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tripcheck/internal/tripdiff"
)

var diffFormat string

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text", "Output format (text|json)")
}

var diffCmd = &cobra.Command{
	Use:   "diff <original.json> <updated.json>",
	Short: "Compare two trip snapshots and show what changed",
	Long:  "Loads two trip snapshots and shows the cumulative change in human-readable terms:\ncertainty, verdict, budget, blockers resolved and added, edited fields.",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	original, err := readSnapshot(args[0])
	if err != nil {
		return fmt.Errorf("load original: %w", err)
	}

	updated, err := readSnapshot(args[1])
	if err != nil {
		return fmt.Errorf("load updated: %w", err)
	}

	result := tripdiff.Compare(original, updated)

	switch diffFormat {
	case "json":
		out, err := tripdiff.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Println(out)
	default:
		fmt.Print(tripdiff.FormatText(result))
	}

	return nil
}
