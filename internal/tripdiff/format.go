package tripdiff

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders a comparison as human-readable text.
func FormatText(c *Comparison) string {
	if !c.HasChanges {
		return fmt.Sprintf("Trip %s: no changes since the original plan.\n", c.TripID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Trip %s compared to original plan\n\n", c.TripID)

	fmt.Fprintf(&b, "  %-12s %d → %d (%+d)\n", "certainty:", c.CertaintyBefore, c.CertaintyAfter, c.CertaintyDelta)
	if c.VerdictBefore != c.VerdictAfter {
		fmt.Fprintf(&b, "  %-12s %s → %s\n", "verdict:", c.VerdictBefore, c.VerdictAfter)
	}
	if c.TotalCostBefore != c.TotalCostAfter {
		fmt.Fprintf(&b, "  %-12s %.0f → %.0f\n", "cost:", c.TotalCostBefore, c.TotalCostAfter)
	}
	fmt.Fprintf(&b, "  %-12s %d → %d\n", "blockers:", c.BlockersBefore, c.BlockersAfter)

	if len(c.Resolved) > 0 || len(c.Added) > 0 {
		b.WriteString("\n  Blockers:\n")
		for _, blk := range c.Resolved {
			fmt.Fprintf(&b, "    - %s (%s)\n", blk.ID, blk.Title)
		}
		for _, blk := range c.Added {
			fmt.Fprintf(&b, "    + %s (%s)\n", blk.ID, blk.Title)
		}
	}

	if len(c.Changes) > 0 {
		b.WriteString("\n  Inputs:\n")
		for _, ch := range c.Changes {
			fmt.Fprintf(&b, "    %-14s %s → %s", ch.Field+":", orNone(ch.Old), orNone(ch.New))
			if ch.Comment != "" {
				fmt.Fprintf(&b, "  (%s)", ch.Comment)
			}
			b.WriteString("\n")
		}
	}

	if c.ItineraryChanged {
		b.WriteString("\n  Itinerary changed.\n")
	}

	return b.String()
}

// FormatJSON renders a comparison as JSON.
func FormatJSON(c *Comparison) (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal comparison: %w", err)
	}
	return string(data), nil
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
