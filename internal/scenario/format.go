package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatText renders a list of run results as human-readable text.
func FormatText(results []*RunResult) string {
	var b strings.Builder

	totalFiles := len(results)
	fmt.Fprintf(&b, "Checking %d scenario file", totalFiles)
	if totalFiles != 1 {
		b.WriteString("s")
	}
	b.WriteString("...\n\n")

	totalCases := 0
	totalPassed := 0
	failedScenarios := 0

	for _, r := range results {
		totalCases += r.Total
		totalPassed += r.Passed

		status := "PASS"
		if r.Failed > 0 {
			status = "FAIL"
			failedScenarios++
		}
		fmt.Fprintf(&b, "  %s  %s (%d/%d)\n", status, r.Name, r.Passed, r.Total)

		for _, c := range r.Cases {
			if c.Passed {
				continue
			}
			name := c.Name
			if len(name) > 32 {
				name = name[:29] + "..."
			}
			if c.Error != "" {
				fmt.Fprintf(&b, "    FAIL  case %d: %-32s %s\n", c.Index, name, c.Error)
				continue
			}
			fmt.Fprintf(&b, "    FAIL  case %d: %-32s expected %s, got %s", c.Index, name, c.Expected, c.Actual)
			if c.ExpectedOverrides != nil {
				fmt.Fprintf(&b, " [overrides want %s, got %s]",
					strings.Join(c.ExpectedOverrides, ","), strings.Join(c.ActualOverrides, ","))
			}
			if c.ExpectedNextFix != "" && c.ExpectedNextFix != c.ActualNextFix {
				fmt.Fprintf(&b, " [next fix want %s, got %s]", c.ExpectedNextFix, c.ActualNextFix)
			}
			b.WriteString("\n")
		}
	}

	fmt.Fprintf(&b, "\n%d of %d cases passed.", totalPassed, totalCases)
	if failedScenarios > 0 {
		fmt.Fprintf(&b, " %d of %d scenarios failed.", failedScenarios, totalFiles)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders run results as JSON.
func FormatJSON(results []*RunResult) (string, error) {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}
