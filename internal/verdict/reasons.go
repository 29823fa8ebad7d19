package verdict

import (
	"fmt"
	"math"

	"github.com/ppiankov/tripcheck/internal/trip"
)

const (
	reasonAllClear = "All checks passed"
	reasonVisaFree = "Visa-free entry for this destination"
)

// buildReasons renders one reason per flag in evaluation order, followed by
// the informational reasons.
func buildReasons(in trip.VerdictInput, res trip.VerdictResult) []string {
	f := res.RiskFlags
	reasons := make([]string, 0, 4)

	if f.VisaTimingBlocker {
		reasons = append(reasons, fmt.Sprintf(
			"Visa processing needs at least %d days but travel is in %d days",
			in.VisaProcessingDays.Minimum, in.DaysUntilTravel))
	}
	if f.SafetyL3Plus {
		reasons = append(reasons, fmt.Sprintf(
			"Safety level %d: reconsider travel to this destination", in.SafetyLevel))
	}
	if f.OverBudget50 {
		reasons = append(reasons, fmt.Sprintf(
			"Estimated cost is %d%% over budget", overPercent(res.BudgetRatio)))
	}
	if f.VisaHighRisk {
		reasons = append(reasons, "High risk of visa delay or refusal")
	}
	if f.OverBudget20 && !f.OverBudget50 {
		reasons = append(reasons, fmt.Sprintf(
			"Estimated cost is %d%% over budget", overPercent(res.BudgetRatio)))
	}
	if f.Under7DaysVisaRequired {
		reasons = append(reasons, fmt.Sprintf(
			"Travel is in %d days and a visa (%s) is still required",
			in.DaysUntilTravel, in.VisaType))
	}

	if res.BudgetDelta < 0 {
		reasons = append(reasons, fmt.Sprintf("%.0f remaining in budget", -res.BudgetDelta))
	}
	if in.VisaType == trip.VisaFree {
		reasons = append(reasons, reasonVisaFree)
	}
	if !f.Any() {
		reasons = append(reasons, reasonAllClear)
	}

	return reasons
}

func overPercent(ratio float64) int {
	return int(math.Round((ratio - 1) * 100))
}
