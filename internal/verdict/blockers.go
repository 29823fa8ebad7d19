package verdict

import "github.com/ppiankov/tripcheck/internal/trip"

// Stable blocker ids derived from risk flags.
const (
	BlockerVisaTiming      = "visa_timing"
	BlockerSafetyLevel     = "safety_level"
	BlockerOverBudget50    = "over_budget_50"
	BlockerVisaHighRisk    = "visa_high_risk"
	BlockerOverBudget20    = "over_budget_20"
	BlockerShortNoticeVisa = "short_notice_visa"
)

// Blockers projects a verdict result's risk flags onto named blockers, in
// override precedence order. OverBudget20 is implied by OverBudget50 and is
// not listed twice.
func Blockers(res trip.VerdictResult) []trip.Blocker {
	f := res.RiskFlags
	out := []trip.Blocker{}
	if f.VisaTimingBlocker {
		out = append(out, trip.Blocker{ID: BlockerVisaTiming, Title: "Visa cannot be processed before departure", Category: trip.CategoryTiming})
	}
	if f.SafetyL3Plus {
		out = append(out, trip.Blocker{ID: BlockerSafetyLevel, Title: "Destination safety advisory", Category: trip.CategorySafety})
	}
	if f.OverBudget50 {
		out = append(out, trip.Blocker{ID: BlockerOverBudget50, Title: "Cost far exceeds budget", Category: trip.CategoryBudget})
	}
	if f.VisaHighRisk {
		out = append(out, trip.Blocker{ID: BlockerVisaHighRisk, Title: "High visa risk", Category: trip.CategorySafety})
	}
	if f.OverBudget20 && !f.OverBudget50 {
		out = append(out, trip.Blocker{ID: BlockerOverBudget20, Title: "Cost exceeds budget", Category: trip.CategoryBudget})
	}
	if f.Under7DaysVisaRequired {
		out = append(out, trip.Blocker{ID: BlockerShortNoticeVisa, Title: "Visa needed on short notice", Category: trip.CategoryTiming})
	}
	return out
}
