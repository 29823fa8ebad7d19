package verdict

import (
	"math"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// Compute evaluates the input against the default thresholds.
func Compute(in trip.VerdictInput) trip.VerdictResult {
	return ComputeWith(in, nil)
}

// ComputeWith evaluates a verdict input. Pure and deterministic; never fails.
//
// Evaluation order (must not be changed):
//  1. Base verdict from certainty score
//  2. Budget metrics (unknown budget → ratio 1, no budget overrides)
//  3. Forcing overrides: visa timing, safety, over budget 50
//  4. Downgrade-only overrides: visa high risk, over budget 20, short-notice visa
//  5. Reasons, in the same order
func ComputeWith(in trip.VerdictInput, cfg *Config) trip.VerdictResult {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	res := trip.VerdictResult{
		Score:            in.CertaintyScore,
		Verdict:          baseVerdict(in.CertaintyScore, cfg),
		OverridesApplied: []trip.Override{},
		BudgetRatio:      1,
	}

	// Step 2: budget metrics
	budgetKnown := in.UserBudget > 0 && !math.IsInf(in.UserBudget, 0)
	if budgetKnown {
		res.BudgetRatio = in.TotalCost / in.UserBudget
		res.BudgetDelta = in.TotalCost - in.UserBudget
		if math.IsNaN(res.BudgetRatio) || math.IsInf(res.BudgetRatio, 0) {
			res.BudgetRatio = 1
			res.BudgetDelta = 0
			budgetKnown = false
		} else if res.BudgetRatio < 0 {
			res.BudgetRatio = 0
		}
	}

	requiresVisa := in.VisaType.RequiresVisa()

	// Step 3: forcing overrides
	if requiresVisa && in.DaysUntilTravel < in.VisaProcessingDays.Minimum {
		res.RiskFlags.VisaTimingBlocker = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideVisaTimingBlocker)
		res.Verdict = trip.Difficult
	}

	if in.SafetyLevel >= cfg.SafetyBlockLevel {
		res.RiskFlags.SafetyL3Plus = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideSafetyL3Plus)
		res.Verdict = trip.Difficult
	}

	if budgetKnown && res.BudgetRatio >= cfg.OverBudgetBlock {
		res.RiskFlags.OverBudget50 = true
		res.RiskFlags.OverBudget20 = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideOverBudget50)
		res.Verdict = trip.Difficult
	}

	// Step 4: downgrade-only overrides. Worse never upgrades and never goes
	// past DIFFICULT.
	if in.VisaRisk == trip.RiskHigh {
		res.RiskFlags.VisaHighRisk = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideVisaHighRisk)
		res.Verdict = trip.Worse(res.Verdict, trip.Possible)
	}

	if budgetKnown && res.BudgetRatio >= cfg.OverBudgetWarn && res.BudgetRatio < cfg.OverBudgetBlock {
		res.RiskFlags.OverBudget20 = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideOverBudget20)
		res.Verdict = trip.Worse(res.Verdict, trip.Possible)
	}

	if requiresVisa && in.DaysUntilTravel < cfg.ShortNoticeDays && !res.RiskFlags.VisaTimingBlocker {
		res.RiskFlags.Under7DaysVisaRequired = true
		res.OverridesApplied = append(res.OverridesApplied, trip.OverrideUnder7DaysVisaRequired)
		res.Verdict = trip.Worse(res.Verdict, trip.Possible)
	}

	// Step 5: reasons
	res.Reasons = buildReasons(in, res)

	return res
}

// baseVerdict maps a certainty score to a tier. Lower bounds are inclusive;
// out-of-range scores fall into the nearest tier.
func baseVerdict(score int, cfg *Config) trip.Verdict {
	switch {
	case score >= cfg.GoMin:
		return trip.Go
	case score >= cfg.PossibleMin:
		return trip.Possible
	default:
		return trip.Difficult
	}
}
