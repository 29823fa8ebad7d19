package trip

import "time"

// VisaType classifies entry requirements for the destination.
type VisaType string

const (
	VisaFree       VisaType = "visa_free"
	VisaOnArrival  VisaType = "visa_on_arrival"
	EVisa          VisaType = "e_visa"
	VisaRequired   VisaType = "visa_required"
	VisaNotAllowed VisaType = "not_allowed"
)

// RequiresVisa reports whether any visa action is needed before entry.
func (v VisaType) RequiresVisa() bool {
	return v != VisaFree && v != ""
}

// VisaRisk is the upstream estimate of a visa application going wrong.
type VisaRisk string

const (
	RiskLow    VisaRisk = "low"
	RiskMedium VisaRisk = "medium"
	RiskHigh   VisaRisk = "high"
)

// Verdict is the top-level feasibility recommendation.
type Verdict string

const (
	Go        Verdict = "GO"
	Possible  Verdict = "POSSIBLE"
	Difficult Verdict = "DIFFICULT"
)

// verdictRank orders verdicts from best to worst for monotonic downgrades.
var verdictRank = map[Verdict]int{
	Go:        0,
	Possible:  1,
	Difficult: 2,
}

// Worse returns the worse of two verdicts. Unknown verdicts rank as GO.
func Worse(a, b Verdict) Verdict {
	if verdictRank[b] > verdictRank[a] {
		return b
	}
	return a
}

// Override identifies a rule that forced or downgraded a verdict.
type Override string

const (
	OverrideVisaTimingBlocker      Override = "VISA_TIMING_BLOCKER"
	OverrideSafetyL3Plus           Override = "SAFETY_L3_PLUS"
	OverrideOverBudget50           Override = "OVER_BUDGET_50"
	OverrideVisaHighRisk           Override = "VISA_HIGH_RISK"
	OverrideOverBudget20           Override = "OVER_BUDGET_20"
	OverrideUnder7DaysVisaRequired Override = "UNDER_7_DAYS_VISA_REQUIRED"
)

// ProcessingDays is the visa processing window in days.
type ProcessingDays struct {
	Minimum int `json:"minimum" yaml:"minimum"`
	Maximum int `json:"maximum" yaml:"maximum"`
}

// VerdictInput is the canonical, fully-defaulted input to the verdict engine.
type VerdictInput struct {
	CertaintyScore     int            `json:"certaintyScore" yaml:"certainty_score"`
	VisaType           VisaType       `json:"visaType" yaml:"visa_type"`
	VisaProcessingDays ProcessingDays `json:"visaProcessingDays" yaml:"visa_processing_days"`
	VisaRisk           VisaRisk       `json:"visaRisk" yaml:"visa_risk"`
	SafetyLevel        int            `json:"safetyLevel" yaml:"safety_level"`
	TotalCost          float64        `json:"totalCost" yaml:"total_cost"`
	UserBudget         float64        `json:"userBudget" yaml:"user_budget"`
	DaysUntilTravel    int            `json:"daysUntilTravel" yaml:"days_until_travel"`
}

// RiskFlags records which override conditions were detected,
// independent of whether they changed the final verdict.
type RiskFlags struct {
	VisaHighRisk           bool `json:"visaHighRisk"`
	OverBudget20           bool `json:"overBudget20"`
	OverBudget50           bool `json:"overBudget50"`
	VisaTimingBlocker      bool `json:"visaTimingBlocker"`
	SafetyL3Plus           bool `json:"safetyL3Plus"`
	Under7DaysVisaRequired bool `json:"under7DaysVisaRequired"`
}

// Any returns true if at least one flag is set.
func (f RiskFlags) Any() bool {
	return f.VisaHighRisk || f.OverBudget20 || f.OverBudget50 ||
		f.VisaTimingBlocker || f.SafetyL3Plus || f.Under7DaysVisaRequired
}

// VerdictResult is the output of the verdict engine.
type VerdictResult struct {
	Score            int        `json:"score"`
	Verdict          Verdict    `json:"verdict"`
	OverridesApplied []Override `json:"overridesApplied"`
	RiskFlags        RiskFlags  `json:"riskFlags"`
	BudgetRatio      float64    `json:"budgetRatio"`
	BudgetDelta      float64    `json:"budgetDelta"`
	Reasons          []string   `json:"reasons"`
}

// HasOverride returns true if the override was applied.
func (r VerdictResult) HasOverride(o Override) bool {
	for _, applied := range r.OverridesApplied {
		if applied == o {
			return true
		}
	}
	return false
}

// BlockerCategory groups blockers and fixes. Lower value = higher priority.
type BlockerCategory string

const (
	CategoryTiming   BlockerCategory = "timing"
	CategorySafety   BlockerCategory = "safety"
	CategoryBudget   BlockerCategory = "budget"
	CategoryCosmetic BlockerCategory = "cosmetic"
)

// CategoryRank gives the fixed tie-break order timing > safety > budget > cosmetic.
var CategoryRank = map[BlockerCategory]int{
	CategoryTiming:   0,
	CategorySafety:   1,
	CategoryBudget:   2,
	CategoryCosmetic: 3,
}

// Blocker is a named reason a trip cannot or should not proceed.
type Blocker struct {
	ID       string          `json:"id"`
	Title    string          `json:"title"`
	Category BlockerCategory `json:"category"`
}

// BlockerDeltaUI is the display-ready projection of a plan's blocker delta.
type BlockerDeltaUI struct {
	Before     int       `json:"before"`
	After      int       `json:"after"`
	Resolved   []string  `json:"resolved"`
	Added      []string  `json:"added"`
	ComputedAt time.Time `json:"computedAt"`
}

// NextFixSuggestion is a single ranked corrective action.
type NextFixSuggestion struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	TargetField     string          `json:"targetField"`
	EstimatedImpact int             `json:"estimatedImpact"`
	Category        BlockerCategory `json:"category"`
}

// UndoContext is the minimal state needed to reverse one applied change.
type UndoContext struct {
	ChangeID  string    `json:"changeId"`
	PrevInput Input     `json:"prevInput"`
	NextInput Input     `json:"nextInput"`
	AppliedAt time.Time `json:"appliedAt"`
	Source    string    `json:"source"`
}

// Expired returns true once the window has elapsed since AppliedAt.
func (u *UndoContext) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(u.AppliedAt.Add(window))
}

// CertaintyPoint is one entry in a trip's certainty history.
type CertaintyPoint struct {
	ID     string    `json:"id"`
	Score  int       `json:"score"`
	At     time.Time `json:"at"`
	Label  string    `json:"label"`
	Source string    `json:"source"`
}
