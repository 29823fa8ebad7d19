package nextfix

import (
	"sort"

	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
)

// Suggest picks the single highest-value corrective action for the current
// trip, or nil when nothing actionable remains. Candidates are ranked by
// estimated certainty impact; ties fall back to category order
// (timing > safety > budget > cosmetic), then id. The comparison boosts fixes
// for blocker categories that were newly introduced since the original plan.
func Suggest(cmp *tripdiff.Comparison, current *trip.Snapshot, cfg *Config) *trip.NextFixSuggestion {
	if current == nil {
		return nil
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	candidates := Candidates(current, cfg)
	if len(candidates) == 0 {
		return nil
	}

	if cmp != nil {
		for i := range candidates {
			if cmp.AddedIn(candidates[i].Category) {
				candidates[i].EstimatedImpact += cfg.NewBlockerBonus
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.EstimatedImpact != b.EstimatedImpact {
			return a.EstimatedImpact > b.EstimatedImpact
		}
		if trip.CategoryRank[a.Category] != trip.CategoryRank[b.Category] {
			return trip.CategoryRank[a.Category] < trip.CategoryRank[b.Category]
		}
		return a.ID < b.ID
	})

	best := candidates[0]
	return &best
}

// Candidates lists every applicable fix for the snapshot, unranked.
func Candidates(s *trip.Snapshot, cfg *Config) []trip.NextFixSuggestion {
	f := s.Result.RiskFlags
	var out []trip.NextFixSuggestion

	if f.VisaTimingBlocker || f.Under7DaysVisaRequired {
		impact := cfg.Impacts.ShortNoticeVisa
		title := "Push your start date back to leave time for the visa"
		if f.VisaTimingBlocker {
			impact = cfg.Impacts.VisaTiming
			title = "Move your dates past the visa processing time"
		}
		out = append(out, trip.NextFixSuggestion{
			ID:              FixAdjustDates,
			Title:           title,
			TargetField:     TargetStartDate,
			EstimatedImpact: impact,
			Category:        trip.CategoryTiming,
		})
	}

	if f.SafetyL3Plus {
		out = append(out, trip.NextFixSuggestion{
			ID:              FixReviewSafety,
			Title:           "Review the destination's safety advisory",
			TargetField:     TargetDestination,
			EstimatedImpact: cfg.Impacts.Safety,
			Category:        trip.CategorySafety,
		})
	}

	if f.VisaHighRisk {
		out = append(out, trip.NextFixSuggestion{
			ID:              FixVisaDocuments,
			Title:           "Prepare visa documents early",
			TargetField:     TargetVisa,
			EstimatedImpact: cfg.Impacts.VisaHighRisk,
			Category:        trip.CategorySafety,
		})
	}

	if f.OverBudget50 || f.OverBudget20 {
		impact := cfg.Impacts.OverBudget20
		if f.OverBudget50 {
			impact = cfg.Impacts.OverBudget50
		}
		out = append(out, trip.NextFixSuggestion{
			ID:              FixAdjustBudget,
			Title:           "Raise your budget to cover the estimated cost",
			TargetField:     TargetBudget,
			EstimatedImpact: impact,
			Category:        trip.CategoryBudget,
		})
	} else if nearBudget(s, cfg) || overloaded(s.Itinerary, cfg.MaxActivitiesPerDay) {
		out = append(out, trip.NextFixSuggestion{
			ID:              FixTrimItinerary,
			Title:           "Trim the itinerary",
			TargetField:     TargetItinerary,
			EstimatedImpact: cfg.Impacts.TrimItinerary,
			Category:        trip.CategoryCosmetic,
		})
	}

	return out
}

// nearBudget is true when a known budget is exceeded, or approached within
// the configured tolerance, without tripping a budget override.
func nearBudget(s *trip.Snapshot, cfg *Config) bool {
	if s.Signals.UserBudget <= 0 {
		return false
	}
	return s.Result.BudgetRatio > 1-cfg.NearBudgetTolerance
}

func overloaded(days []trip.ItineraryDay, max int) bool {
	if max <= 0 {
		return false
	}
	for _, d := range days {
		if len(d.Activities) > max {
			return true
		}
	}
	return false
}
