package nextfix

import (
	"testing"

	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
)

func snap(flags trip.RiskFlags) *trip.Snapshot {
	return &trip.Snapshot{
		TripID:  "t1",
		Status:  trip.StatusReady,
		Signals: trip.VerdictInput{UserBudget: 2000, TotalCost: 1500},
		Result:  trip.VerdictResult{Score: 70, RiskFlags: flags, BudgetRatio: 0.75},
	}
}

func TestSuggestNilWhenClear(t *testing.T) {
	if s := Suggest(nil, snap(trip.RiskFlags{}), nil); s != nil {
		t.Errorf("expected nil suggestion, got %+v", s)
	}
	if s := Suggest(nil, nil, nil); s != nil {
		t.Errorf("expected nil for nil snapshot, got %+v", s)
	}
}

func TestSuggestVisaTimingBeatsBudget(t *testing.T) {
	s := Suggest(nil, snap(trip.RiskFlags{VisaTimingBlocker: true, OverBudget20: true}), nil)
	if s == nil || s.ID != FixAdjustDates {
		t.Fatalf("expected adjust_dates, got %+v", s)
	}
	if s.TargetField != TargetStartDate {
		t.Errorf("expected start_date target, got %s", s.TargetField)
	}
	if s.EstimatedImpact != 30 {
		t.Errorf("expected impact 30, got %d", s.EstimatedImpact)
	}
}

func TestSuggestTieBreaksByCategory(t *testing.T) {
	// Safety and over-budget-50 share an impact of 25; safety ranks first.
	s := Suggest(nil, snap(trip.RiskFlags{SafetyL3Plus: true, OverBudget50: true, OverBudget20: true}), nil)
	if s == nil || s.ID != FixReviewSafety {
		t.Fatalf("expected review_safety, got %+v", s)
	}
}

func TestSuggestNewBlockerBonus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Impacts.OverBudget20 = 10
	cfg.Impacts.VisaHighRisk = 10

	cmp := &tripdiff.Comparison{
		Added: []trip.Blocker{{ID: "over_budget_20", Category: trip.CategoryBudget}},
	}
	s := Suggest(cmp, snap(trip.RiskFlags{VisaHighRisk: true, OverBudget20: true}), cfg)
	if s == nil || s.ID != FixAdjustBudget {
		t.Fatalf("expected adjust_budget after bonus, got %+v", s)
	}
	if s.EstimatedImpact != 15 {
		t.Errorf("expected boosted impact 15, got %d", s.EstimatedImpact)
	}

	// Without the comparison the safety category wins the tie.
	s = Suggest(nil, snap(trip.RiskFlags{VisaHighRisk: true, OverBudget20: true}), cfg)
	if s == nil || s.ID != FixVisaDocuments {
		t.Fatalf("expected visa_documents, got %+v", s)
	}
}

func TestSuggestTrimWhenSlightlyOverBudget(t *testing.T) {
	sn := snap(trip.RiskFlags{})
	sn.Result.BudgetRatio = 1.1
	s := Suggest(nil, sn, nil)
	if s == nil || s.ID != FixTrimItinerary {
		t.Fatalf("expected trim_itinerary, got %+v", s)
	}

	sn.Result.BudgetRatio = 1.0
	if s := Suggest(nil, sn, nil); s != nil {
		t.Errorf("expected nil at exactly budget, got %+v", s)
	}
}

func TestSuggestTrimRespectsTolerance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NearBudgetTolerance = 0.1
	sn := snap(trip.RiskFlags{})
	sn.Result.BudgetRatio = 0.95
	s := Suggest(nil, sn, cfg)
	if s == nil || s.ID != FixTrimItinerary {
		t.Fatalf("expected trim_itinerary within tolerance, got %+v", s)
	}
}

func TestSuggestUnknownBudgetNeverTrims(t *testing.T) {
	sn := snap(trip.RiskFlags{})
	sn.Signals.UserBudget = 0
	sn.Result.BudgetRatio = 1
	if s := Suggest(nil, sn, nil); s != nil {
		t.Errorf("expected nil with unknown budget, got %+v", s)
	}
}

func TestSuggestOverloadedItinerary(t *testing.T) {
	sn := snap(trip.RiskFlags{})
	sn.Itinerary = []trip.ItineraryDay{
		{Day: 1, Activities: []string{"a", "b", "c", "d", "e", "f"}},
	}
	s := Suggest(nil, sn, nil)
	if s == nil || s.ID != FixTrimItinerary {
		t.Fatalf("expected trim_itinerary, got %+v", s)
	}
	if s.Category != trip.CategoryCosmetic {
		t.Errorf("expected cosmetic, got %s", s.Category)
	}
}

func TestSuggestDeterministic(t *testing.T) {
	flags := trip.RiskFlags{VisaHighRisk: true, SafetyL3Plus: true, OverBudget20: true, Under7DaysVisaRequired: true}
	first := Suggest(nil, snap(flags), nil)
	for i := 0; i < 20; i++ {
		got := Suggest(nil, snap(flags), nil)
		if *got != *first {
			t.Fatalf("expected stable suggestion, got %+v then %+v", first, got)
		}
	}
}

func TestKeyRoundTrip(t *testing.T) {
	k := NewKey("trip-1", "chg-9", FixAdjustDates)
	got, err := ParseKey(k.String())
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if got != k {
		t.Errorf("expected %+v, got %+v", k, got)
	}
	if _, err := ParseKey("only/two"); err == nil {
		t.Error("expected error for malformed key")
	}
}

func TestBlockerImpact(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.BlockerImpact("visa_timing"); got != 30 {
		t.Errorf("expected 30, got %d", got)
	}
	if got := cfg.BlockerImpact("unknown"); got != 0 {
		t.Errorf("expected 0 for unknown blocker, got %d", got)
	}
}
