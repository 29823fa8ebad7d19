package mcp

import (
	"context"
	"testing"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/config"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

var t0 = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(Config{Clock: clock.NewFake(t0)})
}

func snapshotFor(in trip.VerdictInput, budget float64) trip.Snapshot {
	res := verdict.Compute(in)
	return trip.Snapshot{
		TripID:   "trip-1",
		Status:   trip.StatusReady,
		Input:    trip.Input{Destination: "Tokyo", Budget: budget},
		Signals:  in,
		Result:   res,
		Blockers: verdict.Blockers(res),
	}
}

func TestVerdictFromReport(t *testing.T) {
	s := newTestServer(t)

	report := map[string]any{
		"score": 95.0,
		"visaDetails": map[string]any{
			"type":           "visa_required",
			"processingDays": map[string]any{"minimum": 10.0, "maximum": 21.0},
		},
	}
	result, out, err := s.handleVerdict(context.Background(), &mcpsdk.CallToolRequest{}, VerdictInput{
		Report: report,
		Dates:  "October 25 - 30, 2026",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != nil && result.IsError {
		t.Fatal("expected success, got error result")
	}
	if out.Input.DaysUntilTravel != 8 {
		t.Errorf("expected 8 days until travel, got %d", out.Input.DaysUntilTravel)
	}
	if out.Result.Verdict != trip.Difficult {
		t.Errorf("expected DIFFICULT, got %s", out.Result.Verdict)
	}
	if len(out.Blockers) != 1 || out.Blockers[0].ID != verdict.BlockerVisaTiming {
		t.Errorf("expected visa timing blocker, got %+v", out.Blockers)
	}
}

func TestVerdictFromCanonicalInput(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleVerdict(context.Background(), &mcpsdk.CallToolRequest{}, VerdictInput{
		Input: &trip.VerdictInput{CertaintyScore: 85, SafetyLevel: 1, TotalCost: 1000, UserBudget: 2000, DaysUntilTravel: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result.Verdict != trip.Go {
		t.Errorf("expected GO, got %s", out.Result.Verdict)
	}
	if len(out.Blockers) != 0 {
		t.Errorf("expected no blockers, got %+v", out.Blockers)
	}
}

func TestVerdictInvalidStartDate(t *testing.T) {
	s := newTestServer(t)

	_, _, err := s.handleVerdict(context.Background(), &mcpsdk.CallToolRequest{}, VerdictInput{StartDate: "next week"})
	if err == nil {
		t.Fatal("expected error for invalid start_date")
	}
}

func TestVerdictUsesReloadedConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verdict.GoMin = 90
	s := New(Config{Source: func() *config.Config { return cfg }, Clock: clock.NewFake(t0)})

	_, out, err := s.handleVerdict(context.Background(), &mcpsdk.CallToolRequest{}, VerdictInput{
		Input: &trip.VerdictInput{CertaintyScore: 85, SafetyLevel: 1, DaysUntilTravel: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Result.Verdict != trip.Possible {
		t.Errorf("expected POSSIBLE with go_min 90, got %s", out.Result.Verdict)
	}
}

func TestBlockerDeltaAbsent(t *testing.T) {
	s := newTestServer(t)

	_, out, err := s.handleBlockerDelta(context.Background(), &mcpsdk.CallToolRequest{}, BlockerDeltaInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Present {
		t.Error("expected present=false for nil response")
	}
}

func TestBlockerDeltaNormalizes(t *testing.T) {
	s := newTestServer(t)

	resp := &trip.ChangePlannerResponse{
		ChangeID: "chg-1",
		DeltaSummary: map[string]any{
			"blockers": map[string]any{
				"before":   2.0,
				"after":    "n/a",
				"resolved": []any{"visa_timing", "visa_timing", 7.0},
			},
		},
	}
	_, out, err := s.handleBlockerDelta(context.Background(), &mcpsdk.CallToolRequest{}, BlockerDeltaInput{Response: resp})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Present || out.Before != 2 || out.After != 0 {
		t.Errorf("expected present 2 -> 0, got %+v", out)
	}
	if len(out.Resolved) != 1 || out.Resolved[0] != "visa_timing" {
		t.Errorf("expected deduplicated resolved list, got %v", out.Resolved)
	}
	if len(out.Added) != 0 {
		t.Errorf("expected empty added list, got %v", out.Added)
	}
	if out.ComputedAt != "2026-10-17T09:00:00Z" {
		t.Errorf("expected computed_at from clock, got %q", out.ComputedAt)
	}
}

func TestDiffReportsResolvedBlockers(t *testing.T) {
	s := newTestServer(t)

	orig := snapshotFor(trip.VerdictInput{CertaintyScore: 85, SafetyLevel: 1, TotalCost: 2500, UserBudget: 2000, DaysUntilTravel: 40}, 2000)
	upd := snapshotFor(trip.VerdictInput{CertaintyScore: 85, SafetyLevel: 1, TotalCost: 2500, UserBudget: 2700, DaysUntilTravel: 40}, 2700)

	_, out, err := s.handleDiff(context.Background(), &mcpsdk.CallToolRequest{}, DiffInput{Original: orig, Updated: upd})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.VerdictBefore != trip.Possible || out.VerdictAfter != trip.Go {
		t.Errorf("expected POSSIBLE -> GO, got %s -> %s", out.VerdictBefore, out.VerdictAfter)
	}
	if len(out.Resolved) != 1 || out.Resolved[0].ID != verdict.BlockerOverBudget20 {
		t.Errorf("expected over budget blocker resolved, got %+v", out.Resolved)
	}
	if !out.HasChanges {
		t.Error("expected changes")
	}
}

func TestSuggestPicksHighestImpact(t *testing.T) {
	s := newTestServer(t)

	snap := snapshotFor(trip.VerdictInput{
		CertaintyScore:     70,
		VisaType:           trip.VisaRequired,
		VisaProcessingDays: trip.ProcessingDays{Minimum: 10, Maximum: 20},
		SafetyLevel:        1,
		TotalCost:          2500,
		UserBudget:         2000,
		DaysUntilTravel:    5,
	}, 2000)

	_, out, err := s.handleSuggest(context.Background(), &mcpsdk.CallToolRequest{}, SuggestInput{Snapshot: snap})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Found || out.Suggestion.ID != nextfix.FixAdjustDates {
		t.Errorf("expected adjust_dates, got %+v", out)
	}
}

func TestSuggestNothingActionable(t *testing.T) {
	s := newTestServer(t)

	snap := snapshotFor(trip.VerdictInput{CertaintyScore: 90, SafetyLevel: 1, TotalCost: 1000, UserBudget: 2000, DaysUntilTravel: 40}, 2000)
	_, out, err := s.handleSuggest(context.Background(), &mcpsdk.CallToolRequest{}, SuggestInput{Snapshot: snap, Original: &snap})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Found {
		t.Errorf("expected no suggestion, got %+v", out.Suggestion)
	}
}

func TestVerdictNearBudgetTolerance(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verdict.NearBudgetTolerance = 0.1
	s := New(Config{Source: func() *config.Config { return cfg }, Clock: clock.NewFake(t0)})

	_, out, err := s.handleVerdict(context.Background(), &mcpsdk.CallToolRequest{}, VerdictInput{
		Input: &trip.VerdictInput{CertaintyScore: 85, SafetyLevel: 1, TotalCost: 1900, UserBudget: 2000, DaysUntilTravel: 40},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.NearBudget {
		t.Error("expected near budget at 95% with 10% tolerance")
	}
	if out.Result.Verdict != trip.Go {
		t.Errorf("expected GO, got %s", out.Result.Verdict)
	}
}
