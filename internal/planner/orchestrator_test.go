package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/versions"
)

type fakeReplanner struct {
	mu    sync.Mutex
	calls []PlanRequest
	err   error
	n     int
}

func (f *fakeReplanner) Replan(_ context.Context, req PlanRequest) (*trip.ChangePlannerResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	f.n++
	return &trip.ChangePlannerResponse{
		ChangeID: fmt.Sprintf("c%d", f.n),
		DeltaSummary: map[string]any{
			"certainty": map[string]any{"before": 60.0, "after": float64(60 + f.n*5)},
			"blockers":  map[string]any{"before": 2.0, "after": 1.0, "resolved": []any{"visa_timing"}, "new": []any{}},
		},
	}, nil
}

func (f *fakeReplanner) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type harness struct {
	orch     *Orchestrator
	replan   *fakeReplanner
	clock    *clock.Fake
	versions chan versions.Version
}

func newHarness(t *testing.T, store *nextfix.Store) *harness {
	t.Helper()
	h := &harness{
		replan:   &fakeReplanner{},
		clock:    clock.NewFake(t0),
		versions: make(chan versions.Version, 16),
	}
	orch, err := New(Options{
		Replanner:   h.replan,
		Suggestions: store,
		Clock:       h.clock,
		Sink: versions.SinkFunc(func(_ context.Context, v versions.Version) error {
			h.versions <- v
			return nil
		}),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.orch = orch
	return h
}

func (h *harness) planAndApply(t *testing.T, prev, next trip.Input) *Adoption {
	t.Helper()
	ctx := context.Background()
	p, err := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: prev, NextInput: next})
	if err != nil {
		t.Fatalf("PlanChanges: %v", err)
	}
	a, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p})
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	return a
}

var (
	lisbon2000 = trip.Input{Destination: "Lisbon", Budget: 2000}
	lisbon2500 = trip.Input{Destination: "Lisbon", Budget: 2500}
)

func TestNewRequiresReplanner(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Error("expected error without replanner")
	}
}

func TestPlanAndApply(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.orch.SeedReport(trip.Snapshot{TripID: "t1", Status: trip.StatusReady, Input: lisbon2000, Result: trip.VerdictResult{Score: 60}})

	p, err := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: lisbon2500})
	if err != nil {
		t.Fatal(err)
	}
	if st := h.orch.State("t1"); st.Phase != PhasePlanning {
		t.Errorf("expected planning before apply, got %s", st.Phase)
	}

	var working trip.Input
	var banner *trip.ChangePlannerResponse
	hookCalled := make(chan versions.Version, 1)
	a, err := h.orch.ApplyChanges(ctx, ApplyRequest{
		Plan: p,
		Hooks: Hooks{
			SetWorkingTrip:  func(in trip.Input) { working = in },
			SetBannerPlan:   func(r *trip.ChangePlannerResponse) { banner = r },
			OnVersionCreate: func(v versions.Version) { hookCalled <- v },
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if a.ChangeID != "c1" || a.Certainty != 65 {
		t.Errorf("expected c1 at 65, got %s at %d", a.ChangeID, a.Certainty)
	}
	if a.BlockerDelta == nil || len(a.BlockerDelta.Resolved) != 1 {
		t.Errorf("expected blocker delta with one resolved, got %+v", a.BlockerDelta)
	}
	if working.Budget != 2500 {
		t.Errorf("expected working trip set to next input, got %+v", working)
	}
	if banner == nil || banner.ChangeID != "c1" {
		t.Errorf("expected banner plan c1, got %+v", banner)
	}

	h.orch.Wait()
	select {
	case v := <-h.versions:
		if v.ChangeID != "c1" || v.Source != SourceManual || v.ID == "" {
			t.Errorf("unexpected version %+v", v)
		}
	default:
		t.Error("expected version sink call")
	}
	select {
	case <-hookCalled:
	default:
		t.Error("expected OnVersionCreate hook call")
	}

	st := h.orch.State("t1")
	if st.Phase != PhaseApplied {
		t.Errorf("expected applied, got %s", st.Phase)
	}
	if len(st.History) != 2 || st.History[0].Label != LabelInitial {
		t.Errorf("expected initial + change history, got %+v", st.History)
	}
}

func TestApplyStaleResponseDiscarded(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	p1, _ := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: lisbon2500})
	p2, _ := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: trip.Input{Destination: "Porto"}})

	if _, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p1}); !errors.Is(err, ErrStaleResponse) {
		t.Fatalf("expected ErrStaleResponse, got %v", err)
	}
	if st := h.orch.State("t1"); st.ChangeID != "" {
		t.Errorf("expected no adoption after stale response, got %s", st.ChangeID)
	}

	a, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p2})
	if err != nil {
		t.Fatal(err)
	}
	if a.ChangeID != "c2" {
		t.Errorf("expected c2, got %s", a.ChangeID)
	}
	if _, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p1}); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("expected late p1 to stay stale, got %v", err)
	}
}

func TestApplyDuplicateConfirmationTouchesOnly(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	p, _ := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: lisbon2500})
	if _, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p}); err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(300 * time.Millisecond)
	hookCalls := 0
	a, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p, Hooks: Hooks{SetWorkingTrip: func(trip.Input) { hookCalls++ }}})
	if err != nil {
		t.Fatal(err)
	}
	if !a.Duplicate {
		t.Error("expected duplicate confirmation")
	}
	if hookCalls != 0 {
		t.Error("expected no hooks on duplicate confirmation")
	}

	st := h.orch.State("t1")
	if !st.RecentlyChangedAt.Equal(t0.Add(300 * time.Millisecond)) {
		t.Errorf("expected indicator refreshed, got %v", st.RecentlyChangedAt)
	}
	if len(st.History) != 1 {
		t.Errorf("expected one history point, got %d", len(st.History))
	}

	h.orch.Wait()
	if n := len(h.versions); n != 1 {
		t.Errorf("expected exactly one version, got %d", n)
	}

	h.clock.Advance(2 * time.Second)
	if _, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p}); !errors.Is(err, ErrStaleResponse) {
		t.Errorf("expected stale after confirm window, got %v", err)
	}
}

func TestPlanFailureLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.planAndApply(t, lisbon2000, lisbon2500)

	boom := errors.New("upstream down")
	h.replan.setErr(boom)
	_, err := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2500, NextInput: trip.Input{Destination: "Porto"}})
	if !errors.Is(err, ErrPlanning) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped planning error, got %v", err)
	}

	st := h.orch.State("t1")
	if st.Phase != PhaseApplied || st.ChangeID != "c1" || st.Working.Budget != 2500 {
		t.Errorf("expected state untouched, got phase %s change %s working %+v", st.Phase, st.ChangeID, st.Working)
	}

	h.replan.setErr(nil)
	if _, err := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2500, NextInput: trip.Input{Destination: "Porto"}}); err != nil {
		t.Errorf("expected retry to succeed, got %v", err)
	}
}

func TestUndoSwapsInputs(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.planAndApply(t, lisbon2000, lisbon2500)

	var working trip.Input
	a, err := h.orch.Undo(ctx, "t1", Hooks{SetWorkingTrip: func(in trip.Input) { working = in }})
	if err != nil {
		t.Fatal(err)
	}
	if a.ChangeID != "c2" {
		t.Errorf("expected undo plan c2, got %s", a.ChangeID)
	}

	last := h.replan.calls[len(h.replan.calls)-1]
	if last.Source != SourceUndo || last.PrevInput.Budget != 2500 || last.NextInput.Budget != 2000 {
		t.Errorf("expected swapped undo request, got %+v", last)
	}
	if working.Budget != 2000 {
		t.Errorf("expected working trip restored, got %+v", working)
	}

	st := h.orch.State("t1")
	if st.Undo != nil || st.Phase != PhaseIdle {
		t.Errorf("expected no undo window after undo, got phase %s", st.Phase)
	}
	if st.History[len(st.History)-1].Label != LabelUndo {
		t.Errorf("expected undo history point, got %+v", st.History)
	}

	if _, err := h.orch.Undo(ctx, "t1", Hooks{}); !errors.Is(err, ErrNoUndo) {
		t.Errorf("expected ErrNoUndo on second undo, got %v", err)
	}
}

func TestUndoWindowExpires(t *testing.T) {
	h := newHarness(t, nil)
	h.planAndApply(t, lisbon2000, lisbon2500)

	h.clock.Advance(60 * time.Second)
	if _, err := h.orch.Undo(context.Background(), "t1", Hooks{}); !errors.Is(err, ErrNoUndo) {
		t.Errorf("expected ErrNoUndo after window, got %v", err)
	}
	if st := h.orch.State("t1"); st.Phase != PhaseIdle {
		t.Errorf("expected idle after window, got %s", st.Phase)
	}
}

func TestNewPlanReplacesUndo(t *testing.T) {
	h := newHarness(t, nil)
	h.planAndApply(t, lisbon2000, lisbon2500)
	h.clock.Advance(2 * time.Second)
	porto := trip.Input{Destination: "Porto", Budget: 2500}
	h.planAndApply(t, lisbon2500, porto)

	st := h.orch.State("t1")
	if st.Undo == nil || st.Undo.ChangeID != "c2" || st.Undo.PrevInput.Destination != "Lisbon" {
		t.Errorf("expected single undo for c2, got %+v", st.Undo)
	}
}

func TestDismissBanner(t *testing.T) {
	h := newHarness(t, nil)
	if h.orch.DismissBanner("t1") {
		t.Error("expected nothing to dismiss")
	}
	h.planAndApply(t, lisbon2000, lisbon2500)
	if !h.orch.DismissBanner("t1") {
		t.Error("expected banner dismissed")
	}
	st := h.orch.State("t1")
	if st.Phase != PhaseIdle || st.Undo != nil {
		t.Errorf("expected idle without undo, got %+v", st)
	}
}

func TestBlockerDeltaExpiresWithClock(t *testing.T) {
	h := newHarness(t, nil)
	h.planAndApply(t, lisbon2000, lisbon2500)
	if h.orch.State("t1").BlockerDelta == nil {
		t.Fatal("expected blocker delta after apply")
	}
	h.clock.Advance(12 * time.Second)
	if h.orch.State("t1").BlockerDelta != nil {
		t.Error("expected blocker delta cleared after 12s")
	}
}

func TestApplySuggestsAndInvalidates(t *testing.T) {
	store, err := nextfix.NewStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, store)
	ctx := context.Background()

	over := trip.Snapshot{
		Status:  trip.StatusReady,
		Input:   lisbon2000,
		Signals: trip.VerdictInput{UserBudget: 2000, TotalCost: 2500},
		Result: trip.VerdictResult{
			Score:     60,
			RiskFlags: trip.RiskFlags{OverBudget20: true},
		},
	}

	p, _ := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: lisbon2000})
	a, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p, Snapshot: &over})
	if err != nil {
		t.Fatal(err)
	}
	if a.Suggestion == nil || a.Suggestion.ID != nextfix.FixAdjustBudget {
		t.Fatalf("expected adjust_budget suggestion, got %+v", a.Suggestion)
	}
	st := h.orch.State("t1")
	if st.SuggestionKey == nil || st.SuggestionKey.ChangeID != "c1" {
		t.Errorf("expected suggestion key for c1, got %+v", st.SuggestionKey)
	}

	h.clock.Advance(2 * time.Second)
	p2, _ := h.orch.PlanChanges(ctx, PlanRequest{TripID: "t1", PrevInput: lisbon2000, NextInput: lisbon2500})
	if _, err := h.orch.ApplyChanges(ctx, ApplyRequest{Plan: p2, Snapshot: &over}); err != nil {
		t.Fatal(err)
	}
	entries, _ := store.Entries("t1")
	if len(entries) != 1 || entries[0].Key.ChangeID != "c2" {
		t.Errorf("expected only c2 entries after new change, got %+v", entries)
	}
}

func TestStateIsCopy(t *testing.T) {
	h := newHarness(t, nil)
	h.planAndApply(t, lisbon2000, lisbon2500)
	st := h.orch.State("t1")
	st.History[0].Score = -1
	st.Undo.ChangeID = "mutated"
	again := h.orch.State("t1")
	if again.History[0].Score == -1 || again.Undo.ChangeID == "mutated" {
		t.Error("expected State to return an independent copy")
	}
}
