package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
	"github.com/ppiankov/tripcheck/internal/versions"
)

var (
	// ErrStaleResponse is returned when a plan was superseded before it could be adopted.
	ErrStaleResponse = errors.New("stale plan response")
	// ErrNoUndo is returned when there is no active change to undo.
	ErrNoUndo = errors.New("nothing to undo")
	// ErrPlanning wraps replanner failures.
	ErrPlanning = errors.New("replanning failed")
)

// Plan sources.
const (
	SourceManual     = "manual"
	SourceSuggestion = "suggestion"
	SourceUndo       = "undo"
	SourceReport     = "report"
)

// Replanner computes a change plan for a (prev, next) input pair.
type Replanner interface {
	Replan(ctx context.Context, req PlanRequest) (*trip.ChangePlannerResponse, error)
}

// PlanRequest is sent to the replanner.
type PlanRequest struct {
	TripID         string              `json:"tripId"`
	PrevInput      trip.Input          `json:"prevInput"`
	NextInput      trip.Input          `json:"nextInput"`
	CurrentResults *trip.VerdictResult `json:"currentResults,omitempty"`
	Source         string              `json:"source"`
}

// Plan is a replanner response tagged with the generation it answers.
type Plan struct {
	TripID     string
	Prev       trip.Input
	Next       trip.Input
	Source     string
	Generation uint64
	Response   *trip.ChangePlannerResponse
}

// Hooks are caller callbacks run after a plan is adopted. SetWorkingTrip and
// SetBannerPlan run synchronously; OnVersionCreate runs in its own goroutine.
type Hooks struct {
	SetWorkingTrip  func(trip.Input)
	SetBannerPlan   func(*trip.ChangePlannerResponse)
	OnVersionCreate func(versions.Version)
}

// ApplyRequest asks the orchestrator to adopt a plan. Snapshot is the trip's
// recomputed state under the plan, if the caller has it; it feeds the next-fix
// suggestion and the recorded version.
type ApplyRequest struct {
	Plan     *Plan
	Snapshot *trip.Snapshot
	Hooks    Hooks
}

// Adoption describes the outcome of ApplyChanges. Duplicate is set when the
// call only refreshed the recently-changed indicator.
type Adoption struct {
	TripID       string                  `json:"tripId"`
	ChangeID     string                  `json:"changeId"`
	Certainty    int                     `json:"certainty"`
	BlockerDelta *trip.BlockerDeltaUI    `json:"blockerDelta,omitempty"`
	Suggestion   *trip.NextFixSuggestion `json:"suggestion,omitempty"`
	Duplicate    bool                    `json:"duplicate,omitempty"`
}

// Options configures an Orchestrator. Only Replanner is required.
type Options struct {
	Config      *Config
	Replanner   Replanner
	Sink        versions.Sink
	Suggestions *nextfix.Store
	NextFix     *nextfix.Config
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Orchestrator drives per-trip plan, apply, and undo flows. All per-trip
// state lives in a State value evolved by Reduce under one mutex; replanner
// calls and version sinks run outside the lock.
type Orchestrator struct {
	cfg         Config
	replanner   Replanner
	sink        versions.Sink
	suggestions *nextfix.Store
	fixCfg      *nextfix.Config
	baselines   *tripdiff.Baselines
	clock       clock.Clock
	logger      *slog.Logger

	mu    sync.Mutex
	trips map[string]State
	wg    sync.WaitGroup
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Replanner == nil {
		return nil, fmt.Errorf("planner: replanner is required")
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = opts.Config
	}
	fixCfg := opts.NextFix
	if fixCfg == nil {
		fixCfg = nextfix.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		cfg:         *cfg,
		replanner:   opts.Replanner,
		sink:        opts.Sink,
		suggestions: opts.Suggestions,
		fixCfg:      fixCfg,
		baselines:   tripdiff.NewBaselines(),
		clock:       clock.OrReal(opts.Clock),
		logger:      logger.With("component", "planner"),
		trips:       make(map[string]State),
	}, nil
}

// PlanChanges issues a new generation for the trip and asks the replanner for
// a plan. Issuing supersedes any plan still in flight.
func (o *Orchestrator) PlanChanges(ctx context.Context, req PlanRequest) (*Plan, error) {
	return o.plan(ctx, req, func(gen uint64) Event { return PlanRequested{Generation: gen} })
}

func (o *Orchestrator) plan(ctx context.Context, req PlanRequest, start func(uint64) Event) (*Plan, error) {
	if req.TripID == "" {
		return nil, fmt.Errorf("plan: trip id must not be empty")
	}
	if req.Source == "" {
		req.Source = SourceManual
	}

	o.mu.Lock()
	st := o.current(req.TripID, o.clock.Now())
	gen := st.Issued + 1
	next := Reduce(st, start(gen), &o.cfg)
	if next.Issued != gen {
		o.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", req.TripID, ErrNoUndo)
	}
	o.trips[req.TripID] = next
	o.mu.Unlock()

	o.logger.Debug("replanning", "trip", req.TripID, "generation", gen, "source", req.Source)

	resp, err := o.replanner.Replan(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		o.mu.Lock()
		o.trips[req.TripID] = Reduce(o.trips[req.TripID], PlanFailed{Generation: gen}, &o.cfg)
		o.mu.Unlock()
		o.logger.Warn("replan failed", "trip", req.TripID, "generation", gen, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPlanning, err)
	}

	return &Plan{
		TripID:     req.TripID,
		Prev:       req.PrevInput,
		Next:       req.NextInput,
		Source:     req.Source,
		Generation: gen,
		Response:   resp,
	}, nil
}

// ApplyChanges adopts a plan. A plan whose generation has been superseded
// returns ErrStaleResponse and changes nothing. Re-confirming the adopted
// change inside the confirm window only refreshes the indicator.
func (o *Orchestrator) ApplyChanges(ctx context.Context, req ApplyRequest) (*Adoption, error) {
	p := req.Plan
	if p == nil || p.Response == nil {
		return nil, fmt.Errorf("apply: plan must not be nil")
	}
	now := o.clock.Now()

	o.mu.Lock()
	st := o.current(p.TripID, now)

	if p.Response.ChangeID != "" && p.Response.ChangeID == st.ChangeID && st.Confirm.Active(now, o.cfg.ConfirmWindow) {
		st = Reduce(st, Touched{At: now}, &o.cfg)
		o.trips[p.TripID] = st
		o.mu.Unlock()
		o.logger.Debug("duplicate confirmation", "trip", p.TripID, "change_id", p.Response.ChangeID)
		return &Adoption{TripID: p.TripID, ChangeID: st.ChangeID, Certainty: lastScore(st.History), Duplicate: true}, nil
	}

	if p.Generation != st.Issued || p.Generation <= st.Adopted {
		o.mu.Unlock()
		o.logger.Info("discarding stale plan", "trip", p.TripID, "generation", p.Generation, "latest", st.Issued)
		return nil, fmt.Errorf("%s generation %d (latest %d): %w", p.TripID, p.Generation, st.Issued, ErrStaleResponse)
	}

	summary := p.Response.Summary()
	label := LabelChange
	if p.Source == SourceUndo {
		label = LabelUndo
	}

	o.invalidateSuggestions(p.TripID, p.Response.ChangeID)

	var snapshot *trip.Snapshot
	var suggestion *trip.NextFixSuggestion
	if req.Snapshot != nil {
		snap := *req.Snapshot
		snap.TripID = p.TripID
		snap.ChangeID = p.Response.ChangeID
		snapshot = &snap
		suggestion = o.suggest(snapshot)
	}

	st = Reduce(st, PlanAdopted{
		Generation: p.Generation,
		Plan:       p.Response,
		Prev:       p.Prev,
		Next:       p.Next,
		Source:     p.Source,
		At:         now,
		Delta:      tripdiff.BlockerDelta(p.Response, now),
		Point:      newPoint(summary.Certainty.After, now, label, p.Source),
		OpenUndo:   p.Source != SourceUndo,
		Suggestion: suggestion,
	}, &o.cfg)
	o.trips[p.TripID] = st
	o.mu.Unlock()

	if req.Hooks.SetWorkingTrip != nil {
		req.Hooks.SetWorkingTrip(p.Next)
	}
	if req.Hooks.SetBannerPlan != nil {
		req.Hooks.SetBannerPlan(st.Banner)
	}

	o.emit(ctx, versions.Version{
		ID:        uuid.NewString(),
		TripID:    p.TripID,
		Source:    p.Source,
		ChangeID:  p.Response.ChangeID,
		Snapshot:  snapshot,
		Summary:   summary,
		CreatedAt: now,
	}, req.Hooks.OnVersionCreate)

	o.logger.Info("plan adopted",
		"trip", p.TripID,
		"change_id", p.Response.ChangeID,
		"generation", p.Generation,
		"source", p.Source,
		"certainty", summary.Certainty.After,
	)

	var delta *trip.BlockerDeltaUI
	if st.BlockerDelta != nil {
		d := *st.BlockerDelta
		delta = &d
	}
	return &Adoption{
		TripID:       p.TripID,
		ChangeID:     p.Response.ChangeID,
		Certainty:    summary.Certainty.After,
		BlockerDelta: delta,
		Suggestion:   suggestion,
	}, nil
}

// Undo reverses the active change by replanning with prev and next swapped.
// The resulting plan is adopted without opening a new undo window.
func (o *Orchestrator) Undo(ctx context.Context, tripID string, hooks Hooks) (*Adoption, error) {
	o.mu.Lock()
	st := o.current(tripID, o.clock.Now())
	if st.Undo == nil {
		o.mu.Unlock()
		return nil, fmt.Errorf("%s: %w", tripID, ErrNoUndo)
	}
	u := *st.Undo
	o.mu.Unlock()

	plan, err := o.plan(ctx, PlanRequest{
		TripID:    tripID,
		PrevInput: u.NextInput,
		NextInput: u.PrevInput,
		Source:    SourceUndo,
	}, func(gen uint64) Event { return UndoStarted{Generation: gen} })
	if err != nil {
		return nil, err
	}

	return o.ApplyChanges(ctx, ApplyRequest{Plan: plan, Hooks: hooks})
}

// DismissBanner closes the applied banner and its undo window. It reports
// whether there was a banner to dismiss.
func (o *Orchestrator) DismissBanner(tripID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := o.current(tripID, o.clock.Now())
	if st.Phase != PhaseApplied {
		return false
	}
	o.trips[tripID] = Reduce(st, BannerDismissed{}, &o.cfg)
	return true
}

// SeedReport records a trip's first computed snapshot: it becomes the
// comparison baseline and the "initial" certainty history point. Snapshots
// still generating are ignored.
func (o *Orchestrator) SeedReport(s trip.Snapshot) {
	if s.TripID == "" || s.Status == trip.StatusGenerating {
		return
	}
	o.baselines.Capture(s)

	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clock.Now()
	st := o.current(s.TripID, now)
	o.trips[s.TripID] = Reduce(st, ReportLoaded{
		Input: s.Input,
		Point: newPoint(s.Certainty(), now, LabelInitial, SourceReport),
	}, &o.cfg)
}

// Compare diffs s against the trip's baseline.
func (o *Orchestrator) Compare(s trip.Snapshot) (*tripdiff.Comparison, bool) {
	return o.baselines.Compare(s)
}

// State returns a copy of the trip's state with timers expired as of now.
func (o *Orchestrator) State(tripID string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current(tripID, o.clock.Now()).clone()
}

// Wait blocks until every fire-and-forget hook and sink call has returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// current returns the trip's state after expiring timers. Caller holds o.mu.
func (o *Orchestrator) current(tripID string, now time.Time) State {
	st, ok := o.trips[tripID]
	if !ok {
		st = State{TripID: tripID, Phase: PhaseIdle}
	}
	st = Reduce(st, Tick{Now: now}, &o.cfg)
	o.trips[tripID] = st
	return st
}

func (o *Orchestrator) invalidateSuggestions(tripID, changeID string) {
	if o.suggestions == nil {
		return
	}
	if err := o.suggestions.Invalidate(tripID, changeID); err != nil {
		o.logger.Warn("suggestion invalidation failed", "trip", tripID, "change_id", changeID, "error", err)
	}
}

// suggest picks the next fix for s, hiding it if the user already snoozed,
// dismissed, or applied it under this change.
func (o *Orchestrator) suggest(s *trip.Snapshot) *trip.NextFixSuggestion {
	cmp, _ := o.baselines.Compare(*s)
	sug := nextfix.Suggest(cmp, s, o.fixCfg)
	if sug == nil || o.suggestions == nil {
		return sug
	}

	key := nextfix.NewKey(s.TripID, s.ChangeID, sug.ID)
	visible, err := o.suggestions.Visible(key)
	if err != nil {
		o.logger.Warn("suggestion lookup failed", "key", key.String(), "error", err)
		return sug
	}
	if !visible {
		return nil
	}
	if err := o.suggestions.Show(key); err != nil {
		o.logger.Warn("suggestion record failed", "key", key.String(), "error", err)
	}
	return sug
}

func (o *Orchestrator) emit(ctx context.Context, v versions.Version, hook func(versions.Version)) {
	if hook != nil {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			hook(v)
		}()
	}
	if o.sink != nil {
		bg := context.WithoutCancel(ctx)
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			if err := o.sink.CreateVersion(bg, v); err != nil {
				o.logger.Warn("version sink failed", "trip", v.TripID, "change_id", v.ChangeID, "error", err)
			}
		}()
	}
}

func lastScore(h []trip.CertaintyPoint) int {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1].Score
}
