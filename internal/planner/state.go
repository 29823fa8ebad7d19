package planner

import (
	"time"

	"github.com/ppiankov/tripcheck/internal/debounce"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
)

// Phase is the orchestrator's logical state for one trip.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhasePlanning Phase = "planning"
	PhaseApplied  Phase = "applied"
)

// State is everything the orchestrator tracks for one trip.
// It is only ever changed by Reduce.
type State struct {
	TripID  string     `json:"tripId"`
	Phase   Phase      `json:"phase"`
	Working trip.Input `json:"working"`

	// Issued is the newest generation handed to the replanner; Adopted is
	// the generation of the plan currently in effect.
	Issued   uint64 `json:"issued"`
	Adopted  uint64 `json:"adopted"`
	ChangeID string `json:"changeId,omitempty"`

	Undo         *trip.UndoContext           `json:"undo,omitempty"`
	Banner       *trip.ChangePlannerResponse `json:"banner,omitempty"`
	BlockerDelta *trip.BlockerDeltaUI        `json:"blockerDelta,omitempty"`
	History      []trip.CertaintyPoint       `json:"history"`

	Suggestion    *trip.NextFixSuggestion `json:"suggestion,omitempty"`
	SuggestionKey *nextfix.Key            `json:"suggestionKey,omitempty"`

	Confirm           debounce.Window `json:"confirm"`
	RecentlyChangedAt time.Time       `json:"recentlyChangedAt,omitempty"`
}

// Event is an input to Reduce.
type Event interface {
	event()
}

// PlanRequested marks a new generation issued to the replanner.
type PlanRequested struct {
	Generation uint64
}

// UndoStarted marks a generation issued to reverse the active change.
type UndoStarted struct {
	Generation uint64
}

// PlanFailed reports that the replanner call for Generation failed.
type PlanFailed struct {
	Generation uint64
}

// PlanAdopted makes a replanner response the trip's current plan.
// OpenUndo is false for undo plans, which cannot themselves be undone.
type PlanAdopted struct {
	Generation uint64
	Plan       *trip.ChangePlannerResponse
	Prev       trip.Input
	Next       trip.Input
	Source     string
	At         time.Time
	Delta      *trip.BlockerDeltaUI
	Point      trip.CertaintyPoint
	OpenUndo   bool
	Suggestion *trip.NextFixSuggestion
}

// BannerDismissed closes the applied-change banner and its undo window.
type BannerDismissed struct{}

// Tick expires timed state as of Now.
type Tick struct {
	Now time.Time
}

// ReportLoaded seeds a trip from its first computed report.
type ReportLoaded struct {
	Input trip.Input
	Point trip.CertaintyPoint
}

// Touched refreshes the "recently changed" indicator only.
type Touched struct {
	At time.Time
}

func (PlanRequested) event()   {}
func (UndoStarted) event()     {}
func (PlanFailed) event()      {}
func (PlanAdopted) event()     {}
func (BannerDismissed) event() {}
func (Tick) event()            {}
func (ReportLoaded) event()    {}
func (Touched) event()         {}

// Reduce returns the state that follows s after ev. It never mutates s and
// has no side effects. Events that do not apply to the current state (a
// stale generation, an undo with nothing to undo) return s unchanged.
func Reduce(s State, ev Event, cfg *Config) State {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch e := ev.(type) {
	case PlanRequested:
		if e.Generation <= s.Issued {
			return s
		}
		s.Issued = e.Generation
		s.Phase = PhasePlanning

	case UndoStarted:
		if s.Undo == nil || e.Generation <= s.Issued {
			return s
		}
		s.Issued = e.Generation
		s.Phase = PhasePlanning

	case PlanFailed:
		if e.Generation != s.Issued || s.Phase != PhasePlanning {
			return s
		}
		s.Phase = settledPhase(s)

	case PlanAdopted:
		if e.Plan == nil || e.Generation != s.Issued || e.Generation <= s.Adopted {
			return s
		}
		s.Adopted = e.Generation
		s.ChangeID = e.Plan.ChangeID
		s.Working = e.Next
		s.BlockerDelta = e.Delta
		s.History = appendPoint(s.History, e.Point, cfg.HistoryLimit)
		s.Confirm, _ = s.Confirm.Accept(e.Plan.ChangeID, e.At, cfg.ConfirmWindow)
		s.RecentlyChangedAt = e.At

		if e.OpenUndo {
			s.Undo = &trip.UndoContext{
				ChangeID:  e.Plan.ChangeID,
				PrevInput: e.Prev,
				NextInput: e.Next,
				AppliedAt: e.At,
				Source:    e.Source,
			}
			s.Banner = e.Plan
			s.Phase = PhaseApplied
		} else {
			s.Undo = nil
			s.Banner = nil
			s.Phase = PhaseIdle
		}

		s.Suggestion = e.Suggestion
		s.SuggestionKey = nil
		if e.Suggestion != nil {
			k := nextfix.NewKey(s.TripID, s.ChangeID, e.Suggestion.ID)
			s.SuggestionKey = &k
		}

	case BannerDismissed:
		if s.Phase != PhaseApplied {
			return s
		}
		s.Undo = nil
		s.Banner = nil
		s.Phase = PhaseIdle

	case Tick:
		if s.Undo != nil && s.Undo.Expired(e.Now, cfg.UndoWindow) {
			s.Undo = nil
			s.Banner = nil
			if s.Phase == PhaseApplied {
				s.Phase = PhaseIdle
			}
		}
		if s.BlockerDelta != nil && !e.Now.Before(s.BlockerDelta.ComputedAt.Add(cfg.DeltaWindow)) {
			s.BlockerDelta = nil
		}

	case ReportLoaded:
		if s.Adopted == 0 {
			s.Working = e.Input
		}
		if len(s.History) == 0 {
			s.History = appendPoint(nil, e.Point, cfg.HistoryLimit)
		}

	case Touched:
		s.RecentlyChangedAt = e.At
	}

	return s
}

// settledPhase is the phase to fall back to when planning ends without a plan.
func settledPhase(s State) Phase {
	if s.Undo != nil {
		return PhaseApplied
	}
	return PhaseIdle
}

// clone returns a copy of s that shares no mutable slices with it.
func (s State) clone() State {
	s.History = append([]trip.CertaintyPoint(nil), s.History...)
	if s.Undo != nil {
		u := *s.Undo
		s.Undo = &u
	}
	if s.BlockerDelta != nil {
		d := *s.BlockerDelta
		s.BlockerDelta = &d
	}
	return s
}
