package fixapply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/planner"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

// Outcome is what applying a suggestion did.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeNavigated Outcome = "navigated"
	OutcomeNoop      Outcome = "no-op"
)

// ErrInFlight is returned when Apply is called while another apply is pending.
var ErrInFlight = errors.New("fix apply already in flight")

// Planner is the slice of the orchestrator the applier drives.
type Planner interface {
	PlanChanges(ctx context.Context, req planner.PlanRequest) (*planner.Plan, error)
	ApplyChanges(ctx context.Context, req planner.ApplyRequest) (*planner.Adoption, error)
}

// Navigator moves the user to an editor section.
type Navigator interface {
	Navigate(tripID, section string)
}

// Notifier shows a non-blocking message.
type Notifier interface {
	Notify(tripID, message string)
}

// Recomputer produces the trip's computed state for an input, so the
// adopted plan carries a fresh snapshot.
type Recomputer interface {
	Recompute(ctx context.Context, tripID string, in trip.Input) (*trip.Snapshot, error)
}

// Request asks for one suggestion to be applied to a trip. Snapshot is the
// trip's current computed state; date and budget patches need its signals and
// degrade to no-op without it.
type Request struct {
	TripID     string
	ChangeID   string
	Suggestion trip.NextFixSuggestion
	Current    trip.Input
	Snapshot   *trip.Snapshot
	Hooks      planner.Hooks
}

// Result describes what Apply did.
type Result struct {
	Outcome   Outcome     `json:"outcome"`
	ChangeID  string      `json:"changeId,omitempty"`
	Certainty int         `json:"certainty,omitempty"`
	Section   string      `json:"section,omitempty"`
	Patched   *trip.Input `json:"patched,omitempty"`
	Message   string      `json:"message,omitempty"`
}

// Options configures an Applier. Planner is required.
type Options struct {
	Planner     Planner
	Navigator   Navigator
	Notifier    Notifier
	Recomputer  Recomputer
	Suggestions *nextfix.Store
	NextFix     *nextfix.Config
	Verdict     *verdict.Config
	Clock       clock.Clock
	Logger      *slog.Logger
}

// Applier dispatches suggestions. At most one Apply runs at a time; calls
// made while one is pending return ErrInFlight without side effects.
type Applier struct {
	planner     Planner
	nav         Navigator
	notify      Notifier
	recompute   Recomputer
	suggestions *nextfix.Store
	fixCfg      *nextfix.Config
	verdictCfg  *verdict.Config
	clock       clock.Clock
	logger      *slog.Logger

	inFlight atomic.Bool
}

// New creates an Applier.
func New(opts Options) (*Applier, error) {
	if opts.Planner == nil {
		return nil, fmt.Errorf("fixapply: planner is required")
	}
	a := &Applier{
		planner:     opts.Planner,
		nav:         opts.Navigator,
		notify:      opts.Notifier,
		recompute:   opts.Recomputer,
		suggestions: opts.Suggestions,
		fixCfg:      opts.NextFix,
		verdictCfg:  opts.Verdict,
		clock:       clock.OrReal(opts.Clock),
		logger:      opts.Logger,
	}
	if a.fixCfg == nil {
		a.fixCfg = nextfix.DefaultConfig()
	}
	if a.verdictCfg == nil {
		a.verdictCfg = verdict.DefaultConfig()
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "fixapply")
	return a, nil
}

// InFlight reports whether an apply is pending.
func (a *Applier) InFlight() bool {
	return a.inFlight.Load()
}

// Apply dispatches the suggestion:
//   - start_date and budget targets are patched, replanned, and adopted
//   - visa, destination, and itinerary targets navigate to their editor
//   - anything else is a no-op reported through the notifier
//
// A replanning failure is reported through the notifier and returned; the
// working trip is left as it was.
func (a *Applier) Apply(ctx context.Context, req Request) (*Result, error) {
	if !a.inFlight.CompareAndSwap(false, true) {
		return nil, ErrInFlight
	}
	defer a.inFlight.Store(false)

	key := nextfix.NewKey(req.TripID, req.ChangeID, req.Suggestion.ID)
	log := a.logger.With("trip", req.TripID, "suggestion", req.Suggestion.ID)

	switch req.Suggestion.TargetField {
	case nextfix.TargetStartDate, nextfix.TargetBudget:
		patched, ok := a.patch(req)
		if !ok {
			return a.noop(req, "Nothing to change automatically for this fix"), nil
		}
		return a.replan(ctx, req, key, patched, log)

	case nextfix.TargetVisa, nextfix.TargetDestination, nextfix.TargetItinerary:
		section := req.Suggestion.TargetField
		if a.nav != nil {
			a.nav.Navigate(req.TripID, section)
		}
		a.markApplied(key, log)
		log.Debug("navigated", "section", section)
		return &Result{Outcome: OutcomeNavigated, Section: section}, nil

	default:
		return a.noop(req, fmt.Sprintf("Unsupported fix target %q", req.Suggestion.TargetField)), nil
	}
}

func (a *Applier) replan(ctx context.Context, req Request, key nextfix.Key, patched trip.Input, log *slog.Logger) (*Result, error) {
	planReq := planner.PlanRequest{
		TripID:    req.TripID,
		PrevInput: req.Current,
		NextInput: patched,
		Source:    planner.SourceSuggestion,
	}
	if req.Snapshot != nil {
		res := req.Snapshot.Result
		planReq.CurrentResults = &res
	}

	plan, err := a.planner.PlanChanges(ctx, planReq)
	if err != nil {
		a.notifyf(req.TripID, "Couldn't apply %q: %v", req.Suggestion.Title, err)
		log.Warn("replan failed", "error", err)
		return nil, fmt.Errorf("apply %s: %w", req.Suggestion.ID, err)
	}

	var snapshot *trip.Snapshot
	if a.recompute != nil {
		snapshot, err = a.recompute.Recompute(ctx, req.TripID, patched)
		if err != nil {
			log.Warn("recompute failed", "error", err)
			snapshot = nil
		}
	}

	adoption, err := a.planner.ApplyChanges(ctx, planner.ApplyRequest{
		Plan:     plan,
		Snapshot: snapshot,
		Hooks:    req.Hooks,
	})
	if err != nil {
		a.notifyf(req.TripID, "Couldn't apply %q: %v", req.Suggestion.Title, err)
		log.Warn("adopt failed", "error", err)
		return nil, fmt.Errorf("apply %s: %w", req.Suggestion.ID, err)
	}
	a.markApplied(key, log)

	log.Info("fix applied", "change_id", adoption.ChangeID, "certainty", adoption.Certainty)
	return &Result{
		Outcome:   OutcomeApplied,
		ChangeID:  adoption.ChangeID,
		Certainty: adoption.Certainty,
		Patched:   &patched,
	}, nil
}

// patch derives the input change for date and budget fixes.
func (a *Applier) patch(req Request) (trip.Input, bool) {
	if req.Snapshot == nil {
		return trip.Input{}, false
	}
	next := req.Current
	next.Interests = append([]string(nil), req.Current.Interests...)
	signals := req.Snapshot.Signals

	switch req.Suggestion.TargetField {
	case nextfix.TargetStartDate:
		lead := signals.VisaProcessingDays.Maximum
		if signals.VisaProcessingDays.Minimum > lead {
			lead = signals.VisaProcessingDays.Minimum
		}
		if lead < a.verdictCfg.ShortNoticeDays {
			lead = a.verdictCfg.ShortNoticeDays
		}
		now := a.clock.Now().UTC()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		start := today.AddDate(0, 0, lead+a.fixCfg.DateBufferDays)

		if current, ok := verdict.ParseStartDate(startText(req.Current)); ok && !start.After(current) {
			return trip.Input{}, false
		}
		next.StartDate = start.Format("2006-01-02")
		return next, true

	case nextfix.TargetBudget:
		if signals.TotalCost <= 0 {
			return trip.Input{}, false
		}
		budget := math.Ceil(signals.TotalCost * (1 + a.fixCfg.BudgetHeadroom))
		if budget <= req.Current.Budget {
			return trip.Input{}, false
		}
		next.Budget = budget
		return next, true
	}

	return trip.Input{}, false
}

func startText(in trip.Input) string {
	if in.StartDate != "" {
		return in.StartDate
	}
	return in.Dates
}

func (a *Applier) noop(req Request, msg string) *Result {
	a.notifyf(req.TripID, "%s", msg)
	a.logger.Debug("no-op fix", "trip", req.TripID, "suggestion", req.Suggestion.ID, "reason", msg)
	return &Result{Outcome: OutcomeNoop, Message: msg}
}

func (a *Applier) markApplied(key nextfix.Key, log *slog.Logger) {
	if a.suggestions == nil {
		return
	}
	err := a.suggestions.MarkApplied(key)
	switch {
	case err == nil:
	case errors.Is(err, nextfix.ErrStaleKey):
		// Adoption already moved the trip to a new change id.
		log.Debug("suggestion key retired", "key", key.String())
	default:
		log.Warn("mark applied failed", "key", key.String(), "error", err)
	}
}

func (a *Applier) notifyf(tripID, format string, args ...any) {
	if a.notify == nil {
		return
	}
	a.notify.Notify(tripID, fmt.Sprintf(format, args...))
}
