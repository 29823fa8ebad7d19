package replan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/planner"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

// Local replans in-process against one feasibility report. Certainty for an
// input starts at the report's score and moves by the weight of every blocker
// it resolves or introduces relative to the base input the report was
// generated for.
type Local struct {
	report  map[string]any
	base    trip.Input
	builder *verdict.Builder
	cfg     *verdict.Config
	fixCfg  *nextfix.Config
}

// NewLocal creates a Local replanner. Nil configs and clock use defaults.
func NewLocal(report map[string]any, base trip.Input, cfg *verdict.Config, fixCfg *nextfix.Config, clk clock.Clock) *Local {
	if cfg == nil {
		cfg = verdict.DefaultConfig()
	}
	if fixCfg == nil {
		fixCfg = nextfix.DefaultConfig()
	}
	return &Local{
		report:  report,
		base:    base,
		builder: verdict.NewBuilder(cfg, clk),
		cfg:     cfg,
		fixCfg:  fixCfg,
	}
}

// Snapshot computes the trip's state for in.
func (l *Local) Snapshot(tripID string, in trip.Input) trip.Snapshot {
	baseBlockers := verdict.Blockers(verdict.ComputeWith(l.signals(l.base), l.cfg))

	sig := l.signals(in)
	blockers := verdict.Blockers(verdict.ComputeWith(sig, l.cfg))
	sig.CertaintyScore = clampScore(sig.CertaintyScore + l.weight(baseBlockers) - l.weight(blockers))
	res := verdict.ComputeWith(sig, l.cfg)

	return trip.Snapshot{
		TripID:    tripID,
		Status:    trip.StatusReady,
		Input:     in,
		Signals:   sig,
		Result:    res,
		Blockers:  blockers,
		Itinerary: itinerary(l.report),
	}
}

// Recompute implements fixapply.Recomputer.
func (l *Local) Recompute(ctx context.Context, tripID string, in trip.Input) (*trip.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := l.Snapshot(tripID, in)
	return &s, nil
}

// Replan implements planner.Replanner.
func (l *Local) Replan(ctx context.Context, req planner.PlanRequest) (*trip.ChangePlannerResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	before := l.Snapshot(req.TripID, req.PrevInput)
	after := l.Snapshot(req.TripID, req.NextInput)
	cmp := tripdiff.Compare(&before, &after)

	detected := make([]trip.DetectedChange, 0, len(cmp.Changes))
	for _, ch := range cmp.Changes {
		detected = append(detected, trip.DetectedChange{Field: ch.Field, From: ch.Old, To: ch.New})
	}

	resp := &trip.ChangePlannerResponse{
		ChangeID:        uuid.NewString(),
		DetectedChanges: detected,
		DeltaSummary: map[string]any{
			"certainty": map[string]any{
				"before": float64(cmp.CertaintyBefore),
				"after":  float64(cmp.CertaintyAfter),
			},
			"blockers": map[string]any{
				"before":   float64(cmp.BlockersBefore),
				"after":    float64(cmp.BlockersAfter),
				"resolved": blockerIDs(cmp.Resolved),
				"new":      blockerIDs(cmp.Added),
			},
			"budget": map[string]any{
				"before": req.PrevInput.Budget,
				"after":  req.NextInput.Budget,
				"delta":  req.NextInput.Budget - req.PrevInput.Budget,
			},
		},
		UIInstructions: map[string]any{
			"verdict": string(after.Result.Verdict),
			"reasons": after.Result.Reasons,
		},
	}

	if dest := strings.TrimSpace(req.NextInput.Destination); dest != "" && l.base.Destination != "" &&
		!strings.EqualFold(dest, l.base.Destination) {
		resp.Failures = append(resp.Failures,
			fmt.Sprintf("report covers %s, not %s: visa and safety signals were not refreshed", l.base.Destination, dest))
	}

	return resp, nil
}

func (l *Local) signals(in trip.Input) trip.VerdictInput {
	var explicit *time.Time
	if in.StartDate != "" {
		if t, err := time.Parse("2006-01-02", in.StartDate); err == nil {
			explicit = &t
		}
	}
	return l.builder.Build(l.report, in.Budget, in.Dates, explicit)
}

func (l *Local) weight(blockers []trip.Blocker) int {
	total := 0
	for _, b := range blockers {
		total += l.fixCfg.BlockerImpact(b.ID)
	}
	return total
}

func blockerIDs(bs []trip.Blocker) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.ID)
	}
	return out
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// itinerary reads the optional "itinerary" list of a report. Malformed days
// are skipped.
func itinerary(report map[string]any) []trip.ItineraryDay {
	raw, ok := report["itinerary"].([]any)
	if !ok {
		return nil
	}
	var days []trip.ItineraryDay
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		day := trip.ItineraryDay{
			Day:        trip.SafeInt(m["day"]),
			Title:      trip.String(m, "title"),
			Activities: trip.UniqueIDs(m["activities"]),
		}
		if day.Day == 0 {
			day.Day = i + 1
		}
		days = append(days, day)
	}
	return days
}
