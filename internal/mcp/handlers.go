package mcp

import (
	"context"
	"fmt"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

// --- Input/Output types ---

// VerdictInput defines parameters for the tripcheck_verdict tool.
type VerdictInput struct {
	Report    map[string]any     `json:"report,omitempty" jsonschema:"raw feasibility report"`
	Budget    float64            `json:"budget,omitempty" jsonschema:"user budget, 0 when unknown"`
	Dates     string             `json:"dates,omitempty" jsonschema:"free-form travel dates, e.g. Nov 3 - 10, 2026"`
	StartDate string             `json:"start_date,omitempty" jsonschema:"explicit start date YYYY-MM-DD, wins over dates"`
	Input     *trip.VerdictInput `json:"input,omitempty" jsonschema:"canonical verdict input, used instead of report"`
}

// VerdictOutput contains the verdict and the input it was computed from.
type VerdictOutput struct {
	Input      trip.VerdictInput  `json:"input"`
	Result     trip.VerdictResult `json:"result"`
	Blockers   []trip.Blocker     `json:"blockers"`
	NearBudget bool               `json:"near_budget"`
}

// BlockerDeltaInput defines parameters for the tripcheck_blocker_delta tool.
type BlockerDeltaInput struct {
	Response *trip.ChangePlannerResponse `json:"response,omitempty" jsonschema:"change planner response, omit when no change was planned"`
}

// BlockerDeltaOutput is the display-ready blocker delta.
type BlockerDeltaOutput struct {
	Present    bool     `json:"present"`
	Before     int      `json:"before"`
	After      int      `json:"after"`
	Resolved   []string `json:"resolved"`
	Added      []string `json:"added"`
	ComputedAt string   `json:"computed_at,omitempty"`
}

// DiffInput defines parameters for the tripcheck_diff tool.
type DiffInput struct {
	Original trip.Snapshot `json:"original" jsonschema:"snapshot of the trip as first planned"`
	Updated  trip.Snapshot `json:"updated" jsonschema:"current snapshot of the trip"`
}

// SuggestInput defines parameters for the tripcheck_suggest tool.
type SuggestInput struct {
	Snapshot trip.Snapshot  `json:"snapshot" jsonschema:"current trip snapshot"`
	Original *trip.Snapshot `json:"original,omitempty" jsonschema:"original snapshot for new-blocker weighting"`
}

// SuggestOutput contains the suggestion, if any.
type SuggestOutput struct {
	Found      bool                    `json:"found"`
	Suggestion *trip.NextFixSuggestion `json:"suggestion,omitempty"`
}

// --- Handlers ---

func (s *Server) handleVerdict(ctx context.Context, req *mcpsdk.CallToolRequest, input VerdictInput) (*mcpsdk.CallToolResult, VerdictOutput, error) {
	cfg := s.config()

	var in trip.VerdictInput
	if input.Input != nil {
		in = *input.Input
	} else {
		var explicit *time.Time
		if input.StartDate != "" {
			t, err := time.Parse("2006-01-02", input.StartDate)
			if err != nil {
				return nil, VerdictOutput{}, fmt.Errorf("invalid start_date %q: %w", input.StartDate, err)
			}
			explicit = &t
		}
		in = verdict.NewBuilder(&cfg.Verdict, s.clock).Build(input.Report, input.Budget, input.Dates, explicit)
	}

	res := verdict.ComputeWith(in, &cfg.Verdict)
	s.logger.Debug("verdict computed", "verdict", res.Verdict, "score", res.Score, "overrides", len(res.OverridesApplied))

	return nil, VerdictOutput{
		Input:      in,
		Result:     res,
		Blockers:   verdict.Blockers(res),
		NearBudget: in.UserBudget > 0 && cfg.Verdict.NearBudget(res.BudgetRatio),
	}, nil
}

func (s *Server) handleBlockerDelta(ctx context.Context, req *mcpsdk.CallToolRequest, input BlockerDeltaInput) (*mcpsdk.CallToolResult, BlockerDeltaOutput, error) {
	delta := tripdiff.BlockerDelta(input.Response, s.clock.Now())
	if delta == nil {
		return nil, BlockerDeltaOutput{Resolved: []string{}, Added: []string{}}, nil
	}
	return nil, BlockerDeltaOutput{
		Present:    true,
		Before:     delta.Before,
		After:      delta.After,
		Resolved:   delta.Resolved,
		Added:      delta.Added,
		ComputedAt: delta.ComputedAt.UTC().Format(time.RFC3339),
	}, nil
}

func (s *Server) handleDiff(ctx context.Context, req *mcpsdk.CallToolRequest, input DiffInput) (*mcpsdk.CallToolResult, tripdiff.Comparison, error) {
	return nil, *tripdiff.Compare(&input.Original, &input.Updated), nil
}

func (s *Server) handleSuggest(ctx context.Context, req *mcpsdk.CallToolRequest, input SuggestInput) (*mcpsdk.CallToolResult, SuggestOutput, error) {
	cfg := s.config()

	var cmp *tripdiff.Comparison
	if input.Original != nil {
		cmp = tripdiff.Compare(input.Original, &input.Snapshot)
	}

	fix := nextfix.Suggest(cmp, &input.Snapshot, &cfg.NextFix)
	if fix == nil {
		return nil, SuggestOutput{}, nil
	}
	return nil, SuggestOutput{Found: true, Suggestion: fix}, nil
}
