package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/config"
	"github.com/ppiankov/tripcheck/internal/fixapply"
	"github.com/ppiankov/tripcheck/internal/nextfix"
	"github.com/ppiankov/tripcheck/internal/planner"
	"github.com/ppiankov/tripcheck/internal/replan"
	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/tripdiff"
)

var (
	planReport   string
	planPrev     string
	planNext     string
	planTripID   string
	planApplyFix bool
	planFormat   string
)

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringVar(&planReport, "report", "", "Feasibility report JSON for the current trip (required)")
	planCmd.Flags().StringVar(&planPrev, "prev", "", "Current trip input YAML (required)")
	planCmd.Flags().StringVar(&planNext, "next", "", "Edited trip input YAML (required)")
	planCmd.Flags().StringVar(&planTripID, "trip", "trip", "Trip identifier")
	planCmd.Flags().BoolVar(&planApplyFix, "apply-fix", false, "Apply the suggested next fix after the change")
	planCmd.Flags().StringVarP(&planFormat, "format", "f", "text", "Output format (text|json)")
	planCmd.MarkFlagRequired("report")
	planCmd.MarkFlagRequired("prev")
	planCmd.MarkFlagRequired("next")
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Replan a trip edit and show its impact",
	Long: "Replans the change from --prev to --next, adopts it, and prints the\n" +
		"blocker delta, the cumulative diff, and the next fix. The version is\n" +
		"recorded to every sink configured under versions:.",
	RunE: runPlan,
}

// planOptions are the resolved inputs of one plan run.
type planOptions struct {
	TripID   string
	Report   map[string]any
	Prev     trip.Input
	Next     trip.Input
	ApplyFix bool
	Clock    clock.Clock
	Logger   *slog.Logger
}

type planOutput struct {
	TripID     string               `json:"tripId"`
	Adoption   *planner.Adoption    `json:"adoption"`
	Comparison *tripdiff.Comparison `json:"comparison,omitempty"`
	Failures   []string             `json:"failures,omitempty"`
	Fix        *fixapply.Result     `json:"fix,omitempty"`
	Notices    []string             `json:"notices,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	report, err := readReport(planReport)
	if err != nil {
		return err
	}
	prev, err := readInput(planPrev)
	if err != nil {
		return err
	}
	next, err := readInput(planNext)
	if err != nil {
		return err
	}

	out, err := executePlan(cmd.Context(), cfg, planOptions{
		TripID:   planTripID,
		Report:   report,
		Prev:     prev,
		Next:     next,
		ApplyFix: planApplyFix,
	})
	if err != nil {
		return err
	}

	for _, n := range out.Notices {
		fmt.Fprintln(os.Stderr, n)
	}
	if planFormat == "json" {
		return printJSON(out)
	}
	fmt.Print(formatPlan(out))
	return nil
}

// executePlan runs one replan-and-adopt cycle, and optionally the suggested
// fix, against a fresh orchestrator.
func executePlan(ctx context.Context, cfg *config.Config, opts planOptions) (*planOutput, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	local := replan.NewLocal(opts.Report, opts.Prev, &cfg.Verdict, &cfg.NextFix, opts.Clock)

	var replanner planner.Replanner = local
	if cfg.Replanner.Mode == replan.ModeHTTP {
		client, err := replan.NewClient(&cfg.Replanner)
		if err != nil {
			return nil, err
		}
		replanner = client
	}

	sink, closeSinks, err := openSinks(cfg.Versions)
	if err != nil {
		closeSinks()
		return nil, fmt.Errorf("open version sinks: %w", err)
	}
	defer closeSinks()

	var store *nextfix.Store
	if cfg.SuggestionsDir != "" {
		store, err = nextfix.NewStore(cfg.SuggestionsDir, opts.Clock)
		if err != nil {
			return nil, fmt.Errorf("open suggestion store: %w", err)
		}
	}

	orch, err := planner.New(planner.Options{
		Config:      &cfg.Planner,
		Replanner:   replanner,
		Sink:        sink,
		Suggestions: store,
		NextFix:     &cfg.NextFix,
		Clock:       opts.Clock,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}
	defer orch.Wait()

	base := local.Snapshot(opts.TripID, opts.Prev)
	orch.SeedReport(base)

	plan, err := orch.PlanChanges(ctx, planner.PlanRequest{
		TripID:         opts.TripID,
		PrevInput:      opts.Prev,
		NextInput:      opts.Next,
		CurrentResults: &base.Result,
		Source:         planner.SourceManual,
	})
	if err != nil {
		return nil, err
	}

	snap := local.Snapshot(opts.TripID, opts.Next)
	adoption, err := orch.ApplyChanges(ctx, planner.ApplyRequest{Plan: plan, Snapshot: &snap})
	if err != nil {
		return nil, err
	}
	snap.ChangeID = adoption.ChangeID

	out := &planOutput{
		TripID:   opts.TripID,
		Adoption: adoption,
		Failures: plan.Response.Failures,
	}
	if cmp, ok := orch.Compare(snap); ok {
		out.Comparison = cmp
	}

	if !opts.ApplyFix || adoption.Suggestion == nil {
		return out, nil
	}

	notices := &noticeBoard{}
	applier, err := fixapply.New(fixapply.Options{
		Planner:     orch,
		Navigator:   notices,
		Notifier:    notices,
		Recomputer:  local,
		Suggestions: store,
		NextFix:     &cfg.NextFix,
		Verdict:     &cfg.Verdict,
		Clock:       opts.Clock,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	res, err := applier.Apply(ctx, fixapply.Request{
		TripID:     opts.TripID,
		ChangeID:   adoption.ChangeID,
		Suggestion: *adoption.Suggestion,
		Current:    opts.Next,
		Snapshot:   &snap,
	})
	out.Notices = notices.messages
	if err != nil {
		return out, err
	}
	out.Fix = res
	return out, nil
}

// noticeBoard collects navigation requests and notifications for display.
type noticeBoard struct {
	messages []string
}

func (n *noticeBoard) Navigate(tripID, section string) {
	n.messages = append(n.messages, fmt.Sprintf("open the %s editor for %s", section, tripID))
}

func (n *noticeBoard) Notify(tripID, msg string) {
	n.messages = append(n.messages, msg)
}

func formatPlan(out *planOutput) string {
	var b strings.Builder
	a := out.Adoption
	fmt.Fprintf(&b, "Change %s applied to %s (certainty %d)\n", a.ChangeID, out.TripID, a.Certainty)

	if d := a.BlockerDelta; d != nil {
		fmt.Fprintf(&b, "Blockers: %d -> %d\n", d.Before, d.After)
		if len(d.Resolved) > 0 {
			fmt.Fprintf(&b, "  resolved: %s\n", strings.Join(d.Resolved, ", "))
		}
		if len(d.Added) > 0 {
			fmt.Fprintf(&b, "  added:    %s\n", strings.Join(d.Added, ", "))
		}
	}
	for _, f := range out.Failures {
		fmt.Fprintf(&b, "Warning: %s\n", f)
	}

	if out.Comparison != nil {
		b.WriteString("\n")
		b.WriteString(tripdiff.FormatText(out.Comparison))
	}

	if s := a.Suggestion; s != nil {
		fmt.Fprintf(&b, "\nNext fix: %s (+%d certainty)\n", s.Title, s.EstimatedImpact)
	}
	if f := out.Fix; f != nil {
		switch f.Outcome {
		case fixapply.OutcomeApplied:
			fmt.Fprintf(&b, "Fix applied as change %s (certainty %d)\n", f.ChangeID, f.Certainty)
		case fixapply.OutcomeNavigated:
			fmt.Fprintf(&b, "Fix needs a manual edit: %s\n", f.Section)
		default:
			fmt.Fprintf(&b, "Fix not applied: %s\n", f.Message)
		}
	}
	return b.String()
}
