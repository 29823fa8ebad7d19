package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/tripcheck/internal/trip"
	"github.com/ppiankov/tripcheck/internal/verdict"
)

var (
	verdictReport string
	verdictInput  string
	verdictBudget float64
	verdictDates  string
	verdictStart  string
	verdictFormat string
)

func init() {
	rootCmd.AddCommand(verdictCmd)
	verdictCmd.Flags().StringVar(&verdictReport, "report", "", "Feasibility report JSON")
	verdictCmd.Flags().StringVar(&verdictInput, "input", "", "Canonical verdict input YAML (instead of --report)")
	verdictCmd.Flags().Float64Var(&verdictBudget, "budget", 0, "Trip budget (0 = unknown)")
	verdictCmd.Flags().StringVar(&verdictDates, "dates", "", "Travel dates, e.g. \"Nov 3 - 10, 2026\"")
	verdictCmd.Flags().StringVar(&verdictStart, "start", "", "Explicit start date YYYY-MM-DD (wins over --dates)")
	verdictCmd.Flags().StringVarP(&verdictFormat, "format", "f", "text", "Output format (text|json)")
}

var verdictCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Compute the feasibility verdict for a trip",
	Long: "Normalizes a feasibility report (or reads a canonical input) and prints\n" +
		"the GO / POSSIBLE / DIFFICULT verdict with the overrides that shaped it.",
	RunE: runVerdict,
}

type verdictOutput struct {
	Input      trip.VerdictInput  `json:"input"`
	Result     trip.VerdictResult `json:"result"`
	Blockers   []trip.Blocker     `json:"blockers"`
	NearBudget bool               `json:"nearBudget"`
}

func runVerdict(cmd *cobra.Command, args []string) error {
	if (verdictReport == "") == (verdictInput == "") {
		return fmt.Errorf("exactly one of --report or --input is required")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	var in trip.VerdictInput
	if verdictInput != "" {
		data, err := os.ReadFile(verdictInput)
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if err := yaml.Unmarshal(data, &in); err != nil {
			return fmt.Errorf("parse input %s: %w", verdictInput, err)
		}
	} else {
		report, err := readReport(verdictReport)
		if err != nil {
			return err
		}
		start, err := parseDate(verdictStart)
		if err != nil {
			return err
		}
		in = verdict.NewBuilder(&cfg.Verdict, nil).Build(report, verdictBudget, verdictDates, start)
	}

	res := verdict.ComputeWith(in, &cfg.Verdict)
	out := verdictOutput{
		Input:      in,
		Result:     res,
		Blockers:   verdict.Blockers(res),
		NearBudget: in.UserBudget > 0 && cfg.Verdict.NearBudget(res.BudgetRatio),
	}

	if verdictFormat == "json" {
		return printJSON(out)
	}
	fmt.Print(formatVerdict(out))
	return nil
}

func formatVerdict(out verdictOutput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (certainty %d)\n", out.Result.Verdict, out.Result.Score)
	if len(out.Result.OverridesApplied) > 0 {
		ids := make([]string, len(out.Result.OverridesApplied))
		for i, o := range out.Result.OverridesApplied {
			ids[i] = string(o)
		}
		fmt.Fprintf(&b, "Overrides: %s\n", strings.Join(ids, ", "))
	}
	if out.Input.UserBudget > 0 {
		fmt.Fprintf(&b, "Budget: %.0f of %.0f (%.0f%%)", out.Input.TotalCost, out.Input.UserBudget, out.Result.BudgetRatio*100)
		if out.NearBudget {
			b.WriteString(", near budget")
		}
		b.WriteString("\n")
	}
	for _, r := range out.Result.Reasons {
		fmt.Fprintf(&b, "  - %s\n", r)
	}
	return b.String()
}
