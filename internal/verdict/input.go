package verdict

import (
	"math"
	"strings"
	"time"

	"github.com/ppiankov/tripcheck/internal/clock"
	"github.com/ppiankov/tripcheck/internal/trip"
)

// Builder normalizes raw feasibility reports into verdict inputs.
type Builder struct {
	cfg   *Config
	clock clock.Clock
}

// NewBuilder creates a Builder. Nil cfg or clk fall back to defaults.
func NewBuilder(cfg *Config, clk clock.Clock) *Builder {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Builder{cfg: cfg, clock: clock.OrReal(clk)}
}

// BuildInput normalizes a report using default thresholds and the system clock.
func BuildInput(report map[string]any, budget float64, dates string, explicit *time.Time) trip.VerdictInput {
	return NewBuilder(nil, nil).Build(report, budget, dates, explicit)
}

// Build maps a raw report, a budget, and travel dates into a VerdictInput.
// Every missing or malformed field resolves to a documented default:
//   - no visa details: visa_free, zero processing days, low risk
//   - unknown safety: level 1
//   - no cost: 0
//   - no usable date: Config.UnknownDaysUntilTravel
func (b *Builder) Build(report map[string]any, budget float64, dates string, explicit *time.Time) trip.VerdictInput {
	in := trip.VerdictInput{
		CertaintyScore: trip.SafeInt(report["score"]),
		VisaType:       trip.VisaFree,
		VisaRisk:       trip.RiskLow,
		SafetyLevel:    1,
		TotalCost:      totalCost(report),
		UserBudget:     trip.SafeNumber(budget),
	}

	visa := trip.Object(report, "visaDetails")
	if visa != nil {
		in.VisaType = parseVisaType(trip.String(visa, "type"))
		in.VisaProcessingDays = parseProcessingDays(visa["processingDays"])
		in.VisaRisk = parseVisaRisk(trip.String(visa, "risk"))
	}

	in.SafetyLevel = safetyLevel(trip.Object(trip.Object(report, "breakdown"), "safety"))
	in.DaysUntilTravel = b.daysUntilTravel(visa, dates, explicit)

	return in
}

func (b *Builder) daysUntilTravel(visa map[string]any, dates string, explicit *time.Time) int {
	now := b.clock.Now()
	if explicit != nil && !explicit.IsZero() {
		return DaysUntil(*explicit, now)
	}
	if start, ok := ParseStartDate(dates); ok {
		return DaysUntil(start, now)
	}
	timing := trip.Object(visa, "timing")
	if v, ok := timing["daysUntilTrip"]; ok && trip.IsNumber(v) {
		return trip.SafeInt(v)
	}
	return b.cfg.UnknownDaysUntilTravel
}

// parseVisaType normalizes upstream spellings. Unknown non-empty values fail
// closed to visa_required; empty means no visa needed.
func parseVisaType(s string) trip.VisaType {
	key := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(s))
	switch key {
	case "", "visa_free", "visafree", "none", "not_required", "no_visa":
		return trip.VisaFree
	case "visa_on_arrival", "voa", "on_arrival":
		return trip.VisaOnArrival
	case "e_visa", "evisa", "eta", "electronic":
		return trip.EVisa
	case "visa_required", "required", "embassy", "consulate":
		return trip.VisaRequired
	case "not_allowed", "banned", "denied", "entry_banned":
		return trip.VisaNotAllowed
	default:
		return trip.VisaRequired
	}
}

func parseVisaRisk(s string) trip.VisaRisk {
	switch trip.VisaRisk(strings.ToLower(s)) {
	case trip.RiskMedium:
		return trip.RiskMedium
	case trip.RiskHigh:
		return trip.RiskHigh
	default:
		return trip.RiskLow
	}
}

// parseProcessingDays accepts {minimum, maximum} or a bare number.
func parseProcessingDays(v any) trip.ProcessingDays {
	var pd trip.ProcessingDays
	switch p := v.(type) {
	case map[string]any:
		pd.Minimum = trip.SafeInt(p["minimum"])
		pd.Maximum = trip.SafeInt(p["maximum"])
	default:
		pd.Minimum = trip.SafeInt(p)
		pd.Maximum = pd.Minimum
	}
	if pd.Minimum < 0 {
		pd.Minimum = 0
	}
	if pd.Maximum < pd.Minimum {
		pd.Maximum = pd.Minimum
	}
	return pd
}

var safetyStatusLevels = map[string]int{
	"safe":          1,
	"good":          1,
	"low":           1,
	"ok":            1,
	"caution":       2,
	"moderate":      2,
	"medium":        2,
	"warning":       3,
	"high":          3,
	"danger":        3,
	"unsafe":        3,
	"critical":      4,
	"do_not_travel": 4,
}

func safetyLevel(safety map[string]any) int {
	if safety == nil {
		return 1
	}
	if v, ok := safety["level"]; ok && trip.IsNumber(v) {
		if level := trip.SafeInt(v); level >= 1 {
			return level
		}
	}
	status := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(trip.String(safety, "status")))
	if level, ok := safetyStatusLevels[status]; ok {
		return level
	}
	return 1
}

// totalCost takes the first numeric cost field the report carries.
func totalCost(report map[string]any) float64 {
	budget := trip.Object(trip.Object(report, "breakdown"), "budget")
	candidates := []any{
		report["totalCost"],
		report["estimatedCost"],
		budget["totalCost"],
		budget["estimatedTotal"],
	}
	for _, c := range candidates {
		if trip.IsNumber(c) {
			return math.Max(0, trip.SafeNumber(c))
		}
	}
	return 0
}
