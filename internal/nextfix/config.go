package nextfix

import "github.com/ppiankov/tripcheck/internal/verdict"

// Fix identifiers. These double as suggestion ids.
const (
	FixAdjustDates   = "adjust_dates"
	FixReviewSafety  = "review_safety"
	FixVisaDocuments = "visa_documents"
	FixAdjustBudget  = "adjust_budget"
	FixTrimItinerary = "trim_itinerary"
)

// Target fields a fix points at.
const (
	TargetStartDate   = "start_date"
	TargetDestination = "destination"
	TargetVisa        = "visa"
	TargetBudget      = "budget"
	TargetItinerary   = "itinerary"
)

// Impacts is the estimated certainty gain, in points, of each fix type.
type Impacts struct {
	VisaTiming      int `yaml:"visa_timing" json:"visa_timing"`
	ShortNoticeVisa int `yaml:"short_notice_visa" json:"short_notice_visa"`
	Safety          int `yaml:"safety" json:"safety"`
	VisaHighRisk    int `yaml:"visa_high_risk" json:"visa_high_risk"`
	OverBudget50    int `yaml:"over_budget_50" json:"over_budget_50"`
	OverBudget20    int `yaml:"over_budget_20" json:"over_budget_20"`
	TrimItinerary   int `yaml:"trim_itinerary" json:"trim_itinerary"`
}

// Config holds the suggester's tunables.
type Config struct {
	Impacts             Impacts `yaml:"impacts" json:"impacts"`
	NewBlockerBonus     int     `yaml:"new_blocker_bonus" json:"new_blocker_bonus"`
	MaxActivitiesPerDay int     `yaml:"max_activities_per_day" json:"max_activities_per_day"`
	NearBudgetTolerance float64 `yaml:"near_budget_tolerance" json:"near_budget_tolerance"`
	BudgetHeadroom      float64 `yaml:"budget_headroom" json:"budget_headroom"`
	DateBufferDays      int     `yaml:"date_buffer_days" json:"date_buffer_days"`
}

// DefaultConfig returns the built-in suggester configuration.
func DefaultConfig() *Config {
	return &Config{
		Impacts: Impacts{
			VisaTiming:      30,
			ShortNoticeVisa: 10,
			Safety:          25,
			VisaHighRisk:    10,
			OverBudget50:    25,
			OverBudget20:    10,
			TrimItinerary:   5,
		},
		NewBlockerBonus:     5,
		MaxActivitiesPerDay: 5,
		NearBudgetTolerance: 0,
		BudgetHeadroom:      0.05,
		DateBufferDays:      3,
	}
}

// BlockerImpact returns the certainty weight carried by a verdict blocker.
// Unknown ids weigh nothing.
func (c *Config) BlockerImpact(id string) int {
	switch id {
	case verdict.BlockerVisaTiming:
		return c.Impacts.VisaTiming
	case verdict.BlockerShortNoticeVisa:
		return c.Impacts.ShortNoticeVisa
	case verdict.BlockerSafetyLevel:
		return c.Impacts.Safety
	case verdict.BlockerVisaHighRisk:
		return c.Impacts.VisaHighRisk
	case verdict.BlockerOverBudget50:
		return c.Impacts.OverBudget50
	case verdict.BlockerOverBudget20:
		return c.Impacts.OverBudget20
	default:
		return 0
	}
}
