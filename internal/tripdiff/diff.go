package tripdiff

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// Change represents a scalar input field change.
type Change struct {
	Field   string `json:"field"`
	Old     string `json:"old"`
	New     string `json:"new"`
	Comment string `json:"comment,omitempty"`
}

// Comparison holds the cumulative difference between a trip's original
// snapshot and its current one.
type Comparison struct {
	TripID   string `json:"tripId"`
	ChangeID string `json:"changeId,omitempty"`

	CertaintyBefore int `json:"certaintyBefore"`
	CertaintyAfter  int `json:"certaintyAfter"`
	CertaintyDelta  int `json:"certaintyDelta"`

	VerdictBefore trip.Verdict `json:"verdictBefore"`
	VerdictAfter  trip.Verdict `json:"verdictAfter"`

	BudgetBefore    float64 `json:"budgetBefore"`
	BudgetAfter     float64 `json:"budgetAfter"`
	TotalCostBefore float64 `json:"totalCostBefore"`
	TotalCostAfter  float64 `json:"totalCostAfter"`

	BlockersBefore int            `json:"blockersBefore"`
	BlockersAfter  int            `json:"blockersAfter"`
	Resolved       []trip.Blocker `json:"resolved"`
	Added          []trip.Blocker `json:"added"`

	ItineraryChanged bool     `json:"itineraryChanged"`
	Changes          []Change `json:"changes"`
	HasChanges       bool     `json:"hasChanges"`
}

// Compare diffs an original snapshot against an updated one. Blockers are
// matched by id, not by position.
func Compare(original, updated *trip.Snapshot) *Comparison {
	c := &Comparison{
		TripID:          updated.TripID,
		ChangeID:        updated.ChangeID,
		CertaintyBefore: original.Certainty(),
		CertaintyAfter:  updated.Certainty(),
		VerdictBefore:   original.Result.Verdict,
		VerdictAfter:    updated.Result.Verdict,
		BudgetBefore:    original.Input.Budget,
		BudgetAfter:     updated.Input.Budget,
		TotalCostBefore: original.Signals.TotalCost,
		TotalCostAfter:  updated.Signals.TotalCost,
		BlockersBefore:  len(original.Blockers),
		BlockersAfter:   len(updated.Blockers),
		Resolved:        blockerDifference(original.Blockers, updated.Blockers),
		Added:           blockerDifference(updated.Blockers, original.Blockers),
		Changes:         []Change{},
	}
	c.CertaintyDelta = c.CertaintyAfter - c.CertaintyBefore
	c.ItineraryChanged = itineraryChanged(original.Itinerary, updated.Itinerary)

	diffInputs(c, original.Input, updated.Input)

	c.HasChanges = len(c.Changes) > 0 || len(c.Resolved) > 0 || len(c.Added) > 0 ||
		c.CertaintyDelta != 0 || c.VerdictBefore != c.VerdictAfter ||
		c.TotalCostBefore != c.TotalCostAfter || c.ItineraryChanged
	return c
}

// AddedIn returns true if a blocker of the category was newly introduced.
func (c *Comparison) AddedIn(cat trip.BlockerCategory) bool {
	for _, b := range c.Added {
		if b.Category == cat {
			return true
		}
	}
	return false
}

// blockerDifference returns blockers in a whose id is absent from b, in a's
// order, each id at most once.
func blockerDifference(a, b []trip.Blocker) []trip.Blocker {
	inB := make(map[string]bool, len(b))
	for _, blk := range b {
		inB[blk.ID] = true
	}
	out := []trip.Blocker{}
	seen := make(map[string]bool, len(a))
	for _, blk := range a {
		if inB[blk.ID] || seen[blk.ID] {
			continue
		}
		seen[blk.ID] = true
		out = append(out, blk)
	}
	return out
}

func itineraryChanged(a, b []trip.ItineraryDay) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if a[i].Day != b[i].Day || a[i].Title != b[i].Title {
			return true
		}
		if !slices.Equal(a[i].Activities, b[i].Activities) {
			return true
		}
	}
	return false
}

func diffInputs(c *Comparison, old, new trip.Input) {
	diffString(c, "destination", old.Destination, new.Destination)
	diffString(c, "origin", old.Origin, new.Origin)
	diffString(c, "dates", old.Dates, new.Dates)
	diffString(c, "start_date", old.StartDate, new.StartDate)

	if old.Budget != new.Budget {
		c.Changes = append(c.Changes, Change{
			Field:   "budget",
			Old:     fmt.Sprintf("%.0f", old.Budget),
			New:     fmt.Sprintf("%.0f", new.Budget),
			Comment: direction(old.Budget, new.Budget),
		})
	}
	if old.Travelers != new.Travelers {
		c.Changes = append(c.Changes, Change{
			Field:   "travelers",
			Old:     fmt.Sprintf("%d", old.Travelers),
			New:     fmt.Sprintf("%d", new.Travelers),
			Comment: direction(float64(old.Travelers), float64(new.Travelers)),
		})
	}
	if !slices.Equal(old.Interests, new.Interests) {
		c.Changes = append(c.Changes, Change{
			Field: "interests",
			Old:   strings.Join(old.Interests, ", "),
			New:   strings.Join(new.Interests, ", "),
		})
	}
}

func diffString(c *Comparison, field, old, new string) {
	if old != new {
		c.Changes = append(c.Changes, Change{Field: field, Old: old, New: new})
	}
}

func direction(old, new float64) string {
	if new > old {
		return "increased"
	}
	return "decreased"
}
