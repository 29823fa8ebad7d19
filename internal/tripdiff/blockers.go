package tripdiff

import (
	"time"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// BlockerDelta projects a plan's blockers section for display. A nil plan
// yields nil so callers can tell "no change recorded" from "zero blockers".
// Missing or malformed fields default to zero and empty lists.
func BlockerDelta(resp *trip.ChangePlannerResponse, now time.Time) *trip.BlockerDeltaUI {
	if resp == nil {
		return nil
	}
	s := resp.Summary()
	return &trip.BlockerDeltaUI{
		Before:     s.Blockers.Before,
		After:      s.Blockers.After,
		Resolved:   s.Blockers.Resolved,
		Added:      s.Blockers.New,
		ComputedAt: now,
	}
}
