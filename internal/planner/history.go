package planner

import (
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/tripcheck/internal/trip"
)

// Labels for certainty history points.
const (
	LabelInitial = "initial"
	LabelChange  = "change"
	LabelUndo    = "undo"
)

func newPoint(score int, at time.Time, label, source string) trip.CertaintyPoint {
	return trip.CertaintyPoint{
		ID:     uuid.NewString(),
		Score:  score,
		At:     at,
		Label:  label,
		Source: source,
	}
}

// appendPoint adds p and keeps only the newest limit points.
// The result never aliases h.
func appendPoint(h []trip.CertaintyPoint, p trip.CertaintyPoint, limit int) []trip.CertaintyPoint {
	out := make([]trip.CertaintyPoint, 0, len(h)+1)
	out = append(out, h...)
	out = append(out, p)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
