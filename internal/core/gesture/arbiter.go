package gesture

import (
	"math"

	"github.com/facilops/sitepane/internal/core/domain"
)

// Arbiter classifies what a drag means. Classification is monotonic within
// one gesture: once locked to Panning or VerticalDismiss the state never
// switches to the other before the gesture ends.
type Arbiter struct {
	cfg Config
}

// NewArbiter returns an arbiter using cfg with unusable values defaulted.
func NewArbiter(cfg Config) Arbiter {
	return Arbiter{cfg: cfg.Normalize()}
}

// Classify advances the state machine by one drag sample and returns the
// next state. It is pure and synchronous; locked and point-interaction
// states pass through untouched.
//
// Upward motion never classifies as dismiss. Dismissal is strictly a
// downward gesture, so any upward component reads as map panning even when
// the drag is nominally vertical.
func (a Arbiter) Classify(state domain.GestureState, s domain.GestureSample) domain.GestureState {
	switch state {
	case domain.GesturePanning, domain.GestureVerticalDismiss, domain.GesturePointInteraction:
		return state
	}

	dist := s.Distance()
	if state == domain.GestureIdle {
		if dist <= a.cfg.DetectThreshold {
			return domain.GestureIdle
		}
		// A fast flick can arrive already past both thresholds, so fall
		// through and evaluate the lock on the same sample.
		state = domain.GestureDetectingIntent
	}

	if dist <= a.cfg.PanThreshold {
		return state
	}

	denom := math.Max(dist, 1)
	horizontalRatio := math.Abs(s.DX) / denom
	verticalRatio := math.Abs(s.DY) / denom

	switch {
	case horizontalRatio > a.cfg.VerticalBias || s.DY < 0:
		return domain.GesturePanning
	case s.DY > 0 && verticalRatio > a.cfg.VerticalBias:
		return domain.GestureVerticalDismiss
	default:
		// Ambiguous diagonal. Stay undecided and re-evaluate on the next
		// sample.
		return state
	}
}
