package gesture

import "github.com/facilops/sitepane/internal/core/domain"

// Pre-commit feedback fires the first time the offset lands inside
// [low, high) of the dismiss threshold, once per gesture.
const (
	feedbackLowFraction  = 0.7
	feedbackHighFraction = 0.8
)

// minElapsedSeconds floors the flick-velocity divisor so a zero time gap
// between the last two samples cannot divide by zero.
const minElapsedSeconds = 0.001

// Outcome is the end-of-gesture decision of a dismiss drag.
type Outcome struct {
	Committed bool
	Offset    float64
	Velocity  float64
}

// DismissTracker follows the overlay while a gesture is locked to
// VerticalDismiss. The overlay tracks the finger one to one; there is no
// damping. The tracker decides commit versus spring-back on gesture end.
type DismissTracker struct {
	cfg      Config
	session  domain.DismissSession
	active   bool
	feedback bool
}

// NewDismissTracker returns a tracker using cfg with unusable values
// defaulted.
func NewDismissTracker(cfg Config) *DismissTracker {
	return &DismissTracker{cfg: cfg.Normalize()}
}

// Active reports whether a dismiss drag is open.
func (t *DismissTracker) Active() bool { return t.active }

// Session returns a copy of the in-flight drag bookkeeping.
func (t *DismissTracker) Session() domain.DismissSession { return t.session }

// Begin opens a dismiss drag from the sample that locked the gesture.
func (t *DismissTracker) Begin(s domain.GestureSample) {
	t.active = true
	t.feedback = false
	t.session = domain.DismissSession{
		StartTimestampMS:      s.TimestampMS,
		LastSampleTimestampMS: s.TimestampMS,
		CurrentOffset:         s.DY,
	}
}

// Observe folds one sample into the drag and reports the new offset plus
// whether the pre-commit warning fires on this sample. The warning fires at
// most once per gesture, on the first sample whose offset falls inside the
// warning band.
func (t *DismissTracker) Observe(s domain.GestureSample) (offset float64, warn bool) {
	if !t.active {
		return 0, false
	}
	t.session.CurrentOffset = s.DY
	t.session.LastSampleTimestampMS = s.TimestampMS

	low := t.cfg.DismissThreshold * feedbackLowFraction
	high := t.cfg.DismissThreshold * feedbackHighFraction
	if !t.feedback && s.DY >= low && s.DY < high {
		t.feedback = true
		warn = true
	}
	return s.DY, warn
}

// Finish closes the drag and decides the outcome. elapsed is the seconds
// between the final sample and the previous one; a flick is judged on its
// last movement, not a whole-gesture average. Callers passing elapsed <= 0
// get it derived from the sample timestamps instead.
func (t *DismissTracker) Finish(final domain.GestureSample, elapsed float64) Outcome {
	if !t.active {
		return Outcome{}
	}
	if elapsed <= 0 {
		elapsed = float64(final.TimestampMS-t.session.LastSampleTimestampMS) / 1000
	}
	if elapsed < minElapsedSeconds {
		elapsed = minElapsedSeconds
	}

	offset := final.DY
	velocity := final.DY / elapsed
	t.active = false
	t.session = domain.DismissSession{}

	return Outcome{
		Committed: offset > t.cfg.DismissThreshold || velocity > t.cfg.FlickVelocity,
		Offset:    offset,
		Velocity:  velocity,
	}
}

// Cancel abandons the drag without an outcome, for watchdog resets and
// cancelled input streams.
func (t *DismissTracker) Cancel() {
	t.active = false
	t.feedback = false
	t.session = domain.DismissSession{}
}
