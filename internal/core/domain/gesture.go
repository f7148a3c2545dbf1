package domain

import "math"

// GestureState is the arbitration state of a single overlay session.
type GestureState string

const (
	// GestureIdle means no drag is in progress and taps are accepted.
	GestureIdle GestureState = "idle"
	// GestureDetectingIntent means movement passed the detection threshold
	// but directional intent is still ambiguous.
	GestureDetectingIntent GestureState = "detecting_intent"
	// GesturePanning means the drag is committed to moving the map camera.
	GesturePanning GestureState = "panning"
	// GestureVerticalDismiss means the drag is committed to dragging the
	// overlay toward dismissal.
	GestureVerticalDismiss GestureState = "vertical_dismiss"
	// GesturePointInteraction means a site tap or long-press is being handled.
	GesturePointInteraction GestureState = "point_interaction"
)

// Locked reports whether the state is committed to a drag interpretation.
// Locked states only leave via gesture end, cancellation, or the watchdog.
func (s GestureState) Locked() bool {
	return s == GesturePanning || s == GestureVerticalDismiss
}

// GestureSample is one drag reading. DX and DY are the translation in points
// since the gesture began, not since the previous sample. DY grows downward.
type GestureSample struct {
	DX          float64 `json:"dx"`
	DY          float64 `json:"dy"`
	TimestampMS int64   `json:"t"`
}

// Distance returns the straight-line translation magnitude.
func (s GestureSample) Distance() float64 {
	return math.Hypot(s.DX, s.DY)
}

// DismissSession tracks an in-flight dismiss drag.
type DismissSession struct {
	StartTimestampMS      int64   `json:"start_t"`
	LastSampleTimestampMS int64   `json:"last_t"`
	CurrentOffset         float64 `json:"offset"`
}

// SelectIntent distinguishes the two point-selection outcomes.
type SelectIntent string

const (
	// SelectPreview is the light-weight summary shown after a tap.
	SelectPreview SelectIntent = "preview"
	// SelectDetail is the full record view opened by a long-press.
	SelectDetail SelectIntent = "detail"
)
