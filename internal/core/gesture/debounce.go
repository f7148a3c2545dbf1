package gesture

import "github.com/facilops/sitepane/internal/core/domain"

// Decision is the debouncer's verdict on an incoming tap or long-press.
type Decision int

const (
	// DecisionIgnore means the point is not selectable; nothing changes.
	DecisionIgnore Decision = iota
	// DecisionDrop means the input arrived during a drag or an already
	// open interaction and is swallowed, not queued.
	DecisionDrop
	// DecisionAccept means the interaction opens and its signal is emitted.
	DecisionAccept
	// DecisionSupersede means a long-press replaces an open preview: the
	// preview closes and the detail signal is emitted instead.
	DecisionSupersede
)

// Debouncer guards point interactions. A tap opens a preview and starts a
// grace window during which further taps are dropped; a long-press opens the
// detail view and supersedes an open preview. Point interactions never
// interrupt an in-progress drag classification.
type Debouncer struct {
	active bool
	intent domain.SelectIntent
}

// NewDebouncer returns an idle debouncer.
func NewDebouncer() *Debouncer { return &Debouncer{} }

// Observe judges one tap or long-press against the current gesture state.
// On DecisionAccept and DecisionSupersede the debouncer records the new
// interaction; the caller owns the grace-window timer and must call Reset
// when it fires.
func (d *Debouncer) Observe(state domain.GestureState, intent domain.SelectIntent, selectable bool) Decision {
	if !selectable {
		return DecisionIgnore
	}

	switch state {
	case domain.GestureIdle:
		d.active = true
		d.intent = intent
		return DecisionAccept
	case domain.GesturePointInteraction:
		if intent == domain.SelectDetail && d.active && d.intent == domain.SelectPreview {
			d.intent = domain.SelectDetail
			return DecisionSupersede
		}
		return DecisionDrop
	default:
		// Drag in flight.
		return DecisionDrop
	}
}

// ActiveIntent returns the open interaction, if any.
func (d *Debouncer) ActiveIntent() (domain.SelectIntent, bool) {
	return d.intent, d.active
}

// Reset closes the interaction when the grace window fires or the session
// resets.
func (d *Debouncer) Reset() {
	d.active = false
	d.intent = ""
}
