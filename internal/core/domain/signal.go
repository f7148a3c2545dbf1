package domain

// SignalType enumerates the discrete outputs an overlay session emits
// toward its client.
type SignalType string

const (
	SignalSessionStart    SignalType = "session.start"
	SignalState           SignalType = "state"
	SignalDismissOffset   SignalType = "dismiss.offset"
	SignalDismissFeedback SignalType = "dismiss.feedback"
	SignalDismiss         SignalType = "dismiss"
	SignalSelect          SignalType = "select"
	SignalViewport        SignalType = "viewport"
	SignalReset           SignalType = "reset"
	SignalError           SignalType = "error"
)

// Reset causes distinguish why a session returned to idle.
const (
	ResetCooldown = "cooldown"
	ResetWatchdog = "watchdog"
	ResetGrace    = "grace"
	ResetCancel   = "cancel"
)

// Signal is one discrete event emitted by an overlay session. Only the
// fields relevant to Type are populated.
type Signal struct {
	Type      SignalType   `json:"type"`
	SessionID string       `json:"session_id,omitempty"`
	State     GestureState `json:"state,omitempty"`
	Offset    float64      `json:"offset,omitempty"`
	Velocity  float64      `json:"velocity,omitempty"`
	Committed bool         `json:"committed,omitempty"`
	SiteID    string       `json:"site_id,omitempty"`
	Intent    SelectIntent `json:"intent,omitempty"`
	Viewport  *Viewport    `json:"viewport,omitempty"`
	Sites     []Site       `json:"sites,omitempty"`
	Mode      SiteMode     `json:"mode,omitempty"`
	Cause     string       `json:"cause,omitempty"`
	Message   string       `json:"message,omitempty"`
}
