package domain

import "time"

// SelectionEvent is published when a session resolves a site selection.
type SelectionEvent struct {
	Time      time.Time    `json:"time"`
	SessionID string       `json:"session_id"`
	User      string       `json:"user,omitempty"`
	SiteID    string       `json:"site_id"`
	Intent    SelectIntent `json:"intent"`
	Mode      SiteMode     `json:"mode"`
}

// DismissalEvent is published when a dismiss drag ends, whether it commits
// or springs back.
type DismissalEvent struct {
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	User      string    `json:"user,omitempty"`
	Committed bool      `json:"committed"`
	Offset    float64   `json:"offset"`
	Velocity  float64   `json:"velocity"`
}

// SessionEvent marks overlay session lifecycle transitions.
type SessionEvent struct {
	Time      time.Time `json:"time"`
	SessionID string    `json:"session_id"`
	User      string    `json:"user,omitempty"`
	Phase     string    `json:"phase"` // "started" or "ended"
	Mode      SiteMode  `json:"mode,omitempty"`
}

// SitesUpdatedEvent announces that the site inventory changed and live
// overlays should reload their point sets.
type SitesUpdatedEvent struct {
	Time   time.Time `json:"time"`
	Count  int       `json:"count"`
	Source string    `json:"source,omitempty"`
}
