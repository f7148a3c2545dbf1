package domain

import (
	"time"
)

// SiteMode selects which slice of the site inventory an overlay shows.
type SiteMode string

const (
	// SiteModeMine shows only sites assigned to the requesting user.
	SiteModeMine SiteMode = "mine"
	// SiteModeAll shows the full site inventory.
	SiteModeAll SiteMode = "all"
)

// Valid reports whether m is a known mode.
func (m SiteMode) Valid() bool {
	return m == SiteModeMine || m == SiteModeAll
}

// Site represents a managed facility rendered as a point on the map overlay.
// Business attributes beyond what selection needs travel opaquely in Metadata.
type Site struct {
	ID         string         `json:"id"`
	SiteID     string         `json:"site_id"`
	Name       string         `json:"name"`
	Location   GeoPoint       `json:"location"`
	Category   string         `json:"category,omitempty"`
	Selectable bool           `json:"selectable"`
	AssignedTo []string       `json:"assigned_to,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Distance   *float64       `json:"distance,omitempty"` // computed field
	CreatedAt  time.Time      `json:"created_at"`
}
