// Package gesture implements the drag-intent arbitration core of the map
// overlay: a state machine that resolves one continuous pointer stream into
// panning, overlay dismissal, or point interaction, plus the timers that
// return a session to idle.
package gesture

import "time"

// Config carries the tunable thresholds of the interaction core. Distances
// are expressed in screen points and velocities in points per second; no
// device-density normalization is applied.
type Config struct {
	// DetectThreshold is the translation magnitude past which a drag stops
	// being noise and intent detection begins.
	DetectThreshold float64
	// PanThreshold is the translation magnitude past which directional
	// intent is locked.
	PanThreshold float64
	// VerticalBias is the axis-dominance ratio a drag must exceed before
	// the ambiguity window resolves.
	VerticalBias float64
	// DismissThreshold is the downward offset past which releasing the
	// drag removes the overlay.
	DismissThreshold float64
	// FlickVelocity is the end-of-gesture downward velocity past which a
	// short drag still dismisses.
	FlickVelocity float64

	// Cooldown delays the return to idle after a gesture ends.
	Cooldown time.Duration
	// Watchdog forces a return to idle when a drag stream dies without a
	// proper end event.
	Watchdog time.Duration
	// Grace is the window after a point interaction during which further
	// taps are dropped.
	Grace time.Duration
}

// DefaultConfig returns the tuned production thresholds.
func DefaultConfig() Config {
	return Config{
		DetectThreshold:  5,
		PanThreshold:     15,
		VerticalBias:     0.7,
		DismissThreshold: 120,
		FlickVelocity:    300,
		Cooldown:         300 * time.Millisecond,
		Watchdog:         2 * time.Second,
		Grace:            500 * time.Millisecond,
	}
}

// Normalize replaces unusable field values with the defaults so a partially
// populated config cannot wedge the state machine.
func (c Config) Normalize() Config {
	def := DefaultConfig()
	if c.DetectThreshold <= 0 {
		c.DetectThreshold = def.DetectThreshold
	}
	if c.PanThreshold <= 0 {
		c.PanThreshold = def.PanThreshold
	}
	if c.VerticalBias <= 0 || c.VerticalBias >= 1 {
		c.VerticalBias = def.VerticalBias
	}
	if c.DismissThreshold <= 0 {
		c.DismissThreshold = def.DismissThreshold
	}
	if c.FlickVelocity <= 0 {
		c.FlickVelocity = def.FlickVelocity
	}
	if c.Cooldown <= 0 {
		c.Cooldown = def.Cooldown
	}
	if c.Watchdog <= 0 {
		c.Watchdog = def.Watchdog
	}
	if c.Grace <= 0 {
		c.Grace = def.Grace
	}
	return c
}
