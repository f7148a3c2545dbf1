package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/gesture"
	"github.com/facilops/sitepane/internal/core/ports"
	"github.com/facilops/sitepane/internal/core/viewport"
)

// maxOverlaySites bounds how many points one overlay loads.
const maxOverlaySites = 500

// SignalSink receives the signals a session emits, in order. Sinks are
// called with the session lock held and must not call back into the session.
type SignalSink func(sig domain.Signal)

// SessionInfo is a point-in-time snapshot of a session for listings.
type SessionInfo struct {
	ID        string              `json:"id"`
	User      string              `json:"user,omitempty"`
	Mode      domain.SiteMode     `json:"mode"`
	State     domain.GestureState `json:"state"`
	Sites     int                 `json:"sites"`
	StartedAt time.Time           `json:"started_at"`
}

// Session owns the interaction state of one connected overlay client: the
// arbitration state machine, the dismiss drag, the debounced point
// interactions, and the fitted viewport. All mutable state is confined
// behind one mutex; input events and timer callbacks serialize on it.
type Session struct {
	ID        string
	User      string
	StartedAt time.Time

	sites *SiteService
	pub   ports.EventPublisher
	sched gesture.Scheduler
	cfg   gesture.Config

	mu       sync.Mutex
	state    domain.GestureState
	arbiter  gesture.Arbiter
	dismiss  *gesture.DismissTracker
	debounce *gesture.Debouncer
	fitter   viewport.Fitter

	mode    domain.SiteMode
	focus   *domain.GeoPoint
	siteSet []domain.Site
	view    domain.Viewport

	sink SignalSink

	// gen invalidates scheduled resets: a timer fired for an older
	// generation is stale and must not touch the session.
	gen     uint64
	cancel  gesture.CancelFunc
	cooling bool
	closed  bool

	gestureStartMS int64
}

// Start loads the initial site set, fits the viewport, and emits the
// session.start and viewport signals.
func (s *Session) Start(ctx context.Context) error {
	sites, err := s.loadSites(ctx, s.mode)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.siteSet = sites
	s.refitLocked()

	s.emitLocked(domain.Signal{Type: domain.SignalSessionStart, SessionID: s.ID, State: s.state, Mode: s.mode})
	s.emitViewportLocked()
	return nil
}

// HandleSample feeds one drag reading through the arbiter and, when the
// gesture is locked to a dismiss, through the dismiss tracker.
func (s *Session) HandleSample(smp domain.GestureSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	// A new stream arriving before the previous gesture's cooldown fired
	// cancels the pending reset and classifies fresh.
	if s.cooling {
		s.cancelPendingLocked()
		s.cooling = false
		s.state = domain.GestureIdle
		s.dismiss.Cancel()
	}

	prev := s.state
	next := s.arbiter.Classify(prev, smp)
	if next != prev {
		s.state = next
		if prev == domain.GestureIdle {
			s.gestureStartMS = smp.TimestampMS
		}
		if next == domain.GestureVerticalDismiss {
			s.dismiss.Begin(smp)
		}
		s.emitLocked(domain.Signal{Type: domain.SignalState, State: next})
	}

	if s.state == domain.GestureVerticalDismiss {
		offset, warn := s.dismiss.Observe(smp)
		s.emitLocked(domain.Signal{Type: domain.SignalDismissOffset, Offset: offset})
		if warn {
			s.emitLocked(domain.Signal{Type: domain.SignalDismissFeedback, Offset: offset})
		}
	}

	switch s.state {
	case domain.GestureDetectingIntent, domain.GesturePanning, domain.GestureVerticalDismiss:
		s.armWatchdogLocked()
	}
}

// HandleEnd closes the in-flight gesture. For a dismiss drag it decides
// commit versus spring-back; every ended gesture then waits out the
// cooldown before the session returns to idle.
func (s *Session) HandleEnd(final domain.GestureSample, elapsedSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.cooling {
		return
	}

	switch s.state {
	case domain.GestureIdle, domain.GesturePointInteraction:
		// No drag in flight; the grace window owns point interactions.
		return
	case domain.GestureVerticalDismiss:
		out := s.dismiss.Finish(final, elapsedSeconds)
		s.emitLocked(domain.Signal{
			Type:      domain.SignalDismiss,
			Committed: out.Committed,
			Offset:    out.Offset,
			Velocity:  out.Velocity,
		})
		s.publishDismissalLocked(out)
	}

	s.enterCooldownLocked()
}

// HandleCancel aborts a gesture whose input stream died. An open dismiss
// drag springs back; the session resets without waiting for a cooldown.
func (s *Session) HandleCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state == domain.GestureIdle {
		return
	}
	s.resetLocked(domain.ResetCancel)
}

// HandleTap routes a point tap through the debouncer.
func (s *Session) HandleTap(siteID string) {
	s.handleSelect(siteID, domain.SelectPreview)
}

// HandleLongPress routes a point long-press through the debouncer.
func (s *Session) HandleLongPress(siteID string) {
	s.handleSelect(siteID, domain.SelectDetail)
}

func (s *Session) handleSelect(siteID string, intent domain.SelectIntent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	site, ok := s.findSiteLocked(siteID)
	if !ok {
		s.emitLocked(domain.Signal{Type: domain.SignalError, SiteID: siteID, Message: "unknown site"})
		return
	}

	switch s.debounce.Observe(s.state, intent, site.Selectable) {
	case gesture.DecisionAccept:
		s.state = domain.GesturePointInteraction
		s.emitLocked(domain.Signal{Type: domain.SignalState, State: s.state})
		s.emitLocked(domain.Signal{Type: domain.SignalSelect, SiteID: site.ID, Intent: intent})
		s.publishSelectionLocked(site.ID, intent)
		s.armGraceLocked()
	case gesture.DecisionSupersede:
		// The preview closes client-side when the detail signal lands.
		s.emitLocked(domain.Signal{Type: domain.SignalSelect, SiteID: site.ID, Intent: domain.SelectDetail})
		s.publishSelectionLocked(site.ID, domain.SelectDetail)
		s.armGraceLocked()
	case gesture.DecisionDrop, gesture.DecisionIgnore:
		// Swallowed, not queued.
	}
}

// SetMode switches between the "mine" and "all" site sets and refits the
// viewport around the new set.
func (s *Session) SetMode(ctx context.Context, mode domain.SiteMode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown site mode %q", mode)
	}
	sites, err := s.loadSites(ctx, mode)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.mode = mode
	s.siteSet = sites
	s.refitLocked()
	s.emitViewportLocked()
	return nil
}

// SetFocus sets or clears the bias target and refits the viewport. The
// target pulls the frame toward it without becoming the center.
func (s *Session) SetFocus(focus *domain.GeoPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.focus = focus
	s.refitLocked()
	s.emitViewportLocked()
}

// Refresh reloads the current site set, for inventory-change broadcasts.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	mode := s.mode
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil
	}

	sites, err := s.loadSites(ctx, mode)
	if err != nil {
		return fmt.Errorf("load sites: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.mode != mode {
		return nil
	}
	s.siteSet = sites
	s.refitLocked()
	s.emitViewportLocked()
	return nil
}

// Close ends the session. Pending timers are cancelled; later input is
// ignored.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelPendingLocked()
}

// State returns the current arbitration state.
func (s *Session) State() domain.GestureState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Mode returns the current display mode.
func (s *Session) Mode() domain.SiteMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Viewport returns the current fitted camera region.
func (s *Session) Viewport() domain.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Info snapshots the session for listings.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		User:      s.User,
		Mode:      s.mode,
		State:     s.state,
		Sites:     len(s.siteSet),
		StartedAt: s.StartedAt,
	}
}

// --- internals, all called with s.mu held ---

func (s *Session) loadSites(ctx context.Context, mode domain.SiteMode) ([]domain.Site, error) {
	if s.sites == nil {
		return nil, nil
	}
	return s.sites.List(ctx, mode, s.User, maxOverlaySites)
}

func (s *Session) findSiteLocked(id string) (domain.Site, bool) {
	for _, site := range s.siteSet {
		if site.ID == id || site.SiteID == id {
			return site, true
		}
	}
	return domain.Site{}, false
}

func (s *Session) refitLocked() {
	s.view = s.fitter.FitSites(s.siteSet, s.focus)
}

func (s *Session) emitLocked(sig domain.Signal) {
	sig.SessionID = s.ID
	if s.sink != nil {
		s.sink(sig)
	}
}

func (s *Session) emitViewportLocked() {
	v := s.view
	s.emitLocked(domain.Signal{
		Type:     domain.SignalViewport,
		Viewport: &v,
		Sites:    s.siteSet,
		Mode:     s.mode,
	})
}

// armLocked replaces any pending reset with a new scheduled task. The timer
// callback re-checks the generation under the lock so a reset that lost the
// race to a newer event becomes a no-op.
func (s *Session) armLocked(d time.Duration, fn func()) {
	s.cancelPendingLocked()
	gen := s.gen
	s.cancel = s.sched.Schedule(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.gen {
			return
		}
		fn()
	})
}

func (s *Session) cancelPendingLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.gen++
}

func (s *Session) armWatchdogLocked() {
	s.armLocked(s.cfg.Watchdog, func() { s.resetLocked(domain.ResetWatchdog) })
}

func (s *Session) armGraceLocked() {
	s.armLocked(s.cfg.Grace, func() { s.resetLocked(domain.ResetGrace) })
}

func (s *Session) enterCooldownLocked() {
	s.cooling = true
	s.armLocked(s.cfg.Cooldown, func() { s.resetLocked(domain.ResetCooldown) })
}

// resetLocked forces the session back to idle. An open dismiss drag springs
// back and its outcome is published so downstream consumers see the abort.
func (s *Session) resetLocked(cause string) {
	if s.dismiss.Active() {
		drag := s.dismiss.Session()
		s.dismiss.Cancel()
		s.emitLocked(domain.Signal{Type: domain.SignalDismiss, Committed: false, Offset: drag.CurrentOffset})
		s.publishDismissalLocked(gesture.Outcome{Offset: drag.CurrentOffset})
	}
	s.debounce.Reset()
	s.cancelPendingLocked()
	s.cooling = false
	s.state = domain.GestureIdle
	s.gestureStartMS = 0
	s.emitLocked(domain.Signal{Type: domain.SignalReset, State: s.state, Cause: cause})
}

func (s *Session) publishSelectionLocked(siteID string, intent domain.SelectIntent) {
	if s.pub == nil {
		return
	}
	_ = s.pub.PublishSelection(context.Background(), &domain.SelectionEvent{
		Time:      time.Now(),
		SessionID: s.ID,
		User:      s.User,
		SiteID:    siteID,
		Intent:    intent,
		Mode:      s.mode,
	})
}

func (s *Session) publishDismissalLocked(out gesture.Outcome) {
	if s.pub == nil {
		return
	}
	_ = s.pub.PublishDismissal(context.Background(), &domain.DismissalEvent{
		Time:      time.Now(),
		SessionID: s.ID,
		User:      s.User,
		Committed: out.Committed,
		Offset:    out.Offset,
		Velocity:  out.Velocity,
	})
}
