package usecases

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/gesture"
	"github.com/facilops/sitepane/internal/core/ports"
	"github.com/facilops/sitepane/internal/core/viewport"
)

// OverlayService owns the live overlay sessions of one server instance.
type OverlayService struct {
	sites     *SiteService
	publisher ports.EventPublisher
	sched     gesture.Scheduler
	gcfg      gesture.Config
	vcfg      viewport.Config

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewOverlayService creates a new OverlayService. A nil scheduler gets real
// timers; a nil publisher disables event publishing.
func NewOverlayService(
	sites *SiteService,
	publisher ports.EventPublisher,
	sched gesture.Scheduler,
	gcfg gesture.Config,
	vcfg viewport.Config,
) *OverlayService {
	if sched == nil {
		sched = gesture.TimerScheduler{}
	}
	return &OverlayService{
		sites:     sites,
		publisher: publisher,
		sched:     sched,
		gcfg:      gcfg.Normalize(),
		vcfg:      vcfg.Normalize(),
		sessions:  make(map[string]*Session),
	}
}

// StartSession creates a session for one connected client and emits its
// opening signals through sink.
func (o *OverlayService) StartSession(ctx context.Context, user string, mode domain.SiteMode, sink SignalSink) (*Session, error) {
	if sink == nil {
		return nil, fmt.Errorf("signal sink must not be nil")
	}
	if !mode.Valid() {
		mode = domain.SiteModeAll
	}

	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		StartedAt: time.Now(),
		sites:     o.sites,
		pub:       o.publisher,
		sched:     o.sched,
		cfg:       o.gcfg,
		state:     domain.GestureIdle,
		arbiter:   gesture.NewArbiter(o.gcfg),
		dismiss:   gesture.NewDismissTracker(o.gcfg),
		debounce:  gesture.NewDebouncer(),
		fitter:    viewport.NewFitter(o.vcfg),
		mode:      mode,
		sink:      sink,
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	o.mu.Lock()
	o.sessions[s.ID] = s
	o.mu.Unlock()

	o.publishSessionEvent(ctx, s, "started")
	return s, nil
}

// EndSession closes and forgets a session.
func (o *OverlayService) EndSession(ctx context.Context, id string) {
	o.mu.Lock()
	s := o.sessions[id]
	delete(o.sessions, id)
	o.mu.Unlock()
	if s == nil {
		return
	}

	s.Close()
	o.publishSessionEvent(ctx, s, "ended")
}

// Session returns a live session by ID.
func (o *OverlayService) Session(id string) (*Session, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s, ok := o.sessions[id]
	return s, ok
}

// Sessions snapshots all live sessions.
func (o *OverlayService) Sessions() []SessionInfo {
	o.mu.RLock()
	live := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		live = append(live, s)
	}
	o.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(live))
	for _, s := range live {
		infos = append(infos, s.Info())
	}
	return infos
}

// Count returns the number of live sessions.
func (o *OverlayService) Count() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.sessions)
}

// RefreshAll reloads every live session's site set, best effort. Used when
// an inventory-change broadcast arrives.
func (o *OverlayService) RefreshAll(ctx context.Context) {
	o.mu.RLock()
	live := make([]*Session, 0, len(o.sessions))
	for _, s := range o.sessions {
		live = append(live, s)
	}
	o.mu.RUnlock()

	for _, s := range live {
		_ = s.Refresh(ctx)
	}
}

func (o *OverlayService) publishSessionEvent(ctx context.Context, s *Session, phase string) {
	if o.publisher == nil {
		return
	}
	_ = o.publisher.PublishSessionEvent(ctx, &domain.SessionEvent{
		Time:      time.Now(),
		SessionID: s.ID,
		User:      s.User,
		Phase:     phase,
		Mode:      s.Mode(),
	})
}
