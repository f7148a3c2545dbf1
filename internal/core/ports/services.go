package ports

import (
	"context"

	"github.com/facilops/sitepane/internal/core/domain"
)

// EventPublisher publishes overlay interaction events to a message broker.
type EventPublisher interface {
	PublishSelection(ctx context.Context, ev *domain.SelectionEvent) error
	PublishDismissal(ctx context.Context, ev *domain.DismissalEvent) error
	PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error
	PublishSitesUpdated(ctx context.Context, ev *domain.SitesUpdatedEvent) error
}

// EventSubscriber subscribes to overlay events from a message broker.
type EventSubscriber interface {
	SubscribeSitesUpdated(ctx context.Context, handler func(ctx context.Context, ev *domain.SitesUpdatedEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
