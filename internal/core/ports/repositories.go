package ports

import (
	"context"

	"github.com/facilops/sitepane/internal/core/domain"
)

// SiteRepository persists sites.
type SiteRepository interface {
	Upsert(ctx context.Context, site *domain.Site) error
	UpsertBatch(ctx context.Context, sites []domain.Site) error
	GetByID(ctx context.Context, id string) (*domain.Site, error)
	List(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error)
	FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error)
	Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error)
	Count(ctx context.Context) (int64, error)
}
