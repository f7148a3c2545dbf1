package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/ports"
	"github.com/facilops/sitepane/internal/pkg/geospatial"
)

// duplicateRadiusMeters treats imported sites closer than this as the same
// physical facility.
const duplicateRadiusMeters = 1.0

// SiteService handles site-inventory business logic.
type SiteService struct {
	sites     ports.SiteRepository
	cache     ports.CacheService
	publisher ports.EventPublisher
}

// NewSiteService creates a new SiteService.
func NewSiteService(sites ports.SiteRepository, cache ports.CacheService, publisher ports.EventPublisher) *SiteService {
	return &SiteService{sites: sites, cache: cache, publisher: publisher}
}

// List returns the site set for a display mode. Mode "mine" requires a user.
func (s *SiteService) List(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("unknown site mode %q", mode)
	}
	if mode == domain.SiteModeMine && user == "" {
		return nil, fmt.Errorf("mode %q requires a user", mode)
	}
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	// Try cache
	cacheKey := fmt.Sprintf("sites:list:%s:%s:%d", mode, user, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sites []domain.Site
			if err := json.Unmarshal(data, &sites); err == nil {
				return sites, nil
			}
		}
	}

	sites, err := s.sites.List(ctx, mode, user, limit)
	if err != nil {
		return nil, err
	}

	// Cache for 1 minute; inventory changes must reach overlays quickly.
	if s.cache != nil {
		if data, err := json.Marshal(sites); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}

	return sites, nil
}

// FindNearby returns sites within radiusMeters of the given point.
func (s *SiteService) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}

	cacheKey := fmt.Sprintf("sites:nearby:%.4f:%.4f:%.0f:%d", lat, lon, radiusMeters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sites []domain.Site
			if err := json.Unmarshal(data, &sites); err == nil {
				return sites, nil
			}
		}
	}

	sites, err := s.sites.FindNearby(ctx, lat, lon, radiusMeters, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(sites); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return sites, nil
}

// Search performs fuzzy + full-text search on site names.
func (s *SiteService) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	cacheKey := fmt.Sprintf("sites:search:%s:%d", query, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var sites []domain.Site
			if err := json.Unmarshal(data, &sites); err == nil {
				return sites, nil
			}
		}
	}

	sites, err := s.sites.Search(ctx, query, near, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(sites); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return sites, nil
}

// GetByID returns a single site.
func (s *SiteService) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	cacheKey := "sites:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var site domain.Site
			if err := json.Unmarshal(data, &site); err == nil {
				return &site, nil
			}
		}
	}

	site, err := s.sites.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(site); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return site, nil
}

// Count returns the total number of sites.
func (s *SiteService) Count(ctx context.Context) (int64, error) {
	return s.sites.Count(ctx)
}

// Import upserts a batch of sites, skipping entries with invalid coordinates
// and entries duplicating an earlier entry within duplicateRadiusMeters. It
// announces the change so live overlays reload, and returns how many sites
// were written and how many were skipped.
func (s *SiteService) Import(ctx context.Context, sites []domain.Site, source string) (imported, skipped int, err error) {
	accepted := make([]domain.Site, 0, len(sites))
	for _, site := range sites {
		if !site.Location.Valid() {
			skipped++
			continue
		}
		dup := false
		for _, prev := range accepted {
			d := geospatial.Haversine(site.Location.Lat, site.Location.Lon, prev.Location.Lat, prev.Location.Lon)
			if d < duplicateRadiusMeters && site.SiteID != prev.SiteID {
				dup = true
				break
			}
		}
		if dup {
			skipped++
			continue
		}
		accepted = append(accepted, site)
	}

	if len(accepted) == 0 {
		return 0, skipped, nil
	}

	if err := s.sites.UpsertBatch(ctx, accepted); err != nil {
		return 0, skipped, fmt.Errorf("upsert sites: %w", err)
	}

	if s.publisher != nil {
		_ = s.publisher.PublishSitesUpdated(ctx, &domain.SitesUpdatedEvent{
			Time:   time.Now(),
			Count:  len(accepted),
			Source: source,
		})
	}

	return len(accepted), skipped, nil
}
