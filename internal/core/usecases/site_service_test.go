package usecases_test

import (
	"context"
	"sync"
	"testing"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/usecases"
)

// --- Mock SiteRepository ---

type mockSiteRepo struct {
	listFn        func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error)
	findNearbyFn  func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error)
	getByIDFn     func(ctx context.Context, id string) (*domain.Site, error)
	searchFn      func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error)
	upsertBatchFn func(ctx context.Context, sites []domain.Site) error
}

func (m *mockSiteRepo) Upsert(ctx context.Context, site *domain.Site) error { return nil }

func (m *mockSiteRepo) UpsertBatch(ctx context.Context, sites []domain.Site) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, sites)
	}
	return nil
}

func (m *mockSiteRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSiteRepo) List(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
	if m.listFn != nil {
		return m.listFn(ctx, mode, user, limit)
	}
	return nil, nil
}

func (m *mockSiteRepo) FindNearby(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
	if m.findNearbyFn != nil {
		return m.findNearbyFn(ctx, lat, lon, radius, limit)
	}
	return nil, nil
}

func (m *mockSiteRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, near, limit)
	}
	return nil, nil
}

func (m *mockSiteRepo) Count(ctx context.Context) (int64, error) { return 0, nil }

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu           sync.Mutex
	selections   []domain.SelectionEvent
	dismissals   []domain.DismissalEvent
	sessions     []domain.SessionEvent
	sitesUpdated []domain.SitesUpdatedEvent
}

func (m *mockPublisher) PublishSelection(ctx context.Context, ev *domain.SelectionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selections = append(m.selections, *ev)
	return nil
}

func (m *mockPublisher) PublishDismissal(ctx context.Context, ev *domain.DismissalEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dismissals = append(m.dismissals, *ev)
	return nil
}

func (m *mockPublisher) PublishSessionEvent(ctx context.Context, ev *domain.SessionEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = append(m.sessions, *ev)
	return nil
}

func (m *mockPublisher) PublishSitesUpdated(ctx context.Context, ev *domain.SitesUpdatedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sitesUpdated = append(m.sitesUpdated, *ev)
	return nil
}

// --- Tests ---

func TestSiteService_List(t *testing.T) {
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
			if mode != domain.SiteModeAll {
				t.Errorf("expected mode all, got %s", mode)
			}
			return []domain.Site{
				{ID: "1", Name: "Hudson Yards Plant", Location: domain.GeoPoint{Lat: 40.70, Lon: -74.00}},
				{ID: "2", Name: "Harlem Depot", Location: domain.GeoPoint{Lat: 40.80, Lon: -73.90}},
			}, nil
		},
	}

	svc := usecases.NewSiteService(repo, nil, nil)

	sites, err := svc.List(context.Background(), domain.SiteModeAll, "", 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sites) != 2 {
		t.Fatalf("expected 2 sites, got %d", len(sites))
	}
	if sites[0].Name != "Hudson Yards Plant" {
		t.Errorf("expected Hudson Yards Plant, got %s", sites[0].Name)
	}
}

func TestSiteService_List_UnknownMode(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepo{}, nil, nil)
	_, err := svc.List(context.Background(), "everything", "", 10)
	if err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSiteService_List_MineRequiresUser(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepo{}, nil, nil)
	_, err := svc.List(context.Background(), domain.SiteModeMine, "", 10)
	if err == nil {
		t.Error("expected error for mode mine without user")
	}
}

func TestSiteService_List_ClampLimit(t *testing.T) {
	called := false
	repo := &mockSiteRepo{
		listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
			called = true
			if limit != 500 {
				t.Errorf("expected limit clamped to 500, got %d", limit)
			}
			return nil, nil
		},
	}

	svc := usecases.NewSiteService(repo, nil, nil)
	_, _ = svc.List(context.Background(), domain.SiteModeAll, "", 99999)
	if !called {
		t.Error("repo was not called")
	}
}

func TestSiteService_FindNearby_ClampLimit(t *testing.T) {
	called := false
	repo := &mockSiteRepo{
		findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
			called = true
			if limit != 50 {
				t.Errorf("expected limit clamped to 50, got %d", limit)
			}
			return nil, nil
		},
	}

	svc := usecases.NewSiteService(repo, nil, nil)
	_, _ = svc.FindNearby(context.Background(), 40.7, -74.0, 500, 999)
	if !called {
		t.Error("repo was not called")
	}
}

func TestSiteService_Search_EmptyQuery(t *testing.T) {
	svc := usecases.NewSiteService(&mockSiteRepo{}, nil, nil)
	_, err := svc.Search(context.Background(), "", nil, 10)
	if err == nil {
		t.Error("expected error for empty query")
	}
}

func TestSiteService_GetByID(t *testing.T) {
	repo := &mockSiteRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Site, error) {
			return &domain.Site{ID: id, Name: "Test Site"}, nil
		},
	}

	svc := usecases.NewSiteService(repo, nil, nil)
	site, err := svc.GetByID(context.Background(), "abc-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if site.ID != "abc-123" {
		t.Errorf("expected id abc-123, got %s", site.ID)
	}
}

func TestSiteService_Import_SkipsInvalidAndDuplicates(t *testing.T) {
	var written []domain.Site
	repo := &mockSiteRepo{
		upsertBatchFn: func(ctx context.Context, sites []domain.Site) error {
			written = sites
			return nil
		},
	}
	pub := &mockPublisher{}
	svc := usecases.NewSiteService(repo, nil, pub)

	sites := []domain.Site{
		{SiteID: "S-1", Location: domain.GeoPoint{Lat: 40.70, Lon: -74.00}},
		{SiteID: "S-2", Location: domain.GeoPoint{Lat: 200, Lon: 10}},
		{SiteID: "S-3", Location: domain.GeoPoint{Lat: 40.700000001, Lon: -74.000000001}},
		{SiteID: "S-4", Location: domain.GeoPoint{Lat: 40.80, Lon: -73.90}},
	}

	imported, skipped, err := svc.Import(context.Background(), sites, "manifest.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 2 || skipped != 2 {
		t.Errorf("expected 2 imported / 2 skipped, got %d / %d", imported, skipped)
	}
	if len(written) != 2 {
		t.Fatalf("expected 2 sites written, got %d", len(written))
	}
	if written[0].SiteID != "S-1" || written[1].SiteID != "S-4" {
		t.Errorf("unexpected survivors: %s, %s", written[0].SiteID, written[1].SiteID)
	}
	if len(pub.sitesUpdated) != 1 || pub.sitesUpdated[0].Count != 2 {
		t.Errorf("expected one sites-updated event with count 2, got %+v", pub.sitesUpdated)
	}
}

func TestSiteService_Import_NothingUsable(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewSiteService(&mockSiteRepo{}, nil, pub)

	imported, skipped, err := svc.Import(context.Background(), []domain.Site{
		{SiteID: "S-1", Location: domain.GeoPoint{Lat: 500, Lon: 500}},
	}, "manifest.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if imported != 0 || skipped != 1 {
		t.Errorf("expected 0 imported / 1 skipped, got %d / %d", imported, skipped)
	}
	if len(pub.sitesUpdated) != 0 {
		t.Error("no event should be published when nothing was written")
	}
}
