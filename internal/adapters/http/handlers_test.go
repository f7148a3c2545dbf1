package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/facilops/sitepane/internal/adapters/http"
	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/core/gesture"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/core/viewport"
)

// ---- Mock repositories ----

type mockSiteRepo struct {
	listFn        func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error)
	findNearbyFn  func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error)
	getByIDFn     func(ctx context.Context, id string) (*domain.Site, error)
	searchFn      func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error)
	upsertBatchFn func(ctx context.Context, sites []domain.Site) error
}

func (m *mockSiteRepo) Upsert(ctx context.Context, s *domain.Site) error { return nil }
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

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	svc := usecases.NewSiteService(&mockSiteRepo{}, nil, nil)
	d := &handler.Dependencies{
		Sites:   svc,
		Overlay: usecases.NewOverlayService(svc, nil, nil, gesture.DefaultConfig(), viewport.DefaultConfig()),
		Gesture: gesture.DefaultConfig(),
		Fitter:  viewport.NewFitter(viewport.DefaultConfig()),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Site listing tests ----

func TestListSites_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
				return []domain.Site{
					{ID: "s1", SiteID: "HV-001", Name: "Hudson Yards Plant", Selectable: true},
					{ID: "s2", SiteID: "HV-002", Name: "Harlem Depot", Selectable: true},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Site `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 2 {
		t.Errorf("expected total 2, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 sites, got %d", len(result.Data))
	}
}

func TestListSites_Pagination(t *testing.T) {
	sites := make([]domain.Site, 5)
	for i := range sites {
		sites[i] = domain.Site{ID: fmt.Sprintf("s%d", i), Name: fmt.Sprintf("Site %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
				return sites, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites?offset=2&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Site `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Limit  int `json:"limit"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 5 {
		t.Errorf("expected total 5, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 sites in page, got %d", len(result.Data))
	}
	if result.Pagination.Offset != 2 {
		t.Errorf("expected offset 2, got %d", result.Pagination.Offset)
	}
}

func TestListSites_MineWithoutUser(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sites?mode=mine", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Nearby / search tests ----

func TestNearbySites_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
				return []domain.Site{
					{ID: "s1", Name: "Hudson Yards Plant", Location: domain.GeoPoint{Lat: 40.70, Lon: -74.00}},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/nearby?lat=40.70&lon=-74.00&radius=500", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var sites []domain.Site
	json.NewDecoder(resp.Body).Decode(&sites)
	if len(sites) != 1 {
		t.Errorf("expected 1 site, got %d", len(sites))
	}
}

func TestNearbySites_MissingParams(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sites/nearby", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Status int    `json:"status"`
		Code   string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestNearbySites_BadRadius(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sites/nearby?lat=40.70&lon=-74.00&radius=100000", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestSearchSites_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			searchFn: func(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error) {
				return []domain.Site{
					{ID: "s1", Name: "Hudson Yards Treatment Plant"},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/search?q=hudson", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSearchSites_MissingQuery(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sites/search", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSite_NotFound(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Site, error) {
				return nil, fmt.Errorf("not found")
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/nonexistent-id", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestGetSite_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Site, error) {
				return &domain.Site{ID: id, Name: "Harlem Depot"}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/abc-123", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var site domain.Site
	json.NewDecoder(resp.Body).Decode(&site)
	if site.Name != "Harlem Depot" {
		t.Errorf("expected Harlem Depot, got %s", site.Name)
	}
}

// ---- Import tests ----

func TestImportSites_Success(t *testing.T) {
	var written []domain.Site
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			upsertBatchFn: func(ctx context.Context, sites []domain.Site) error {
				written = sites
				return nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	body := `[
		{"id":"s1","site_id":"HV-001","name":"Hudson Yards Plant","location":{"lat":40.70,"lon":-74.00},"selectable":true},
		{"id":"s2","site_id":"HV-002","name":"Harlem Depot","location":{"lat":40.80,"lon":-73.90},"selectable":true}
	]`
	req := httptest.NewRequest("POST", "/v1/sites/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var result struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Imported != 2 {
		t.Errorf("expected 2 imported, got %d", result.Imported)
	}
	if len(written) != 2 {
		t.Errorf("expected 2 sites written, got %d", len(written))
	}
}

func TestImportSites_EmptyBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/sites/import", strings.NewReader("[]"))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Viewport fit tests ----

func TestFitViewport_TwoPoints(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"points":[{"lat":40.70,"lon":-74.00},{"lat":40.80,"lon":-73.90}]}`
	req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view domain.Viewport
	json.NewDecoder(resp.Body).Decode(&view)
	if math.Abs(view.Center.Lat-40.75) > 1e-9 || math.Abs(view.Center.Lon-(-73.95)) > 1e-9 {
		t.Errorf("unexpected center: %+v", view.Center)
	}
	if math.Abs(view.SpanLat-0.13) > 1e-9 {
		t.Errorf("expected span_lat 0.13, got %v", view.SpanLat)
	}
}

func TestFitViewport_NoPointsReturnsDefault(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(`{"points":[]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view domain.Viewport
	json.NewDecoder(resp.Body).Decode(&view)
	def := viewport.DefaultRegion
	if view.Center != def.Center || view.SpanLat != def.SpanLat {
		t.Errorf("expected default region, got %+v", view)
	}
}

func TestFitViewport_ModeFramesSiteSet(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
				if mode != domain.SiteModeMine || user != "ops-1" {
					t.Errorf("expected mode mine for ops-1, got %s for %q", mode, user)
				}
				return []domain.Site{
					{ID: "s1", Location: domain.GeoPoint{Lat: 40.70, Lon: -74.00}},
					{ID: "s2", Location: domain.GeoPoint{Lat: 40.80, Lon: -73.90}},
				}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	body := `{"mode":"mine","user":"ops-1"}`
	req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var view domain.Viewport
	json.NewDecoder(resp.Body).Decode(&view)
	if math.Abs(view.Center.Lat-40.75) > 1e-9 || math.Abs(view.Center.Lon-(-73.95)) > 1e-9 {
		t.Errorf("unexpected center: %+v", view.Center)
	}
}

func TestFitViewport_UnknownModeRejected(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/viewport", strings.NewReader(`{"mode":"theirs"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Session listing tests ----

func TestListSessions_Empty(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sessions", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Count int `json:"count"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Count != 0 {
		t.Errorf("expected 0 sessions, got %d", result.Count)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/sessions/nope", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Gesture config tests ----

func TestGestureConfig_Defaults(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/config/gesture", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var cfg struct {
		DetectThreshold  float64 `json:"detect_threshold"`
		PanThreshold     float64 `json:"pan_threshold"`
		DismissThreshold float64 `json:"dismiss_threshold"`
		CooldownMS       int64   `json:"cooldown_ms"`
	}
	json.NewDecoder(resp.Body).Decode(&cfg)
	if cfg.DetectThreshold != 5 || cfg.PanThreshold != 15 {
		t.Errorf("unexpected thresholds: %+v", cfg)
	}
	if cfg.DismissThreshold != 120 {
		t.Errorf("expected dismiss threshold 120, got %v", cfg.DismissThreshold)
	}
	if cfg.CooldownMS != 300 {
		t.Errorf("expected cooldown 300ms, got %d", cfg.CooldownMS)
	}
}

// ---- Health handler tests ----

func TestHealth_Returns200(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	if result["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", result["status"])
	}
}

func TestReady_NoDB(t *testing.T) {
	deps := makeDeps()
	// DB, NATS, Cache are nil → should report not ready
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	// With nil DB, ready should return 503
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

// ---- Nearby sites Cache-Control header ----

func TestNearbySites_CacheControlHeader(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
				return []domain.Site{}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/nearby?lat=40.70&lon=-74.00", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cc := resp.Header.Get("Cache-Control")
	if cc != "public, max-age=300" {
		t.Errorf("expected Cache-Control header, got %q", cc)
	}
}

// ---- Deprecated alias ----

func TestNearbySites_DeprecatedAlias(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			findNearbyFn: func(ctx context.Context, lat, lon, radius float64, limit int) ([]domain.Site, error) {
				return []domain.Site{}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites/near?lat=40.70&lon=-74.00", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if d := resp.Header.Get("Deprecation"); d != "true" {
		t.Errorf("expected Deprecation header true, got %q", d)
	}
	if s := resp.Header.Get("Sunset"); s == "" {
		t.Error("expected Sunset header on deprecated route")
	}
	link := resp.Header.Get("Link")
	if !strings.Contains(link, "/v1/sites/nearby") {
		t.Errorf("expected Link header pointing at /v1/sites/nearby, got %q", link)
	}
}

// ---- X-API-Version header ----

func TestAPIVersionHeader(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	v := resp.Header.Get("X-API-Version")
	if v != "1.0.0" {
		t.Errorf("expected X-API-Version 1.0.0, got %q", v)
	}
}

// ---- Link header on pagination ----

func TestListSites_LinkHeader(t *testing.T) {
	sites := make([]domain.Site, 10)
	for i := range sites {
		sites[i] = domain.Site{ID: fmt.Sprintf("s%d", i), Name: fmt.Sprintf("Site %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
				return sites, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites?offset=0&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if link == "" {
		t.Fatal("expected Link header, got empty")
	}
	// Should contain rel="next"
	if !strings.Contains(link, `rel="next"`) {
		t.Errorf("expected next link, got %s", link)
	}
	if !strings.Contains(link, `rel="first"`) {
		t.Errorf("expected first link, got %s", link)
	}
	if !strings.Contains(link, `rel="last"`) {
		t.Errorf("expected last link, got %s", link)
	}
}

func TestListSites_LinkHeaderCarriesMode(t *testing.T) {
	sites := make([]domain.Site, 10)
	for i := range sites {
		sites[i] = domain.Site{ID: fmt.Sprintf("s%d", i), Name: fmt.Sprintf("Site %d", i)}
	}

	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			listFn: func(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
				return sites, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/sites?mode=mine&user=ops-1&offset=3&limit=3", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, "mode=mine") || !strings.Contains(link, "user=ops-1") {
		t.Errorf("expected links to carry mode and user, got %s", link)
	}
	if !strings.Contains(link, `rel="prev"`) {
		t.Errorf("expected prev link from offset 3, got %s", link)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_SiteQuery(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Sites = usecases.NewSiteService(&mockSiteRepo{
			getByIDFn: func(ctx context.Context, id string) (*domain.Site, error) {
				return &domain.Site{ID: id, Name: "Hudson Yards Plant", Selectable: true}, nil
			},
		}, nil, nil)
	})
	app := setupApp(deps)

	body := `{"query":"{ site(id: \"s1\") { id name selectable } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	raw := string(readBody(t, resp.Body))
	if !strings.Contains(raw, "Hudson Yards Plant") {
		t.Errorf("expected site name in response, got %s", raw)
	}
	if strings.Contains(raw, `"errors"`) {
		t.Errorf("unexpected graphql errors: %s", raw)
	}
}

// TestAccessLogMiddleware verifies structured access logging is emitted.
func TestAccessLogMiddleware(t *testing.T) {
	app := fiber.New()

	// Register middleware
	app.Use(handler.AccessLogMiddleware())

	// Simple test route
	app.Get("/test", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
	})

	// Make request
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", "test-req-123")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	// Verify response body
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "ok") {
		t.Errorf("expected response body to contain 'ok', got %s", string(body))
	}
}
