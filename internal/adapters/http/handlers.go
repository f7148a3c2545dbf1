package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/facilops/sitepane/internal/core/domain"
)

// OverlayStats holds inventory and session counts for the stats endpoint.
type OverlayStats struct {
	Sites       int    `json:"sites"`
	Selectable  int    `json:"selectable"`
	Sessions    int    `json:"sessions"`
	LastImport  string `json:"last_import,omitempty"`
	ServiceName string `json:"service"`
}

// OverlayStatsHandler returns row counts from the site inventory plus the
// number of live overlay sessions on this instance.
func OverlayStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errUnavailable(c, "database not available")
		}

		stats := OverlayStats{ServiceName: "sitepane"}
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM sites),
				(SELECT count(*) FROM sites WHERE selectable),
				COALESCE((SELECT max(created_at)::text FROM sites), '')
		`)
		if err := row.Scan(&stats.Sites, &stats.Selectable, &stats.LastImport); err != nil {
			return errInternal(c, err.Error())
		}
		if deps.Overlay != nil {
			stats.Sessions = deps.Overlay.Count()
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// ListSitesHandler returns the site inventory for one display mode.
func ListSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mode := domain.SiteMode(c.Query("mode", string(domain.SiteModeAll)))
		user := c.Query("user")

		sites, err := deps.Sites.List(c.Context(), mode, user, 0)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		// Apply offset/limit pagination on the full list
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 100)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 500 {
			limit = 100
		}

		total := len(sites)
		if offset >= total {
			sites = nil
		} else {
			end := offset + limit
			if end > total {
				end = total
			}
			sites = sites[offset:end]
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: sites, Pagination: pg})
	}
}

// NearbySitesHandler returns sites within a radius of a point.
func NearbySitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radius := c.QueryFloat("radius", 500)
		limit := c.QueryInt("limit", 50)

		if lat == 0 || lon == 0 {
			return errBadRequest(c, "lat and lon are required")
		}
		if radius <= 0 || radius > 50000 {
			return errBadRequest(c, "radius must be between 1 and 50000 meters")
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		sites, err := deps.Sites.FindNearby(c.Context(), lat, lon, radius, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(sites)
	}
}

// SearchSitesHandler performs fuzzy search on site names.
func SearchSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", 20)
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		// Optional reference point for distance-annotated results
		var near *domain.GeoPoint
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		if lat != 0 && lon != 0 {
			near = &domain.GeoPoint{Lat: lat, Lon: lon}
		}

		sites, err := deps.Sites.Search(c.Context(), query, near, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		return c.JSON(sites)
	}
}

// GetSiteHandler returns a single site by ID.
func GetSiteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "site id is required")
		}
		site, err := deps.Sites.GetByID(c.Context(), id)
		if err != nil {
			return errNotFound(c, "site not found")
		}
		return c.JSON(site)
	}
}

// ImportSitesHandler ingests a batch of sites into the inventory.
// POST /v1/sites/import with a JSON array of sites.
func ImportSitesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sites []domain.Site
		if err := c.BodyParser(&sites); err != nil {
			return errBadRequest(c, "invalid request body: expected JSON array of sites")
		}
		if len(sites) == 0 {
			return errBadRequest(c, "at least one site is required")
		}
		if len(sites) > 5000 {
			return errBadRequest(c, "maximum 5000 sites per import")
		}

		imported, skipped, err := deps.Sites.Import(c.Context(), sites, "api")
		if err != nil {
			return errInternal(c, err.Error())
		}

		LoggerFromCtx(c.UserContext()).Info("sites imported", "imported", imported, "skipped", skipped)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"imported": imported,
			"skipped":  skipped,
		})
	}
}

// viewportRequest is the body of the stateless fit endpoint. Either an
// explicit point set or a display mode is given; mode wins when both appear.
type viewportRequest struct {
	Points []domain.GeoPoint `json:"points"`
	Focus  *domain.GeoPoint  `json:"focus,omitempty"`
	Mode   string            `json:"mode,omitempty"`
	User   string            `json:"user,omitempty"`
}

// FitViewportHandler computes the camera region framing a point set. Clients
// use it to prime the camera before a session opens: with explicit points, or
// with a display mode whose site inventory is framed server-side. Invalid
// points are skipped and an empty set yields the default region.
func FitViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req viewportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		if req.Mode != "" {
			sites, err := deps.Sites.List(c.Context(), domain.SiteMode(req.Mode), req.User, 0)
			if err != nil {
				return errBadRequest(c, err.Error())
			}
			return c.JSON(deps.Fitter.FitSites(sites, req.Focus))
		}

		view := deps.Fitter.FitAround(req.Points, req.Focus)
		return c.JSON(view)
	}
}

// ListSessionsHandler lists the live overlay sessions on this instance.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions := deps.Overlay.Sessions()
		return c.JSON(fiber.Map{
			"sessions": sessions,
			"count":    len(sessions),
		})
	}
}

// GetSessionHandler returns the snapshot of one live session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "session id is required")
		}
		s, ok := deps.Overlay.Session(id)
		if !ok {
			return errNotFound(c, "session not found")
		}
		return c.JSON(s.Info())
	}
}

// GestureConfigHandler exposes the interaction thresholds so clients render
// drag feedback with the same numbers the server classifies with.
func GestureConfigHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg := deps.Gesture
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{
			"detect_threshold":  cfg.DetectThreshold,
			"pan_threshold":     cfg.PanThreshold,
			"vertical_bias":     cfg.VerticalBias,
			"dismiss_threshold": cfg.DismissThreshold,
			"flick_velocity":    cfg.FlickVelocity,
			"cooldown_ms":       cfg.Cooldown.Milliseconds(),
			"watchdog_ms":       cfg.Watchdog.Milliseconds(),
			"grace_ms":          cfg.Grace.Milliseconds(),
		})
	}
}
