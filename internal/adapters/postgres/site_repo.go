package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/facilops/sitepane/internal/core/domain"
)

// SiteRepo implements ports.SiteRepository with pgx.
type SiteRepo struct {
	db *DB
}

// NewSiteRepo creates a new SiteRepo.
func NewSiteRepo(db *DB) *SiteRepo {
	return &SiteRepo{db: db}
}

// Upsert inserts or updates a single site.
func (r *SiteRepo) Upsert(ctx context.Context, s *domain.Site) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO sites (site_id, name, location, category, selectable, assigned_to, metadata)
		VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8)
		ON CONFLICT (site_id) DO UPDATE
		SET name = EXCLUDED.name, location = EXCLUDED.location,
		    category = EXCLUDED.category,
		    selectable = EXCLUDED.selectable,
		    assigned_to = EXCLUDED.assigned_to,
		    metadata = EXCLUDED.metadata
	`, s.SiteID, s.Name, s.Location.Lon, s.Location.Lat,
		s.Category, s.Selectable, s.AssignedTo, s.Metadata)
	return err
}

// UpsertBatch inserts many sites using pgx.Batch.
func (r *SiteRepo) UpsertBatch(ctx context.Context, sites []domain.Site) error {
	batch := &pgx.Batch{}
	for _, s := range sites {
		batch.Queue(`
			INSERT INTO sites (site_id, name, location, category, selectable, assigned_to, metadata)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3, $4), 4326)::geography, $5, $6, $7, $8)
			ON CONFLICT (site_id) DO UPDATE
			SET name = EXCLUDED.name, location = EXCLUDED.location,
			    category = EXCLUDED.category,
			    selectable = EXCLUDED.selectable,
			    assigned_to = EXCLUDED.assigned_to,
			    metadata = EXCLUDED.metadata
		`, s.SiteID, s.Name, s.Location.Lon, s.Location.Lat,
			s.Category, s.Selectable, s.AssignedTo, s.Metadata)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range sites {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// GetByID returns a site by UUID or external site_id.
func (r *SiteRepo) GetByID(ctx context.Context, id string) (*domain.Site, error) {
	var s domain.Site
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, site_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(category, ''), selectable,
		       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at
		FROM sites WHERE id::text = $1 OR site_id = $1
	`, id).Scan(
		&s.ID, &s.SiteID, &s.Name,
		&s.Location.Lat, &s.Location.Lon,
		&s.Category, &s.Selectable, &s.AssignedTo, &s.Metadata, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns sites for a display mode. Mode "mine" keeps only sites
// assigned to the given user.
func (r *SiteRepo) List(ctx context.Context, mode domain.SiteMode, user string, limit int) ([]domain.Site, error) {
	query := `
		SELECT id, site_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(category, ''), selectable,
		       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at
		FROM sites
		ORDER BY name
		LIMIT $1
	`
	args := []any{limit}
	if mode == domain.SiteModeMine {
		query = `
			SELECT id, site_id, name,
			       ST_Y(location::geometry) as lat,
			       ST_X(location::geometry) as lon,
			       COALESCE(category, ''), selectable,
			       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at
			FROM sites
			WHERE $1 = ANY(assigned_to)
			ORDER BY name
			LIMIT $2
		`
		args = []any{user, limit}
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSites(rows)
}

// FindNearby returns sites within radiusMeters using PostGIS ST_DWithin.
func (r *SiteRepo) FindNearby(ctx context.Context, lat, lon, radiusMeters float64, limit int) ([]domain.Site, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, site_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(category, ''), selectable,
		       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) as distance
		FROM sites
		WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance
		LIMIT $4
	`, lon, lat, radiusMeters, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var s domain.Site
		var dist float64
		if err := rows.Scan(
			&s.ID, &s.SiteID, &s.Name,
			&s.Location.Lat, &s.Location.Lon,
			&s.Category, &s.Selectable, &s.AssignedTo, &s.Metadata, &s.CreatedAt,
			&dist,
		); err != nil {
			return nil, err
		}
		s.Distance = &dist
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// Search performs fuzzy + full-text search on site names. When near is set
// the results carry their distance from it.
func (r *SiteRepo) Search(ctx context.Context, query string, near *domain.GeoPoint, limit int) ([]domain.Site, error) {
	if near != nil {
		return r.searchNear(ctx, query, *near, limit)
	}

	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, site_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(category, ''), selectable,
		       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at,
		       similarity(name, $1) as sim
		FROM sites
		WHERE name_vector @@ plainto_tsquery('english', $1)
		   OR name %> $1
		ORDER BY sim DESC
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var s domain.Site
		var sim float64
		if err := rows.Scan(
			&s.ID, &s.SiteID, &s.Name,
			&s.Location.Lat, &s.Location.Lon,
			&s.Category, &s.Selectable, &s.AssignedTo, &s.Metadata, &s.CreatedAt,
			&sim,
		); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

func (r *SiteRepo) searchNear(ctx context.Context, query string, near domain.GeoPoint, limit int) ([]domain.Site, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, site_id, name,
		       ST_Y(location::geometry) as lat,
		       ST_X(location::geometry) as lon,
		       COALESCE(category, ''), selectable,
		       COALESCE(assigned_to, '{}'), COALESCE(metadata, '{}'), created_at,
		       similarity(name, $1) as sim,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography) as distance
		FROM sites
		WHERE name_vector @@ plainto_tsquery('english', $1)
		   OR name %> $1
		ORDER BY sim DESC
		LIMIT $4
	`, query, near.Lon, near.Lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []domain.Site
	for rows.Next() {
		var s domain.Site
		var sim, dist float64
		if err := rows.Scan(
			&s.ID, &s.SiteID, &s.Name,
			&s.Location.Lat, &s.Location.Lon,
			&s.Category, &s.Selectable, &s.AssignedTo, &s.Metadata, &s.CreatedAt,
			&sim, &dist,
		); err != nil {
			return nil, err
		}
		s.Distance = &dist
		sites = append(sites, s)
	}
	return sites, rows.Err()
}

// Count returns the number of sites in the inventory.
func (r *SiteRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM sites`).Scan(&n)
	return n, err
}

func scanSites(rows pgx.Rows) ([]domain.Site, error) {
	var sites []domain.Site
	for rows.Next() {
		var s domain.Site
		if err := rows.Scan(
			&s.ID, &s.SiteID, &s.Name,
			&s.Location.Lat, &s.Location.Lon,
			&s.Category, &s.Selectable, &s.AssignedTo, &s.Metadata, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		sites = append(sites, s)
	}
	return sites, rows.Err()
}
