// Package viewport computes camera regions framing sets of map points.
package viewport

import (
	"math"

	"github.com/facilops/sitepane/internal/core/domain"
	"github.com/facilops/sitepane/internal/pkg/geospatial"
)

const (
	// DefaultPaddingFactor widens the fitted span 30% so edge points are
	// not flush against the frame.
	DefaultPaddingFactor = 1.3
	// DefaultMinSpan floors the span per axis so coincident points cannot
	// produce a zero-size region.
	DefaultMinSpan = 0.01
)

// DefaultRegion frames lower Manhattan. It is the fallback whenever no
// usable point exists, never a derived value.
var DefaultRegion = domain.Viewport{
	Center:  domain.GeoPoint{Lat: 40.7128, Lon: -74.0060},
	SpanLat: 0.25,
	SpanLon: 0.25,
}

// Config controls region fitting.
type Config struct {
	PaddingFactor float64
	MinSpan       float64
	// Default is the region returned when no usable point exists.
	Default domain.Viewport
}

// DefaultConfig returns the production fit settings.
func DefaultConfig() Config {
	return Config{
		PaddingFactor: DefaultPaddingFactor,
		MinSpan:       DefaultMinSpan,
		Default:       DefaultRegion,
	}
}

// Normalize replaces unusable field values with the defaults.
func (c Config) Normalize() Config {
	if c.PaddingFactor < 1 {
		c.PaddingFactor = DefaultPaddingFactor
	}
	if c.MinSpan <= 0 {
		c.MinSpan = DefaultMinSpan
	}
	if !c.Default.Center.Valid() || c.Default.SpanLat <= 0 || c.Default.SpanLon <= 0 {
		c.Default = DefaultRegion
	}
	return c
}

// Fitter computes camera regions. It is stateless: the same input always
// yields the same region, and it is safe to call from any goroutine.
type Fitter struct {
	cfg Config
}

// NewFitter returns a fitter using cfg with unusable values defaulted.
func NewFitter(cfg Config) Fitter {
	return Fitter{cfg: cfg.Normalize()}
}

// Fit frames the given points in one O(n) pass. Invalid coordinates are
// skipped; when nothing usable remains the default region is returned.
func (f Fitter) Fit(points []domain.GeoPoint) domain.Viewport {
	return f.FitAround(points, nil)
}

// FitAround frames the points plus an optional bias target. The target
// participates in the min/max pass like any other point, pulling the frame
// toward it without recentering on it.
func (f Fitter) FitAround(points []domain.GeoPoint, focus *domain.GeoPoint) domain.Viewport {
	minLat, maxLat := math.Inf(1), math.Inf(-1)
	minLon, maxLon := math.Inf(1), math.Inf(-1)
	usable := 0

	fold := func(p domain.GeoPoint) {
		if !p.Valid() {
			return
		}
		usable++
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLon = math.Min(minLon, p.Lon)
		maxLon = math.Max(maxLon, p.Lon)
	}

	for _, p := range points {
		fold(p)
	}
	if focus != nil {
		fold(*focus)
	}

	if usable == 0 {
		return f.cfg.Default
	}

	return domain.Viewport{
		Center: domain.GeoPoint{
			Lat: (minLat + maxLat) / 2,
			Lon: (minLon + maxLon) / 2,
		},
		SpanLat: math.Max((maxLat-minLat)*f.cfg.PaddingFactor, f.cfg.MinSpan),
		SpanLon: math.Max((maxLon-minLon)*f.cfg.PaddingFactor, f.cfg.MinSpan),
	}
}

// FitSites frames the locations of the given sites.
func (f Fitter) FitSites(sites []domain.Site, focus *domain.GeoPoint) domain.Viewport {
	points := make([]domain.GeoPoint, 0, len(sites))
	for _, s := range sites {
		points = append(points, s.Location)
	}
	return f.FitAround(points, focus)
}

// FocusRegion frames a circle of radiusMeters around a single point, for
// callers that have a position but no sites to frame yet.
func (f Fitter) FocusRegion(focus domain.GeoPoint, radiusMeters float64) domain.Viewport {
	if !focus.Valid() || radiusMeters <= 0 {
		return f.cfg.Default
	}
	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(focus.Lat, focus.Lon, radiusMeters)
	return domain.Viewport{
		Center:  focus,
		SpanLat: math.Max(maxLat-minLat, f.cfg.MinSpan),
		SpanLon: math.Max(maxLon-minLon, f.cfg.MinSpan),
	}
}
