package domain

import "math"

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point is finite and inside WGS 84 range.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Viewport is a camera region: a center point plus the visible span on each axis.
type Viewport struct {
	Center  GeoPoint `json:"center"`
	SpanLat float64  `json:"span_lat"`
	SpanLon float64  `json:"span_lon"`
}

// Bounds returns the box covered by the viewport.
func (v Viewport) Bounds() Bounds {
	return Bounds{
		MinLat: v.Center.Lat - v.SpanLat/2,
		MinLon: v.Center.Lon - v.SpanLon/2,
		MaxLat: v.Center.Lat + v.SpanLat/2,
		MaxLon: v.Center.Lon + v.SpanLon/2,
	}
}

// Contains reports whether p lies inside the viewport.
func (v Viewport) Contains(p GeoPoint) bool {
	b := v.Bounds()
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lon >= b.MinLon && p.Lon <= b.MaxLon
}
