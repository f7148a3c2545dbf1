package http

import (
	"github.com/nats-io/nats.go"

	"github.com/facilops/sitepane/internal/adapters/postgres"
	"github.com/facilops/sitepane/internal/adapters/valkey"
	"github.com/facilops/sitepane/internal/core/gesture"
	"github.com/facilops/sitepane/internal/core/usecases"
	"github.com/facilops/sitepane/internal/core/viewport"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Sites   *usecases.SiteService
	Overlay *usecases.OverlayService
	Gesture gesture.Config
	Fitter  viewport.Fitter
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache
}
