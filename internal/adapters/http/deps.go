package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/questline/internal/adapters/postgres"
	"github.com/samirrijal/questline/internal/adapters/valkey"
	"github.com/samirrijal/questline/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Progression *usecases.ProgressionService
	Profiles    *usecases.ProfileService
	Shop        *usecases.ShopService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
