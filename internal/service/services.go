package service

import (
	"log/slog"

	"github.com/kirinyoku/tix-bff/internal/clock"
	"github.com/kirinyoku/tix-bff/internal/identity"
	"github.com/kirinyoku/tix-bff/internal/inventory"
	postgresrepo "github.com/kirinyoku/tix-bff/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tix-bff/internal/repository/redis"
	"github.com/kirinyoku/tix-bff/internal/service/booking"
	"github.com/kirinyoku/tix-bff/internal/service/catalog"
	"github.com/kirinyoku/tix-bff/internal/service/history"
	"github.com/kirinyoku/tix-bff/internal/service/journal"
)

type Services struct {
	Catalog  *catalog.Service
	Booking  *booking.Submitter
	History  *history.Service
	Journal  *journal.Service
	Identity *identity.Verifier
}

type Config struct {
	Catalog   catalog.Config
	JWTSecret string
}

func NewServices(
	inv *inventory.Client,
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.EventsPubSub,
	clk clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Services {
	cat := catalog.New(inv, cache, cfg.Catalog, logger)
	jrn := journal.New(store, pubsub, clk, logger)

	return &Services{
		Catalog:  cat,
		Booking:  booking.New(inv, cat, jrn, logger),
		History:  history.New(inv, clk, logger),
		Journal:  jrn,
		Identity: identity.NewVerifier(cfg.JWTSecret),
	}
}
