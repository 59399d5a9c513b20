package components

import (
	"log/slog"

	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/infra/readstore"
	"booking-engine/internal/infra/repository"
	"booking-engine/internal/infra/uow"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/outbox"
	"booking-engine/internal/usecase/queries"
	"booking-engine/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
	),
)

// Persistence is every store port the usecases need, backed by one storage choice.
type Persistence struct {
	fx.Out

	UnitOfWork shared.UnitOfWork
	Bookings   queries.BookingReadStore
	Resources  queries.ResourceReadStore
	Outbox     outbox.Store
}

func NewPersistence(cfg config.Config, pool *pgxpool.Pool, locker shared.ResourceLocker, clk clock.Clock, logger *slog.Logger) (Persistence, error) {
	switch cfg.Booking.Store {
	case config.StoreMemory:
		store := memstore.NewStore(clk)
		if err := memstore.SeedDemo(store); err != nil {
			return Persistence{}, errs.Wrap(err, "seed memory store")
		}
		logger.Info("in-memory booking store seeded",
			"resource_id", memstore.DemoResourceID.String(),
			"customer_id", memstore.DemoCustomerID.String(),
			"service_id", memstore.DemoServiceID.String())
		return Persistence{
			UnitOfWork: store,
			Bookings:   store.Bookings(),
			Resources:  store.Resources(),
			Outbox:     store.Outbox(),
		}, nil
	default:
		if pool == nil {
			return Persistence{}, errs.New("postgres store selected without a database pool")
		}
		return Persistence{
			UnitOfWork: uow.NewPostgresUoW(pool, locker),
			Bookings:   readstore.NewBookingReadStore(pool),
			Resources:  readstore.NewResourceReadStore(pool),
			Outbox:     repository.NewOutboxRepository(pool),
		}, nil
	}
}
