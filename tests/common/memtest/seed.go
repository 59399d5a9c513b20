//go:build unit || e2e

package memtest

import (
	"testing"

	"booking-engine/internal/domain/resource"
	"booking-engine/internal/infra/memstore"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Catalog is the reference data seeded into a fresh store.
type Catalog struct {
	Resource *resource.Resource
	Customer shared.CustomerSnapshot
	Other    shared.CustomerSnapshot
	Service  shared.ServiceSnapshot
}

// NewSeededStore returns a store with one UTC resource open 09:00-18:00, two
// customers and a 60 minute service, and a mock clock at builder.BaseTime.
func NewSeededStore(t *testing.T) (*memstore.Store, *clock.MockClock, Catalog) {
	t.Helper()

	clk := clock.NewMockClock(builder.BaseTime)
	store := memstore.NewStore(clk)

	res, err := resource.NewResource(uuid.New(), "Chair 1", "UTC",
		resource.OperatingWindow{OpensAt: 9 * 60, ClosesAt: 18 * 60}, 0)
	require.NoError(t, err)

	cat := Catalog{
		Resource: res,
		Customer: shared.CustomerSnapshot{
			ID:    uuid.New(),
			Name:  "Hana Sato",
			Email: "hana.sato@example.com",
			Phone: "+81-90-1234-5678",
		},
		Other: shared.CustomerSnapshot{
			ID:    uuid.New(),
			Name:  "Ken Ito",
			Email: "ken.ito@example.com",
		},
		Service: shared.ServiceSnapshot{
			ID:              uuid.New(),
			ResourceID:      res.ID(),
			Name:            "Haircut",
			DurationMinutes: 60,
			PriceCents:      4500,
			Category:        "hair",
		},
	}

	store.PutResource(res)
	store.PutCustomer(cat.Customer)
	store.PutCustomer(cat.Other)
	store.PutService(cat.Service)
	return store, clk, cat
}
