package memstore

import (
	"booking-engine/internal/domain/resource"
	"booking-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

// Fixed ids of the demo catalog so local clients can book without setup.
var (
	DemoResourceID = uuid.MustParse("6f1c2a8e-3d4b-4c59-9a71-0b2e5d8c4f10")
	DemoCustomerID = uuid.MustParse("2a7d9e14-58b3-4f06-a1c2-9e8b7d6f5a40")
	DemoServiceID  = uuid.MustParse("c4e8b1f2-7a93-4d65-b0e1-3f2a9c8d7e50")
)

// SeedDemo adds one resource open 09:00-18:00 in Asia/Tokyo, one customer and one 60 minute service.
func SeedDemo(s *Store) error {
	res, err := resource.NewResource(DemoResourceID, "Chair 1", "Asia/Tokyo",
		resource.OperatingWindow{OpensAt: 9 * 60, ClosesAt: 18 * 60}, 60)
	if err != nil {
		return err
	}
	s.PutResource(res)
	s.PutCustomer(shared.CustomerSnapshot{
		ID:    DemoCustomerID,
		Name:  "Demo Customer",
		Email: "demo@example.com",
	})
	s.PutService(shared.ServiceSnapshot{
		ID:              DemoServiceID,
		ResourceID:      DemoResourceID,
		Name:            "Haircut",
		DurationMinutes: 60,
		PriceCents:      4500,
		Category:        "hair",
	})
	return nil
}
