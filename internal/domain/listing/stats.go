package listing

import "booking-engine/internal/domain/booking"

type Stats struct {
	Total              int
	CountByStatus      map[booking.Status]int
	RevenueOfCompleted booking.Money
}

// ComputeStats counts every status, zeros included, and sums the total amount
// of completed bookings.
func ComputeStats(bookings []*booking.Booking) Stats {
	counts := make(map[booking.Status]int, len(booking.AllStatuses()))
	for _, s := range booking.AllStatuses() {
		counts[s] = 0
	}

	var revenue booking.Money
	for _, b := range bookings {
		counts[b.Status()]++
		if b.Status() == booking.StatusCompleted {
			revenue = revenue.Add(b.TotalAmount())
		}
	}

	return Stats{
		Total:              len(bookings),
		CountByStatus:      counts,
		RevenueOfCompleted: revenue,
	}
}
