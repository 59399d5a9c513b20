package response

import (
	"time"

	"booking-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

type ScheduleBookingResponse struct {
	ID             uuid.UUID `json:"id"`
	Status         string    `json:"status"`
	CustomerName   string    `json:"customerName"`
	ServiceName    string    `json:"serviceName"`
	ScheduledStart time.Time `json:"scheduledStart"`
	ScheduledEnd   time.Time `json:"scheduledEnd"`
}

type SlotResponse struct {
	SlotStart time.Time                 `json:"slotStart"`
	SlotEnd   time.Time                 `json:"slotEnd"`
	Bookings  []ScheduleBookingResponse `json:"bookings"`
}

type ScheduleResponse struct {
	ResourceID         uuid.UUID      `json:"resourceId"`
	Date               string         `json:"date"`
	GranularityMinutes int            `json:"granularityMinutes"`
	WindowStart        time.Time      `json:"windowStart"`
	WindowEnd          time.Time      `json:"windowEnd"`
	Slots              []SlotResponse `json:"slots"`
}

func FromGrid(g *schedule.Grid) *ScheduleResponse {
	slots := make([]SlotResponse, len(g.Buckets))
	for i, bucket := range g.Buckets {
		items := make([]ScheduleBookingResponse, len(bucket.Bookings))
		for j, b := range bucket.Bookings {
			items[j] = ScheduleBookingResponse{
				ID:             b.ID(),
				Status:         b.Status().String(),
				CustomerName:   b.Customer().Name,
				ServiceName:    b.Service().Name,
				ScheduledStart: b.ScheduledStart(),
				ScheduledEnd:   b.ScheduledEnd(),
			}
		}
		slots[i] = SlotResponse{SlotStart: bucket.Start, SlotEnd: bucket.End, Bookings: items}
	}
	return &ScheduleResponse{
		ResourceID:         g.ResourceID,
		Date:               g.Date.Format(time.DateOnly),
		GranularityMinutes: int(g.Granularity / time.Minute),
		WindowStart:        g.WindowStart,
		WindowEnd:          g.WindowEnd,
		Slots:              slots,
	}
}
