//go:build e2e

package booking_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"booking-engine/internal/domain/user"
	reqdto "booking-engine/internal/handler/dto/request"
	"booking-engine/internal/handler/dto/response"
	"booking-engine/internal/usecase/shared"
	"booking-engine/tests/common/authtest"
	"booking-engine/tests/common/dbtest"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	bookingsURL   = "/api/bookings"
	bookingURL    = "/api/bookings/%s"
	transitionURL = "/api/bookings/%s/transitions"
	paymentURL    = "/api/bookings/%s/payment-status"
	scheduleURL   = "/api/resources/%s/schedule?date=%s&granularity=%d"
)

type BookingSuite struct {
	e2e.SharedSuite
	staffToken    string
	customerToken string
}

func (s *BookingSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	jwtHelper := authtest.NewJWTHelper(s.Config.JWT)
	s.staffToken = jwtHelper.GenerateToken(s.T(), uuid.New(), user.RoleStaff)
	s.customerToken = jwtHelper.GenerateToken(s.T(), dbtest.CustomerID, user.RoleCustomer)
}

func (s *BookingSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestBookingSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(BookingSuite))
}

// slotOn returns hh:mm UTC two days from now, inside the seeded 09:00-18:00 window.
func slotOn(hour, minute int) time.Time {
	d := time.Now().UTC().AddDate(0, 0, 2)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func createReq(start time.Time, confirm bool) reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		CustomerID:     dbtest.CustomerID,
		ServiceID:      dbtest.ServiceID,
		ScheduledStart: start,
		Notes:          "window seat",
		Confirm:        confirm,
	}
}

func (s *BookingSuite) create(t *testing.T, start time.Time, token string, confirm bool) response.BookingResponse {
	t.Helper()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createReq(start, confirm), token)
	var out response.BookingResponse
	httptest.AssertSuccessResponse(t, w, http.StatusCreated, &out)
	return out
}

// =============================================================================
// TestCreateBooking
// =============================================================================

func (s *BookingSuite) TestCreateBooking() {
	s.Run("Normal case: customer books a pending slot and a notification job is queued", func() {
		t := s.T()
		start := slotOn(10, 0)

		got := s.create(t, start, s.customerToken, false)

		want := response.BookingResponse{
			ResourceID: dbtest.ResourceID,
			Customer: response.CustomerResponse{
				ID:    dbtest.CustomerID,
				Name:  "Hana Sato",
				Email: "hana.sato@example.com",
				Phone: "+81-90-1234-5678",
			},
			Service: response.ServiceResponse{
				ID:              dbtest.ServiceID,
				Name:            "Haircut",
				DurationMinutes: dbtest.ServiceDurationMin,
				PriceCents:      dbtest.ServicePriceCents,
				Category:        "hair",
			},
			ScheduledStart:   start,
			ScheduledEnd:     start.Add(time.Hour),
			Status:           "pending",
			TotalAmountCents: dbtest.ServicePriceCents,
			PaymentStatus:    "pending",
			Notes:            "window seat",
		}
		opts := cmp.Options{
			cmpopts.IgnoreFields(response.BookingResponse{}, "ID", "CreatedAt", "UpdatedAt"),
			cmpopts.EquateApproxTime(time.Millisecond),
		}
		if diff := cmp.Diff(want, got, opts...); diff != "" {
			t.Fatalf("created booking mismatch (-want +got):\n%s", diff)
		}
		require.Equal(t, 1, dbtest.CountNotificationJobs(t, s.DB, shared.TopicBookingPending))
	})

	s.Run("Normal case: staff creates directly confirmed and no notification is queued", func() {
		t := s.T()
		got := s.create(t, slotOn(11, 0), s.staffToken, true)
		require.Equal(t, "confirmed", got.Status)
		require.Equal(t, 0, dbtest.CountNotificationJobs(t, s.DB, shared.TopicBookingPending))
	})

	s.Run("Normal case: touching slots do not conflict", func() {
		t := s.T()
		s.create(t, slotOn(10, 0), s.staffToken, false)
		s.create(t, slotOn(11, 0), s.staffToken, false)
		require.Equal(t, 2, dbtest.CountActiveBookings(t, s.DB, dbtest.ResourceID))
	})

	s.Run("Error case: overlapping slot returns 409", func() {
		t := s.T()
		s.create(t, slotOn(10, 0), s.staffToken, false)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createReq(slotOn(10, 30), false), s.staffToken)
		httptest.AssertErrorResponse(t, w, http.StatusConflict, "This time is no longer available")
	})

	s.Run("Error case: outside operating hours returns 400", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createReq(slotOn(17, 30), false), s.staffToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid request")
	})

	s.Run("Error case: customer cannot book for someone else", func() {
		t := s.T()
		req := createReq(slotOn(12, 0), false)
		req.CustomerID = dbtest.OtherCustomerID
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, req, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "")
	})

	s.Run("Error case: unauthenticated returns 401", func() {
		t := s.T()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createReq(slotOn(12, 0), false), "")
		httptest.AssertErrorResponse(t, w, http.StatusUnauthorized, "Access token required")
	})

	s.Run("Concurrency: simultaneous creates for one slot admit exactly one", func() {
		t := s.T()
		const n = 10
		codes := make([]int, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Add(1)
			go func() {
				defer wg.Done()
				w := httptest.PerformRequest(t, s.Router, http.MethodPost, bookingsURL, createReq(slotOn(14, 0), false), s.staffToken)
				codes[i] = w.Code
			}()
		}
		wg.Wait()

		created := 0
		for _, c := range codes {
			if c == http.StatusCreated {
				created++
				continue
			}
			require.Equal(t, http.StatusConflict, c)
		}
		require.Equal(t, 1, created)
		require.Equal(t, 1, dbtest.CountActiveBookings(t, s.DB, dbtest.ResourceID))
	})
}

// =============================================================================
// TestTransitionBooking
// =============================================================================

func (s *BookingSuite) TestTransitionBooking() {
	transition := func(t *testing.T, id uuid.UUID, body map[string]any, token string) (int, response.BookingResponse) {
		t.Helper()
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(transitionURL, id), body, token)
		var out response.BookingResponse
		if w.Code == http.StatusOK {
			require.NoError(t, httptest.DecodeResponseBody(t, w.Body, &out))
		}
		return w.Code, out
	}

	s.Run("Normal case: full lifecycle to completed", func() {
		t := s.T()
		b := s.create(t, slotOn(10, 0), s.staffToken, false)

		for _, st := range []string{"confirmed", "in_progress", "completed"} {
			code, out := transition(t, b.ID, map[string]any{"status": st}, s.staffToken)
			require.Equal(t, http.StatusOK, code, st)
			require.Equal(t, st, out.Status)
		}

		code, _ := transition(t, b.ID, map[string]any{"status": "cancelled", "reason": "late"}, s.staffToken)
		require.Equal(t, http.StatusConflict, code, "completed is terminal")
	})

	s.Run("Normal case: customer cancels own booking with a reason and frees the slot", func() {
		t := s.T()
		b := s.create(t, slotOn(10, 0), s.customerToken, false)

		code, _ := transition(t, b.ID, map[string]any{"status": "cancelled"}, s.customerToken)
		require.Equal(t, http.StatusUnprocessableEntity, code)

		code, out := transition(t, b.ID, map[string]any{"status": "cancelled", "reason": "  sick  "}, s.customerToken)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "sick", out.CancellationReason)

		s.create(t, slotOn(10, 0), s.staffToken, false)
	})

	s.Run("Error case: customer cannot confirm", func() {
		t := s.T()
		b := s.create(t, slotOn(10, 0), s.customerToken, false)
		code, _ := transition(t, b.ID, map[string]any{"status": "confirmed"}, s.customerToken)
		require.Equal(t, http.StatusForbidden, code)
	})

	s.Run("Error case: unknown booking returns 404", func() {
		t := s.T()
		code, _ := transition(t, uuid.New(), map[string]any{"status": "confirmed"}, s.staffToken)
		require.Equal(t, http.StatusNotFound, code)
	})

	s.Run("Concurrency: confirming two overlapping legacy pendings keeps at most one active", func() {
		t := s.T()
		// Two pendings can only overlap if they were written before the lock existed.
		first := uuid.New()
		second := uuid.New()
		insertRawPending(t, s, first, slotOn(15, 0))
		insertRawPending(t, s, second, slotOn(15, 30))

		var wg sync.WaitGroup
		codes := make([]int, 2)
		for i, id := range []uuid.UUID{first, second} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				codes[i], _ = transition(t, id, map[string]any{"status": "confirmed"}, s.staffToken)
			}()
		}
		wg.Wait()

		require.ElementsMatch(t, []int{http.StatusConflict, http.StatusConflict}, codes,
			"each pending blocks the other, so neither confirm may win")
	})
}

func insertRawPending(t *testing.T, s *BookingSuite, id uuid.UUID, start time.Time) {
	t.Helper()
	_, err := s.DB.Exec(context.Background(), `
		INSERT INTO bookings (id, resource_id, customer_id, customer_name, customer_email, service_id,
		    service_name, service_duration_min, service_price_cents, scheduled_start, status, total_amount_cents)
		VALUES ($1, $2, $3, 'Hana Sato', 'hana.sato@example.com', $4, 'Haircut', $5, $6, $7, 'pending', $6)`,
		id, dbtest.ResourceID, dbtest.CustomerID, dbtest.ServiceID, dbtest.ServiceDurationMin, dbtest.ServicePriceCents, start)
	require.NoError(t, err)
}

// =============================================================================
// TestQueries
// =============================================================================

func (s *BookingSuite) TestQueries() {
	s.Run("Normal case: schedule grid places bookings in every bucket they touch", func() {
		t := s.T()
		s.create(t, slotOn(10, 30), s.staffToken, true)
		cancelled := s.create(t, slotOn(13, 0), s.staffToken, false)
		w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(transitionURL, cancelled.ID),
			map[string]any{"status": "cancelled", "reason": "moved"}, s.staffToken)
		require.Equal(t, http.StatusOK, w.Code)

		day := slotOn(0, 0).Format(time.DateOnly)
		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(scheduleURL, dbtest.ResourceID, day, 60), nil, s.staffToken)
		var grid response.ScheduleResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &grid)

		require.Len(t, grid.Slots, 9)
		counts := make([]int, len(grid.Slots))
		for i, slot := range grid.Slots {
			counts[i] = len(slot.Bookings)
		}
		require.Equal(t, []int{0, 1, 1, 0, 0, 0, 0, 0, 0}, counts)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(scheduleURL, dbtest.ResourceID, day, 7), nil, s.staffToken)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "")
	})

	s.Run("Normal case: list filters and stats", func() {
		t := s.T()
		a := s.create(t, slotOn(9, 0), s.staffToken, true)
		s.create(t, slotOn(11, 0), s.staffToken, false)
		for _, st := range []string{"in_progress", "completed"} {
			w := httptest.PerformRequest(t, s.Router, http.MethodPost, fmt.Sprintf(transitionURL, a.ID), map[string]any{"status": st}, s.staffToken)
			require.Equal(t, http.StatusOK, w.Code)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?search=HANA", nil, s.staffToken)
		var list response.BookingListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Len(t, list.Bookings, 2)
		require.Equal(t, 2, list.Stats.Total)
		require.Equal(t, 1, list.Stats.CountByStatus["completed"])
		require.Equal(t, 1, list.Stats.CountByStatus["pending"])
		require.Equal(t, 0, list.Stats.CountByStatus["no_show"])
		require.Equal(t, int64(dbtest.ServicePriceCents), list.Stats.RevenueOfCompletedCents)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL+"?status=completed&limit=1", nil, s.staffToken)
		list = response.BookingListResponse{}
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &list)
		require.Len(t, list.Bookings, 1)
		require.Equal(t, a.ID, list.Bookings[0].ID)
		require.Empty(t, list.NextCursor)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, bookingsURL, nil, s.customerToken)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "")
	})

	s.Run("Normal case: get booking and record payment", func() {
		t := s.T()
		b := s.create(t, slotOn(10, 0), s.customerToken, false)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(bookingURL, b.ID), nil, s.customerToken)
		httptest.AssertSuccessResponse(t, w, http.StatusOK, nil)

		w = httptest.PerformRequest(t, s.Router, http.MethodPut, fmt.Sprintf(paymentURL, b.ID), map[string]any{"status": "paid"}, s.staffToken)
		var out response.BookingResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &out)
		require.Equal(t, "paid", out.PaymentStatus)
		require.Equal(t, "pending", out.Status)
	})
}
