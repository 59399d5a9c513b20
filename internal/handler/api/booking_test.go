//go:build unit

package api_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/domain/listing"
	"booking-engine/internal/domain/user"
	"booking-engine/internal/handler/api"
	resdto "booking-engine/internal/handler/dto/response"
	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/pkg/errs"
	"booking-engine/internal/usecase/commands"
	"booking-engine/internal/usecase/queries"
	"booking-engine/tests/common/builder"
	"booking-engine/tests/common/httptest"
	"booking-engine/tests/common/testutil"
	commandsmock "booking-engine/tests/mock/commands"
	queriesmock "booking-engine/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const (
	staffToken    = "staff-token"
	customerToken = "customer-token"
)

type BookingHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockBookingCommands
	mockQueries  *queriesmock.MockBookingQueries
	handler      *api.BookingHandler
	actorID      uuid.UUID
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockBookingCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockBookingQueries(s.mockCtrl)
	s.handler = api.NewBookingHandler(s.mockCommands, s.mockQueries)
	s.actorID = uuid.New()

	// Mock authentication middleware: the token picks the role
	authMiddleware := func(c *gin.Context) {
		role := user.RoleStaff
		switch c.GetHeader("Authorization") {
		case "":
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		case "Bearer " + customerToken:
			role = user.RoleCustomer
		}
		c.Set("user_id", s.actorID)
		c.Set("user_role", role)
		c.Next()
	}

	s.router.POST("/bookings", authMiddleware, s.handler.Create)
	s.router.GET("/bookings", authMiddleware, s.handler.List)
	s.router.GET("/bookings/:id", authMiddleware, s.handler.Get)
	s.router.POST("/bookings/:id/transitions", authMiddleware, s.handler.Transition)
	s.router.PUT("/bookings/:id/payment-status", authMiddleware, s.handler.RecordPayment)
}

func (s *BookingHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestBookingHandlerSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

type testCaseBooking struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreate
// ================================================================================

func (s *BookingHandlerTestSuite) TestCreate() {
	url := "/bookings"

	b := builder.NewBookingBuilder()
	reqBody := b.BuildCreateRequestDTO()
	created := b.BuildStored()

	bound := []testCaseBooking{
		{name: "notes length OK (2000 chars)", mutate: testutil.Field("notes", strings.Repeat("a", 2000)), expectCode: http.StatusCreated},
		{name: "notes length invalid (2001 chars)", mutate: testutil.Field("notes", strings.Repeat("a", 2001)), expectCode: http.StatusBadRequest},
		{name: "empty notes", mutate: testutil.Field("notes", ""), expectCode: http.StatusCreated},
	}

	missing := []testCaseBooking{
		{name: "missing field: customerId (required)", mutate: testutil.Field("customerId", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: serviceId (required)", mutate: testutil.Field("serviceId", nil), expectCode: http.StatusBadRequest},
		{name: "missing field: scheduledStart (required)", mutate: testutil.Field("scheduledStart", nil), expectCode: http.StatusBadRequest},
	}

	malformed := []testCaseBooking{
		{name: "customerId is not a uuid", mutate: testutil.Field("customerId", "abc"), expectCode: http.StatusBadRequest},
		{name: "scheduledStart is not RFC 3339", mutate: testutil.Field("scheduledStart", "tomorrow"), expectCode: http.StatusBadRequest},
	}

	allValidationTestCases := [][]testCaseBooking{bound, missing, malformed}

	s.Run("success: returns 201 Created with the booking", func() {
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), commands.CreateBookingInput{
			CustomerID: reqBody.CustomerID,
			ServiceID:  reqBody.ServiceID,
			Start:      reqBody.ScheduledStart,
			Notes:      reqBody.Notes,
			Actor:      commands.Actor{ID: s.actorID, Role: user.RoleStaff},
		}).Return(created, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, staffToken)

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusCreated, &body)
		s.Equal(created.ID(), body.ID)
		s.Equal("pending", body.Status)
		s.Equal(created.ScheduledEnd(), body.ScheduledEnd)
		s.Equal(int64(4500), body.TotalAmountCents)
		s.Equal("Hana Sato", body.Customer.Name)
		s.Equal(60, body.Service.DurationMinutes)
	})

	s.Run("error: 400 Bad Request on validation errors", func() {
		for _, testCaseGroup := range allValidationTestCases {
			for _, tc := range testCaseGroup {
				s.Run(tc.name, func() {
					requestMap := testutil.DtoMap(s.T(), reqBody, tc.mutate)

					if tc.expectCode == http.StatusCreated {
						s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
							Return(created, nil).Times(1)
					}
					rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, requestMap, staffToken)
					if tc.expectCode == http.StatusCreated {
						httptest.AssertSuccessResponse(s.T(), rec, tc.expectCode, nil)
					} else {
						httptest.AssertErrorResponse(s.T(), rec, tc.expectCode, "Invalid request")
					}
				})
			}
		}
	})

	s.Run("error: 401 Unauthorized when unauthenticated", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		httptest.AssertErrorResponse(s.T(), rec, http.StatusUnauthorized, "Unauthorized")
	})

	s.Run("error: maps usecase errors to proper statuses", func() {
		conflictID := uuid.New()
		testCases := []struct {
			name           string
			commandsError  error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "slot conflict",
				commandsError:  &booking.ConflictError{ConflictingID: conflictID},
				expectedStatus: http.StatusConflict,
				expectedMsg:    httperr.MsgSlotConflict,
			},
			{
				name:           "validation",
				commandsError:  errs.Mark(commands.ErrOutsideOperatingHours, errs.ErrValidation),
				expectedStatus: http.StatusBadRequest,
				expectedMsg:    "Invalid request",
			},
			{
				name:           "forbidden",
				commandsError:  errs.ErrForbidden,
				expectedStatus: http.StatusForbidden,
				expectedMsg:    httperr.MsgForbidden,
			},
			{
				name:           "storage unavailable",
				commandsError:  errs.Mark(errors.New("connection refused"), errs.ErrStorageUnavailable),
				expectedStatus: http.StatusServiceUnavailable,
				expectedMsg:    httperr.MsgStorageUnavailable,
			},
			{
				name:           "unclassified",
				commandsError:  errors.New("boom"),
				expectedStatus: http.StatusInternalServerError,
				expectedMsg:    httperr.MsgInternal,
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.commandsError).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, staffToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})

	s.Run("conflict carries the conflicting booking id", func() {
		conflictID := uuid.New()
		s.mockCommands.EXPECT().CreateBooking(gomock.Any(), gomock.Any()).
			Return(nil, errs.Wrap(&booking.ConflictError{ConflictingID: conflictID}, "create booking")).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, staffToken)
		s.Equal(http.StatusConflict, rec.Code)
		s.Contains(rec.Body.String(), conflictID.String())
	})
}

// ================================================================================
// TestGet
// ================================================================================

func (s *BookingHandlerTestSuite) TestGet() {
	s.Run("success: staff sees any booking", func() {
		b := builder.NewBookingBuilder().BuildStored()
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), b.ID()).Return(b, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+b.ID().String(), nil, staffToken)

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal(b.ID(), body.ID)
	})

	s.Run("success: customer sees own booking", func() {
		b := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) {
			bb.Customer.ID = s.actorID
		}).BuildStored()
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), b.ID()).Return(b, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+b.ID().String(), nil, customerToken)
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, nil)
	})

	s.Run("error: 404 when a customer asks for someone else's booking", func() {
		b := builder.NewBookingBuilder().BuildStored()
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), b.ID()).Return(b, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+b.ID().String(), nil, customerToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 404 when missing", func() {
		id := uuid.New()
		s.mockQueries.EXPECT().GetBooking(gomock.Any(), id).Return(nil, errs.ErrBookingNotFound).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/"+id.String(), nil, staffToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusNotFound, "Booking not found")
	})

	s.Run("error: 400 on malformed id", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings/nope", nil, staffToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid id")
	})
}

// ================================================================================
// TestList
// ================================================================================

func (s *BookingHandlerTestSuite) TestList() {
	completed := builder.NewBookingBuilder().WithStatus(booking.StatusCompleted).BuildStored()
	list := &queries.BookingList{
		Bookings:   []*booking.Booking{completed},
		Stats:      listing.ComputeStats([]*booking.Booking{completed}),
		NextCursor: "next",
	}

	s.Run("success: parses filters and returns stats", func() {
		resourceID := uuid.New()
		from := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2030, 6, 2, 9, 30, 0, 0, time.UTC)
		var got queries.ListFilter
		s.mockQueries.EXPECT().ListBookings(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f queries.ListFilter) (*queries.BookingList, error) {
				got = f
				return list, nil
			}).Times(1)

		url := "/bookings?resourceId=" + resourceID.String() +
			"&status=completed&search=%20sato%20&from=2030-06-01&to=2030-06-02T09:30:00Z&limit=10"
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, staffToken)

		var body resdto.BookingListResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Require().NotNil(got.ResourceID)
		s.Equal(resourceID, *got.ResourceID)
		s.Equal(booking.StatusCompleted, got.Status)
		s.Equal("sato", got.Search)
		s.Require().NotNil(got.From)
		s.True(got.From.Equal(from))
		s.Require().NotNil(got.To)
		s.True(got.To.Equal(to))
		s.Equal(10, got.Limit)

		s.Len(body.Bookings, 1)
		s.Equal("next", body.NextCursor)
		s.Equal(1, body.Stats.Total)
		s.Equal(1, body.Stats.CountByStatus["completed"])
		s.Equal(0, body.Stats.CountByStatus["pending"])
		s.Len(body.Stats.CountByStatus, 6)
		s.Equal(int64(4500), body.Stats.RevenueOfCompletedCents)
	})

	s.Run("error: 400 on invalid query", func() {
		for _, q := range []string{
			"status=archived",
			"resourceId=xyz",
			"from=June",
			"limit=201",
		} {
			s.Run(q, func() {
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?"+q, nil, staffToken)
				httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid query")
			})
		}
	})

	s.Run("error: 400 on a bad cursor", func() {
		s.mockQueries.EXPECT().ListBookings(gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(queries.ErrInvalidCursor, errs.ErrValidation)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/bookings?after=zzz", nil, staffToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}

// ================================================================================
// TestTransition
// ================================================================================

func (s *BookingHandlerTestSuite) TestTransition() {
	id := uuid.New()
	url := "/bookings/" + id.String() + "/transitions"

	s.Run("success: passes target and reason", func() {
		cancelled := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) {
			bb.ID = id
			bb.Status = booking.StatusCancelled
			bb.CancellationReason = "sick"
		}).BuildStored()
		s.mockCommands.EXPECT().TransitionBooking(gomock.Any(), commands.TransitionInput{
			BookingID: id,
			Target:    booking.StatusCancelled,
			Reason:    "sick",
			Actor:     commands.Actor{ID: s.actorID, Role: user.RoleCustomer},
		}).Return(cancelled, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"status": "cancelled", "reason": "sick"}, customerToken)

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("cancelled", body.Status)
		s.Equal("sick", body.CancellationReason)
	})

	s.Run("error: 400 on unknown status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
			map[string]any{"status": "archived"}, staffToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})

	s.Run("error: maps domain rule errors", func() {
		testCases := []struct {
			name           string
			err            error
			expectedStatus int
			expectedMsg    string
		}{
			{
				name:           "illegal edge",
				err:            &booking.TransitionError{From: booking.StatusCompleted, To: booking.StatusConfirmed},
				expectedStatus: http.StatusConflict,
				expectedMsg:    httperr.MsgInvalidTransition,
			},
			{
				name:           "missing reason",
				err:            booking.ErrMissingReason,
				expectedStatus: http.StatusUnprocessableEntity,
				expectedMsg:    httperr.MsgMissingReason,
			},
			{
				name:           "slot taken on confirm",
				err:            &booking.ConflictError{ConflictingID: uuid.New()},
				expectedStatus: http.StatusConflict,
				expectedMsg:    httperr.MsgSlotConflict,
			},
			{
				name:           "not found",
				err:            errs.ErrBookingNotFound,
				expectedStatus: http.StatusNotFound,
				expectedMsg:    "Booking not found",
			},
		}

		for _, tc := range testCases {
			s.Run(tc.name, func() {
				s.mockCommands.EXPECT().TransitionBooking(gomock.Any(), gomock.Any()).
					Return(nil, tc.err).Times(1)

				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url,
					map[string]any{"status": "confirmed"}, staffToken)
				httptest.AssertErrorResponse(s.T(), rec, tc.expectedStatus, tc.expectedMsg)
			})
		}
	})
}

// ================================================================================
// TestRecordPayment
// ================================================================================

func (s *BookingHandlerTestSuite) TestRecordPayment() {
	b := builder.NewBookingBuilder().With(func(bb *builder.BookingBuilder) {
		bb.PaymentStatus = booking.PaymentPaid
	}).BuildStored()
	url := "/bookings/" + b.ID().String() + "/payment-status"

	s.Run("success", func() {
		s.mockCommands.EXPECT().RecordPaymentStatus(gomock.Any(), commands.PaymentStatusInput{
			BookingID: b.ID(),
			Status:    booking.PaymentPaid,
		}).Return(b, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"status": "paid"}, staffToken)

		var body resdto.BookingResponse
		httptest.AssertSuccessResponse(s.T(), rec, http.StatusOK, &body)
		s.Equal("paid", body.PaymentStatus)
	})

	s.Run("error: 400 on unknown payment status", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPut, url, map[string]any{"status": "maybe"}, staffToken)
		httptest.AssertErrorResponse(s.T(), rec, http.StatusBadRequest, "Invalid request")
	})
}
