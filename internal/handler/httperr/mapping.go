package httperr

import (
	"net/http"

	"booking-engine/internal/domain/booking"
	"booking-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const (
	MsgSlotConflict       = "This time is no longer available"
	MsgInvalidTransition  = "This booking can no longer be changed"
	MsgMissingReason      = "A reason is required for this change"
	MsgStorageUnavailable = "The service is temporarily unavailable, please retry"
	MsgForbidden          = "Insufficient permissions"
	MsgInternal           = "Internal server error"
)

// Abort maps a usecase error onto its status and user-facing message.
func Abort(c *gin.Context, err error) {
	var conflict *booking.ConflictError
	var transition *booking.TransitionError

	switch {
	case errs.As(err, &conflict):
		AbortWithError(c, http.StatusConflict, err, MsgSlotConflict,
			gin.H{"conflictingBookingId": conflict.ConflictingID.String()})
	case errs.Is(err, booking.ErrSlotConflict):
		AbortWithError(c, http.StatusConflict, err, MsgSlotConflict, nil)
	case errs.As(err, &transition):
		AbortWithError(c, http.StatusConflict, err, MsgInvalidTransition,
			gin.H{"from": transition.From.String(), "to": transition.To.String()})
	case errs.Is(err, booking.ErrInvalidTransition):
		AbortWithError(c, http.StatusConflict, err, MsgInvalidTransition, nil)
	case errs.Is(err, booking.ErrMissingReason):
		AbortWithError(c, http.StatusUnprocessableEntity, err, MsgMissingReason, nil)
	case errs.Is(err, errs.ErrForbidden):
		AbortWithError(c, http.StatusForbidden, err, MsgForbidden, nil)
	case errs.Is(err, errs.ErrValidation):
		AbortWithError(c, http.StatusBadRequest, err, "Invalid request", err.Error())
	case errs.Is(err, errs.ErrBookingNotFound):
		AbortWithError(c, http.StatusNotFound, err, "Booking not found", nil)
	case errs.Is(err, errs.ErrResourceNotFound):
		AbortWithError(c, http.StatusNotFound, err, "Resource not found", nil)
	case errs.Is(err, errs.ErrStorageUnavailable):
		c.Header("Retry-After", "1")
		AbortWithError(c, http.StatusServiceUnavailable, err, MsgStorageUnavailable, nil)
	default:
		AbortWithError(c, http.StatusInternalServerError, err, MsgInternal, nil)
	}
}
