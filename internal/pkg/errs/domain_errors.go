package errs

import "errors"

// Sentinel errors shared by the usecase layers and the HTTP mapping
var (
	// Validation errors
	ErrValidation = errors.New("validation failed")

	// Lookup errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrResourceNotFound = errors.New("resource not found")
	ErrCustomerNotFound = errors.New("customer not found")
	ErrServiceNotFound  = errors.New("service not found")

	// Access errors
	ErrForbidden = errors.New("operation not permitted for this actor")

	// Operation errors
	ErrStorageUnavailable = errors.New("storage unavailable")
)
