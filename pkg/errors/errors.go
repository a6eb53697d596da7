package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrValidation       = errors.New("validation failed")
	ErrBookingConflict  = errors.New("property already booked for the selected dates")
	ErrNotFound         = errors.New("resource not found")
	ErrForbidden        = errors.New("requester is not allowed to perform this action")
	ErrDuplicateReview  = errors.New("booking already reviewed")
	ErrUnauthenticated  = errors.New("requester is not authenticated")
	ErrDatabase         = errors.New("database operation failed")
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeBookingConflict   = "BOOKING_CONFLICT"
	ErrCodeBookingNotFound   = "BOOKING_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeReviewNotEligible = "REVIEW_NOT_ELIGIBLE"
	ErrCodeDuplicateReview   = "DUPLICATE_REVIEW"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeUnauthenticated   = "UNAUTHENTICATED"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// ConflictMessage is surfaced verbatim to the caller when a booking overlaps.
const ConflictMessage = "This property is already booked for the selected dates."

// Wrap common errors with business context
func WrapValidation(format string, args ...interface{}) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		fmt.Sprintf(format, args...),
		ErrValidation,
	)
}

func WrapBookingConflict(propertyID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBookingConflict,
		ConflictMessage,
		fmt.Errorf("property %s: %w", propertyID, ErrBookingConflict),
	)
}

func WrapBookingNotFound(bookingID string) *BusinessError {
	return NewBusinessError(
		ErrCodeBookingNotFound,
		fmt.Sprintf("Booking with ID %s not found", bookingID),
		ErrNotFound,
	)
}

func WrapReviewNotFound(reviewID string) *BusinessError {
	return NewBusinessError(
		ErrCodeReviewNotFound,
		fmt.Sprintf("Review with ID %s not found", reviewID),
		ErrNotFound,
	)
}

func WrapReviewNotEligible(bookingID string) *BusinessError {
	return NewBusinessError(
		ErrCodeReviewNotEligible,
		fmt.Sprintf("Booking %s cannot be reviewed before the stay has ended", bookingID),
		ErrValidation,
	)
}

func WrapDuplicateReview(bookingID string) *BusinessError {
	return NewBusinessError(
		ErrCodeDuplicateReview,
		"You have already reviewed this booking.",
		fmt.Errorf("booking %s: %w", bookingID, ErrDuplicateReview),
	)
}

func WrapForbidden(action string) *BusinessError {
	return NewBusinessError(
		ErrCodeForbidden,
		fmt.Sprintf("You are not authorized to %s.", action),
		ErrForbidden,
	)
}

func WrapUnauthenticated(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeUnauthenticated,
		reason,
		ErrUnauthenticated,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		fmt.Errorf("%w: %w", ErrDatabase, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		fmt.Errorf("%w: %w", ErrCacheUnavailable, err),
	)
}

// CodeOf returns the business code carried by err, or an empty string.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// MessageOf returns the user facing message carried by err.
func MessageOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Message
	}
	return err.Error()
}
