package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/property-engine/internal/domain"
)

// Store errors. Anything else a repository returns is an infrastructure
// failure.
var (
	ErrNotFound  = errors.New("record not found")
	ErrConflict  = errors.New("overlapping confirmed booking")
	ErrDuplicate = errors.New("duplicate record")
)

// ConflictCheck inspects the confirmed bookings of a property from inside the
// repository's exclusive section. A non-nil error aborts the write and is
// returned unchanged.
type ConflictCheck func(confirmed []*domain.Booking) error

// BookingRepository defines the interface for booking data operations
type BookingRepository interface {
	// GetByID retrieves a booking by its ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)

	// ListByProperty lists the bookings of a property, optionally filtered by
	// status, ordered by start date
	ListByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) ([]*domain.Booking, error)

	// List lists bookings matching filter, newest start date first
	List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error)

	// CreateExclusive runs check against the property's confirmed bookings
	// and inserts booking, with no other writer for the property in between
	CreateExclusive(ctx context.Context, booking *domain.Booking, check ConflictCheck) error

	// UpdateStatus sets the status of a booking and returns the updated row
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error)

	// RescheduleExclusive moves a booking to r under the same exclusivity as
	// CreateExclusive
	RescheduleExclusive(ctx context.Context, id uuid.UUID, r domain.DateRange, check ConflictCheck) (*domain.Booking, error)

	// Delete removes a booking together with its review
	Delete(ctx context.Context, id uuid.UUID) error

	// ListEndedBetween lists confirmed bookings whose end date is in [from, to]
	ListEndedBetween(ctx context.Context, from, to domain.Date) ([]*domain.Booking, error)

	// Ping checks connectivity to the backing store
	Ping(ctx context.Context) error
}

// ReviewRepository defines the interface for review data operations
type ReviewRepository interface {
	// Create stores a review, ErrDuplicate when the booking already has one
	Create(ctx context.Context, review *domain.Review) error

	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)

	GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error)

	// ListByProperty lists the reviews of a property, newest first
	ListByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error)

	// List lists every review, newest first
	List(ctx context.Context) ([]*domain.Review, error)

	Delete(ctx context.Context, id uuid.UUID) error
}

// Cache stores JSON documents with a TTL. Implementations report misses as
// ErrCacheMiss.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the integer stored at key and returns the
	// new value. A missing key counts as zero.
	Incr(ctx context.Context, key string) (int64, error)
	Ping(ctx context.Context) error
}

var ErrCacheMiss = errors.New("cache miss")
