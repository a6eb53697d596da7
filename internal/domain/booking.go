package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) IsValid() bool {
	return s == BookingStatusConfirmed || s == BookingStatusCancelled
}

// Booking represents a reservation of a property for a date range
type Booking struct {
	ID         uuid.UUID     `json:"id" db:"id"`
	PropertyID string        `json:"property_id" db:"property_id"`
	UserID     string        `json:"user_id" db:"user_id"`
	StartDate  Date          `json:"start_date" db:"start_date"`
	EndDate    Date          `json:"end_date" db:"end_date"`
	Status     BookingStatus `json:"status" db:"status"`
	CreatedAt  time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at" db:"updated_at"`
}

func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

func (b *Booking) IsConfirmed() bool {
	return b.Status == BookingStatusConfirmed
}

// HasEnded reports whether the stay is in the past, i.e. its end date is
// before now. Past-ness is derived, never stored.
func (b *Booking) HasEnded(now time.Time) bool {
	return b.EndDate.Time().Before(now)
}

// OwnedBy reports whether userID made the booking.
func (b *Booking) OwnedBy(userID string) bool {
	return userID != "" && b.UserID == userID
}

// FindOverlap returns the first confirmed booking in existing that overlaps r,
// skipping the booking with id exclude. It returns nil when r is free.
func FindOverlap(existing []*Booking, r DateRange, exclude uuid.UUID) *Booking {
	for _, b := range existing {
		if b == nil || !b.IsConfirmed() || b.ID == exclude {
			continue
		}
		if b.Range().Overlaps(r) {
			return b
		}
	}
	return nil
}

// BookingFilter narrows booking listings. Empty fields match everything.
type BookingFilter struct {
	PropertyID string
	UserID     string
	Status     BookingStatus
}

// DTOs for requests and responses

type CreateBookingRequest struct {
	PropertyID string `json:"property_id" validate:"required"`
	StartDate  Date   `json:"start_date" validate:"required"`
	EndDate    Date   `json:"end_date" validate:"required"`
}

func (r *CreateBookingRequest) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=CONFIRMED CANCELLED"`
}

type RescheduleBookingRequest struct {
	StartDate Date `json:"start_date" validate:"required"`
	EndDate   Date `json:"end_date" validate:"required"`
}

func (r *RescheduleBookingRequest) Range() DateRange {
	return DateRange{Start: r.StartDate, End: r.EndDate}
}

type AvailabilityResponse struct {
	PropertyID string `json:"property_id"`
	StartDate  Date   `json:"start_date"`
	EndDate    Date   `json:"end_date"`
	Available  bool   `json:"available"`
}

type BookedDatesResponse struct {
	PropertyID string      `json:"property_id"`
	Ranges     []DateRange `json:"ranges"`
}
