package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/property-engine/internal/domain"
)

// MemoryStore is an in-process store for bookings and reviews, used for local
// development and tests. A single mutex covers both tables, so the conflict
// check and the write of CreateExclusive and RescheduleExclusive happen
// atomically.
type MemoryStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]domain.Booking
	reviews  map[uuid.UUID]domain.Review
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[uuid.UUID]domain.Booking),
		reviews:  make(map[uuid.UUID]domain.Review),
	}
}

// Bookings returns the booking repository view of the store.
func (s *MemoryStore) Bookings() BookingRepository {
	return &memoryBookingRepository{store: s}
}

// Reviews returns the review repository view of the store.
func (s *MemoryStore) Reviews() ReviewRepository {
	return &memoryReviewRepository{store: s}
}

type memoryBookingRepository struct {
	store *MemoryStore
}

func (r *memoryBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &booking, nil
}

func (r *memoryBookingRepository) ListByProperty(ctx context.Context, propertyID string, status domain.BookingStatus) ([]*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bookings := r.store.matching(domain.BookingFilter{PropertyID: propertyID, Status: status})
	sortByStart(bookings, false)
	return bookings, nil
}

func (r *memoryBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bookings := r.store.matching(filter)
	sortByStart(bookings, true)
	return bookings, nil
}

func (r *memoryBookingRepository) CreateExclusive(ctx context.Context, booking *domain.Booking, check ConflictCheck) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := r.store.bookings[booking.ID]; exists {
		return ErrDuplicate
	}

	confirmed := r.store.matching(domain.BookingFilter{PropertyID: booking.PropertyID, Status: domain.BookingStatusConfirmed})
	if err := check(confirmed); err != nil {
		return err
	}

	r.store.bookings[booking.ID] = *booking
	return nil
}

func (r *memoryBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}

	booking.Status = status
	booking.UpdatedAt = time.Now().UTC()
	r.store.bookings[id] = booking
	return &booking, nil
}

func (r *memoryBookingRepository) RescheduleExclusive(ctx context.Context, id uuid.UUID, dates domain.DateRange, check ConflictCheck) (*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}

	confirmed := r.store.matching(domain.BookingFilter{PropertyID: booking.PropertyID, Status: domain.BookingStatusConfirmed})
	if err := check(confirmed); err != nil {
		return nil, err
	}

	booking.StartDate = dates.Start
	booking.EndDate = dates.End
	booking.UpdatedAt = time.Now().UTC()
	r.store.bookings[id] = booking
	return &booking, nil
}

func (r *memoryBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.bookings, id)

	for reviewID, review := range r.store.reviews {
		if review.BookingID == id {
			delete(r.store.reviews, reviewID)
		}
	}
	return nil
}

func (r *memoryBookingRepository) ListEndedBetween(ctx context.Context, from, to domain.Date) ([]*domain.Booking, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	bookings := []*domain.Booking{}
	for _, b := range r.store.bookings {
		if !b.IsConfirmed() || b.EndDate.Before(from) || b.EndDate.After(to) {
			continue
		}
		booking := b
		bookings = append(bookings, &booking)
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		if !bookings[i].EndDate.Equal(bookings[j].EndDate) {
			return bookings[i].EndDate.Before(bookings[j].EndDate)
		}
		return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (r *memoryBookingRepository) Ping(ctx context.Context) error {
	return nil
}

// matching copies out the bookings selected by filter. Callers hold mu.
func (s *MemoryStore) matching(filter domain.BookingFilter) []*domain.Booking {
	bookings := []*domain.Booking{}
	for _, b := range s.bookings {
		if filter.PropertyID != "" && b.PropertyID != filter.PropertyID {
			continue
		}
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		booking := b
		bookings = append(bookings, &booking)
	}
	return bookings
}

func sortByStart(bookings []*domain.Booking, desc bool) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i], bookings[j]
		if desc {
			a, b = b, a
		}
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}

type memoryReviewRepository struct {
	store *MemoryStore
}

func (r *memoryReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.bookings[review.BookingID]; !ok {
		return ErrNotFound
	}
	for _, existing := range r.store.reviews {
		if existing.BookingID == review.BookingID {
			return ErrDuplicate
		}
	}

	r.store.reviews[review.ID] = *review
	return nil
}

func (r *memoryReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	review, ok := r.store.reviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &review, nil
}

func (r *memoryReviewRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) (*domain.Review, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, review := range r.store.reviews {
		if review.BookingID == bookingID {
			found := review
			return &found, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryReviewRepository) ListByProperty(ctx context.Context, propertyID string) ([]*domain.Review, error) {
	return r.list(func(review domain.Review) bool { return review.PropertyID == propertyID }), nil
}

func (r *memoryReviewRepository) List(ctx context.Context) ([]*domain.Review, error) {
	return r.list(func(domain.Review) bool { return true }), nil
}

func (r *memoryReviewRepository) list(keep func(domain.Review) bool) []*domain.Review {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	reviews := []*domain.Review{}
	for _, review := range r.store.reviews {
		if keep(review) {
			found := review
			reviews = append(reviews, &found)
		}
	}
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
	})
	return reviews
}

func (r *memoryReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.reviews[id]; !ok {
		return ErrNotFound
	}
	delete(r.store.reviews, id)
	return nil
}
