package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/property-engine/internal/config"
	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/internal/repository"
	customError "github.com/segyhp/property-engine/pkg/errors"
)

type BookingService struct {
	BookingRepo repository.BookingRepository
	cache       repository.Cache
	cacheConfig config.CacheConfig
	logger      *logrus.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewBookingService(
	bookingRepo repository.BookingRepository,
	cache repository.Cache,
	cacheConfig config.CacheConfig,
	logger *logrus.Logger,
) *BookingService {
	return &BookingService{
		BookingRepo: bookingRepo,
		cache:       cache,
		cacheConfig: cacheConfig,
		logger:      logger,
		tracer:      defaultTracer(),
		now:         time.Now,
	}
}

// BookedRangesKey is the cache key of a property's confirmed date ranges at
// one generation of its invalidation counter.
func BookedRangesKey(propertyID string, generation int64) string {
	return "booked:" + propertyID + ":" + strconv.FormatInt(generation, 10)
}

// BookedRangesGenerationKey holds the counter bumped whenever a property's
// confirmed bookings change. Snapshots cached under an older generation are
// never read again.
func BookedRangesGenerationKey(propertyID string) string {
	return "booked-gen:" + propertyID
}

// CheckAvailability reports whether [start, end] is free for the property.
// It always reads the store, never the cache.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID string, dates domain.DateRange) (available bool, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CheckAvailability",
		trace.WithAttributes(attribute.String("property.id", propertyID)))
	defer func() { finishSpan(span, err) }()

	if err := validateRange(propertyID, dates); err != nil {
		return false, err
	}

	confirmed, err := s.BookingRepo.ListByProperty(ctx, propertyID, domain.BookingStatusConfirmed)
	if err != nil {
		return false, customError.WrapDatabaseError(err)
	}

	return domain.FindOverlap(confirmed, dates, uuid.Nil) == nil, nil
}

// CreateBooking reserves the property for the requester. The availability
// check runs again inside the repository's exclusive section, so two racing
// requests for overlapping dates cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, requester domain.Requester, request *domain.CreateBookingRequest) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CreateBooking",
		trace.WithAttributes(attribute.String("property.id", request.PropertyID)))
	defer func() { finishSpan(span, err) }()

	if !requester.IsAuthenticated() {
		return nil, customError.WrapUnauthenticated("You must be signed in to book a property.")
	}

	dates := request.Range()
	if err := validateRange(request.PropertyID, dates); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	booking = &domain.Booking{
		ID:         uuid.New(),
		PropertyID: request.PropertyID,
		UserID:     requester.UserID,
		StartDate:  dates.Start,
		EndDate:    dates.End,
		Status:     domain.BookingStatusConfirmed,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.BookingRepo.CreateExclusive(ctx, booking, conflictCheck(booking.PropertyID, dates, uuid.Nil)); err != nil {
		if errors.Is(err, customError.ErrBookingConflict) {
			s.logger.WithFields(logrus.Fields{
				"property_id": booking.PropertyID,
				"user_id":     booking.UserID,
				"dates":       dates.String(),
			}).Info("booking rejected, dates overlap a confirmed booking")
		}
		return nil, storeError(err, booking.PropertyID)
	}

	s.invalidateBookedRanges(ctx, booking.PropertyID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"property_id": booking.PropertyID,
		"user_id":     booking.UserID,
		"dates":       dates.String(),
	}).Info("booking created")

	return booking, nil
}

// CancelBooking cancels a booking owned by the requester, or any booking for
// an admin. Cancelling an already cancelled booking succeeds without a write.
func (s *BookingService) CancelBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.CancelBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { finishSpan(span, err) }()

	booking, err = s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !booking.OwnedBy(requester.UserID) && !requester.IsAdmin() {
		return nil, customError.WrapForbidden("cancel this booking")
	}

	if booking.Status == domain.BookingStatusCancelled {
		return booking, nil
	}

	booking, err = s.BookingRepo.UpdateStatus(ctx, bookingID, domain.BookingStatusCancelled)
	if err != nil {
		return nil, storeError(err, "")
	}

	s.invalidateBookedRanges(ctx, booking.PropertyID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"property_id": booking.PropertyID,
		"by":          requester.UserID,
	}).Info("booking cancelled")

	return booking, nil
}

// ListBookedDateRanges returns the confirmed ranges of a property ordered by
// start date. Results are cached; a cache failure falls back to the store.
func (s *BookingService) ListBookedDateRanges(ctx context.Context, propertyID string) (ranges []domain.DateRange, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ListBookedDateRanges",
		trace.WithAttributes(attribute.String("property.id", propertyID)))
	defer func() { finishSpan(span, err) }()

	if strings.TrimSpace(propertyID) == "" {
		return nil, customError.WrapValidation("property id is required")
	}

	generation, cacheable := s.bookedRangesGeneration(ctx, propertyID)
	key := BookedRangesKey(propertyID, generation)
	if cacheable {
		if err := s.cache.GetJSON(ctx, key, &ranges); err == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return ranges, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.WithError(err).WithField("key", key).Warn("booked ranges cache read failed")
		}
	}

	confirmed, err := s.BookingRepo.ListByProperty(ctx, propertyID, domain.BookingStatusConfirmed)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	ranges = make([]domain.DateRange, 0, len(confirmed))
	for _, b := range confirmed {
		ranges = append(ranges, b.Range())
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Start.Before(ranges[j].Start)
	})

	// A booking committed since the generation was read has bumped it, so
	// this snapshot lands under a key nobody reads any more.
	if cacheable {
		if err := s.cache.SetJSON(ctx, key, ranges, s.cacheConfig.BookedRangesTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("booked ranges cache write failed")
		}
	}

	return ranges, nil
}

// bookedRangesGeneration reads the property's invalidation counter. When it
// cannot be read the cache is bypassed altogether.
func (s *BookingService) bookedRangesGeneration(ctx context.Context, propertyID string) (int64, bool) {
	key := BookedRangesGenerationKey(propertyID)

	var generation int64
	err := s.cache.GetJSON(ctx, key, &generation)
	switch {
	case err == nil:
		return generation, true
	case errors.Is(err, repository.ErrCacheMiss):
		return 0, true
	default:
		s.logger.WithError(err).WithField("key", key).Warn("booked ranges generation read failed")
		return 0, false
	}
}

// ListUserBookings lists the requester's own bookings, newest first.
func (s *BookingService) ListUserBookings(ctx context.Context, requester domain.Requester, status domain.BookingStatus) (bookings []*domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ListUserBookings")
	defer func() { finishSpan(span, err) }()

	if !requester.IsAuthenticated() {
		return nil, customError.WrapUnauthenticated("You must be signed in to view your bookings.")
	}
	if status != "" && !status.IsValid() {
		return nil, customError.WrapValidation("unknown booking status %q", status)
	}

	bookings, err = s.BookingRepo.List(ctx, domain.BookingFilter{UserID: requester.UserID, Status: status})
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return bookings, nil
}

// ListBookings lists every booking matching filter. Admin only.
func (s *BookingService) ListBookings(ctx context.Context, requester domain.Requester, filter domain.BookingFilter) (bookings []*domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.ListBookings")
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "list all bookings"); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, customError.WrapValidation("unknown booking status %q", filter.Status)
	}

	bookings, err = s.BookingRepo.List(ctx, filter)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return bookings, nil
}

// UpdateStatus sets a booking's status. Admin only. CANCELLED is terminal:
// moving a cancelled booking back to CONFIRMED is rejected.
func (s *BookingService) UpdateStatus(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, status domain.BookingStatus) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.UpdateStatus",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String()), attribute.String("booking.status", string(status))))
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "change booking status"); err != nil {
		return nil, err
	}
	if !status.IsValid() {
		return nil, customError.WrapValidation("unknown booking status %q", status)
	}

	booking, err = s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch {
	case booking.Status == status:
		return booking, nil
	case booking.Status == domain.BookingStatusCancelled:
		return nil, customError.WrapValidation("booking %s is cancelled and cannot be confirmed again", bookingID)
	}

	booking, err = s.BookingRepo.UpdateStatus(ctx, bookingID, status)
	if err != nil {
		return nil, storeError(err, "")
	}

	s.invalidateBookedRanges(ctx, booking.PropertyID)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"by":         requester.UserID,
	}).Info("booking status updated")

	return booking, nil
}

// Reschedule moves a confirmed booking to new dates. Admin only. The new
// range is checked against the property's other confirmed bookings in the
// same exclusive section as creation.
func (s *BookingService) Reschedule(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, dates domain.DateRange) (booking *domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.Reschedule",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "reschedule bookings"); err != nil {
		return nil, err
	}

	current, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := validateRange(current.PropertyID, dates); err != nil {
		return nil, err
	}
	if !current.IsConfirmed() {
		return nil, customError.WrapValidation("only confirmed bookings can be rescheduled")
	}

	booking, err = s.BookingRepo.RescheduleExclusive(ctx, bookingID, dates, conflictCheck(current.PropertyID, dates, bookingID))
	if err != nil {
		return nil, storeError(err, current.PropertyID)
	}

	s.invalidateBookedRanges(ctx, booking.PropertyID)

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"from":       current.Range().String(),
		"to":         dates.String(),
		"by":         requester.UserID,
	}).Info("booking rescheduled")

	return booking, nil
}

// DeleteBooking removes a booking and its review. Admin only.
func (s *BookingService) DeleteBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "BookingService.DeleteBooking",
		trace.WithAttributes(attribute.String("booking.id", bookingID.String())))
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "delete bookings"); err != nil {
		return err
	}

	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if err := s.BookingRepo.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return customError.WrapBookingNotFound(bookingID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	s.invalidateBookedRanges(ctx, booking.PropertyID)

	s.logger.WithFields(logrus.Fields{
		"booking_id":  bookingID,
		"property_id": booking.PropertyID,
		"by":          requester.UserID,
	}).Info("booking deleted")

	return nil
}

func (s *BookingService) getBooking(ctx context.Context, bookingID uuid.UUID) (*domain.Booking, error) {
	booking, err := s.BookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapBookingNotFound(bookingID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}
	return booking, nil
}

func (s *BookingService) invalidateBookedRanges(ctx context.Context, propertyID string) {
	key := BookedRangesGenerationKey(propertyID)
	if _, err := s.cache.Incr(ctx, key); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("booked ranges cache invalidation failed")
	}
}

// conflictCheck rejects dates that overlap a confirmed booking other than
// exclude.
func conflictCheck(propertyID string, dates domain.DateRange, exclude uuid.UUID) repository.ConflictCheck {
	return func(confirmed []*domain.Booking) error {
		if domain.FindOverlap(confirmed, dates, exclude) != nil {
			return customError.WrapBookingConflict(propertyID)
		}
		return nil
	}
}

func validateRange(propertyID string, dates domain.DateRange) error {
	if strings.TrimSpace(propertyID) == "" {
		return customError.WrapValidation("property id is required")
	}
	if err := dates.Validate(); err != nil {
		return customError.WrapValidation("%s", err.Error())
	}
	return nil
}

func requireAdmin(requester domain.Requester, action string) error {
	if !requester.IsAuthenticated() {
		return customError.WrapUnauthenticated("You must be signed in.")
	}
	if !requester.IsAdmin() {
		return customError.WrapForbidden(action)
	}
	return nil
}

// storeError converts a repository error into a business error. Business
// errors raised by a ConflictCheck pass through unchanged.
func storeError(err error, propertyID string) error {
	var be *customError.BusinessError
	switch {
	case errors.As(err, &be):
		return be
	case errors.Is(err, repository.ErrConflict):
		return customError.WrapBookingConflict(propertyID)
	case errors.Is(err, repository.ErrNotFound):
		return customError.NewBusinessError(customError.ErrCodeBookingNotFound, "Booking not found", customError.ErrNotFound)
	default:
		return customError.WrapDatabaseError(fmt.Errorf("booking store: %w", err))
	}
}
