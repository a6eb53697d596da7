package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/internal/repository"
	customError "github.com/segyhp/property-engine/pkg/errors"
)

type ReviewService struct {
	ReviewRepo  repository.ReviewRepository
	BookingRepo repository.BookingRepository
	logger      *logrus.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

func NewReviewService(
	reviewRepo repository.ReviewRepository,
	bookingRepo repository.BookingRepository,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		ReviewRepo:  reviewRepo,
		BookingRepo: bookingRepo,
		logger:      logger,
		tracer:      defaultTracer(),
		now:         time.Now,
	}
}

// CreateReview records the requester's review of a finished stay. Checks run
// in order: input, existing review, booking existence, stay has ended. The
// booking's status is not consulted, so cancelled stays can be reviewed.
func (s *ReviewService) CreateReview(ctx context.Context, requester domain.Requester, request *domain.CreateReviewRequest) (review *domain.Review, err error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.CreateReview",
		trace.WithAttributes(attribute.String("booking.id", request.BookingID.String())))
	defer func() { finishSpan(span, err) }()

	if !requester.IsAuthenticated() {
		return nil, customError.WrapUnauthenticated("You must be signed in to leave a review.")
	}
	if request.Rating < domain.MinRating || request.Rating > domain.MaxRating {
		return nil, customError.WrapValidation("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	comment := strings.TrimSpace(request.Comment)
	if comment == "" {
		return nil, customError.WrapValidation("comment is required")
	}

	existing, err := s.ReviewRepo.GetByBookingID(ctx, request.BookingID)
	switch {
	case err == nil && existing != nil:
		return nil, customError.WrapDuplicateReview(request.BookingID.String())
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, customError.WrapDatabaseError(err)
	}

	booking, err := s.BookingRepo.GetByID(ctx, request.BookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, customError.WrapBookingNotFound(request.BookingID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	now := s.now()
	if !booking.HasEnded(now) {
		return nil, customError.WrapReviewNotEligible(booking.ID.String())
	}

	review = &domain.Review{
		ID:         uuid.New(),
		BookingID:  booking.ID,
		PropertyID: booking.PropertyID,
		UserID:     requester.UserID,
		Rating:     request.Rating,
		Comment:    comment,
		CreatedAt:  now.UTC(),
	}

	if err := s.ReviewRepo.Create(ctx, review); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			// Lost a race with another submission for the same booking.
			return nil, customError.WrapDuplicateReview(booking.ID.String())
		case errors.Is(err, repository.ErrNotFound):
			return nil, customError.WrapBookingNotFound(booking.ID.String())
		default:
			return nil, customError.WrapDatabaseError(err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"review_id":   review.ID,
		"booking_id":  review.BookingID,
		"property_id": review.PropertyID,
		"rating":      review.Rating,
	}).Info("review created")

	return review, nil
}

// ListPropertyReviews returns a property's reviews, newest first, with their
// count and average rating.
func (s *ReviewService) ListPropertyReviews(ctx context.Context, propertyID string) (result *domain.PropertyReviewsResponse, err error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.ListPropertyReviews",
		trace.WithAttributes(attribute.String("property.id", propertyID)))
	defer func() { finishSpan(span, err) }()

	if strings.TrimSpace(propertyID) == "" {
		return nil, customError.WrapValidation("property id is required")
	}

	reviews, err := s.ReviewRepo.ListByProperty(ctx, propertyID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return &domain.PropertyReviewsResponse{
		PropertyID:    propertyID,
		Count:         len(reviews),
		AverageRating: domain.AverageRating(reviews),
		Reviews:       reviews,
	}, nil
}

// ListReviews lists every review. Admin only.
func (s *ReviewService) ListReviews(ctx context.Context, requester domain.Requester) (reviews []*domain.Review, err error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.ListReviews")
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "list all reviews"); err != nil {
		return nil, err
	}

	reviews, err = s.ReviewRepo.List(ctx)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return reviews, nil
}

// DeleteReview removes a review. Admin only.
func (s *ReviewService) DeleteReview(ctx context.Context, requester domain.Requester, reviewID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.DeleteReview",
		trace.WithAttributes(attribute.String("review.id", reviewID.String())))
	defer func() { finishSpan(span, err) }()

	if err := requireAdmin(requester, "delete reviews"); err != nil {
		return err
	}

	if err := s.ReviewRepo.Delete(ctx, reviewID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return customError.WrapReviewNotFound(reviewID.String())
		}
		return customError.WrapDatabaseError(err)
	}

	s.logger.WithFields(logrus.Fields{
		"review_id": reviewID,
		"by":        requester.UserID,
	}).Info("review deleted")

	return nil
}

// PendingReviewInvitations lists confirmed bookings that ended within
// [from, to] and have not been reviewed yet.
func (s *ReviewService) PendingReviewInvitations(ctx context.Context, from, to domain.Date) (pending []*domain.Booking, err error) {
	ctx, span := s.tracer.Start(ctx, "ReviewService.PendingReviewInvitations")
	defer func() { finishSpan(span, err) }()

	if err := domain.NewDateRange(from, to).Validate(); err != nil {
		return nil, customError.WrapValidation("%s", err.Error())
	}

	ended, err := s.BookingRepo.ListEndedBetween(ctx, from, to)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	pending = make([]*domain.Booking, 0, len(ended))
	for _, booking := range ended {
		_, err := s.ReviewRepo.GetByBookingID(ctx, booking.ID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			pending = append(pending, booking)
		case err != nil:
			return nil, customError.WrapDatabaseError(err)
		}
	}

	span.SetAttributes(attribute.Int("invitations.count", len(pending)))
	return pending, nil
}
