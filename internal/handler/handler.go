package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/amortization"
	"github.com/segyhp/property-engine/pkg/response"
)

// BookingService is the booking engine as the HTTP layer uses it.
type BookingService interface {
	CheckAvailability(ctx context.Context, propertyID string, dates domain.DateRange) (bool, error)
	CreateBooking(ctx context.Context, requester domain.Requester, request *domain.CreateBookingRequest) (*domain.Booking, error)
	CancelBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) (*domain.Booking, error)
	ListBookedDateRanges(ctx context.Context, propertyID string) ([]domain.DateRange, error)
	ListUserBookings(ctx context.Context, requester domain.Requester, status domain.BookingStatus) ([]*domain.Booking, error)
	ListBookings(ctx context.Context, requester domain.Requester, filter domain.BookingFilter) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, status domain.BookingStatus) (*domain.Booking, error)
	Reschedule(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, dates domain.DateRange) (*domain.Booking, error)
	DeleteBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) error
}

type ReviewService interface {
	CreateReview(ctx context.Context, requester domain.Requester, request *domain.CreateReviewRequest) (*domain.Review, error)
	ListPropertyReviews(ctx context.Context, propertyID string) (*domain.PropertyReviewsResponse, error)
	ListReviews(ctx context.Context, requester domain.Requester) ([]*domain.Review, error)
	DeleteReview(ctx context.Context, requester domain.Requester, reviewID uuid.UUID) error
}

type CalculatorService interface {
	MonthlyPayment(ctx context.Context, request *domain.PaymentRequest) (*domain.PaymentResponse, error)
	Schedule(ctx context.Context, request *domain.ScheduleRequest) (*domain.ScheduleResponse, error)
	ExportSchedule(ctx context.Context, request *domain.ScheduleRequest, format string, w io.Writer) (string, error)
	BondSummary(ctx context.Context, request *domain.BondRequest) (*amortization.BondSummary, error)
}

// base carries the request plumbing shared by every handler.
type base struct {
	validator *validator.Validate
	logger    *logrus.Logger
}

func newBase(logger *logrus.Logger) base {
	return base{
		validator: NewValidator(),
		logger:    logger,
	}
}

// fail writes err to the client. Failures the client cannot act on are
// logged with their cause, which the response hides.
func (h *base) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusOf(err) >= http.StatusInternalServerError {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
	}
	response.FromError(w, err)
}

// pathUUID reads a UUID route variable, answering 400 when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		response.BadRequest(w, name+" must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
