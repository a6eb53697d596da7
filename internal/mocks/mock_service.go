package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/amortization"
)

type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CheckAvailability(ctx context.Context, propertyID string, dates domain.DateRange) (bool, error) {
	args := m.Called(ctx, propertyID, dates)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingService) CreateBooking(ctx context.Context, requester domain.Requester, request *domain.CreateBookingRequest) (*domain.Booking, error) {
	args := m.Called(ctx, requester, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) (*domain.Booking, error) {
	args := m.Called(ctx, requester, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookedDateRanges(ctx context.Context, propertyID string) ([]domain.DateRange, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.DateRange), args.Error(1)
}

func (m *MockBookingService) ListUserBookings(ctx context.Context, requester domain.Requester, status domain.BookingStatus) ([]*domain.Booking, error) {
	args := m.Called(ctx, requester, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *MockBookingService) ListBookings(ctx context.Context, requester domain.Requester, filter domain.BookingFilter) ([]*domain.Booking, error) {
	args := m.Called(ctx, requester, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Booking), args.Error(1)
}

func (m *MockBookingService) UpdateStatus(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	args := m.Called(ctx, requester, bookingID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) Reschedule(ctx context.Context, requester domain.Requester, bookingID uuid.UUID, dates domain.DateRange) (*domain.Booking, error) {
	args := m.Called(ctx, requester, bookingID, dates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingService) DeleteBooking(ctx context.Context, requester domain.Requester, bookingID uuid.UUID) error {
	args := m.Called(ctx, requester, bookingID)
	return args.Error(0)
}

type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) CreateReview(ctx context.Context, requester domain.Requester, request *domain.CreateReviewRequest) (*domain.Review, error) {
	args := m.Called(ctx, requester, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *MockReviewService) ListPropertyReviews(ctx context.Context, propertyID string) (*domain.PropertyReviewsResponse, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PropertyReviewsResponse), args.Error(1)
}

func (m *MockReviewService) ListReviews(ctx context.Context, requester domain.Requester) ([]*domain.Review, error) {
	args := m.Called(ctx, requester)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Review), args.Error(1)
}

func (m *MockReviewService) DeleteReview(ctx context.Context, requester domain.Requester, reviewID uuid.UUID) error {
	args := m.Called(ctx, requester, reviewID)
	return args.Error(0)
}

type MockCalculatorService struct {
	mock.Mock
}

func (m *MockCalculatorService) MonthlyPayment(ctx context.Context, request *domain.PaymentRequest) (*domain.PaymentResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentResponse), args.Error(1)
}

func (m *MockCalculatorService) Schedule(ctx context.Context, request *domain.ScheduleRequest) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

// ExportSchedule writes the third expectation value, a string, to w.
func (m *MockCalculatorService) ExportSchedule(ctx context.Context, request *domain.ScheduleRequest, format string, w io.Writer) (string, error) {
	args := m.Called(ctx, request, format)
	if body, ok := args.Get(2).(string); ok && args.Error(1) == nil {
		_, _ = io.WriteString(w, body)
	}
	return args.String(0), args.Error(1)
}

func (m *MockCalculatorService) BondSummary(ctx context.Context, request *domain.BondRequest) (*amortization.BondSummary, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*amortization.BondSummary), args.Error(1)
}
