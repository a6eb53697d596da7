package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/pkg/response"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth       *Authenticator
	Booking    *BookingHandler
	Review     *ReviewHandler
	Calculator *CalculatorHandler
	Admin      *AdminHandler
	Health     *HealthHandler
}

func NewRouter(h Handlers, logger *logrus.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))

	// Health check
	router.HandleFunc("/health", h.Health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", h.Health.Ready).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	properties := api.PathPrefix("/properties/{propertyId}").Subrouter()
	properties.HandleFunc("/availability", h.Booking.CheckAvailability).Methods(http.MethodGet)
	properties.HandleFunc("/booked-dates", h.Booking.ListBookedDates).Methods(http.MethodGet)
	properties.HandleFunc("/reviews", h.Review.ListPropertyReviews).Methods(http.MethodGet)

	calculator := api.PathPrefix("/calculator").Subrouter()
	calculator.HandleFunc("/payment", h.Calculator.MonthlyPayment).Methods(http.MethodPost)
	calculator.HandleFunc("/schedule", h.Calculator.Schedule).Methods(http.MethodPost)
	calculator.HandleFunc("/schedule/export", h.Calculator.ExportSchedule).Methods(http.MethodPost)
	calculator.HandleFunc("/bond", h.Calculator.BondSummary).Methods(http.MethodPost)

	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(h.Auth.RequireAuth)
	bookings.HandleFunc("", h.Booking.CreateBooking).Methods(http.MethodPost)
	bookings.HandleFunc("", h.Booking.ListMyBookings).Methods(http.MethodGet)
	bookings.HandleFunc("/{bookingId}/cancel", h.Booking.CancelBooking).Methods(http.MethodPost)

	reviews := api.PathPrefix("/reviews").Subrouter()
	reviews.Use(h.Auth.RequireAuth)
	reviews.HandleFunc("", h.Review.CreateReview).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.Auth.RequireAuth, h.Auth.RequireAdmin)
	admin.HandleFunc("/bookings", h.Admin.ListBookings).Methods(http.MethodGet)
	admin.HandleFunc("/bookings/{bookingId}/status", h.Admin.UpdateBookingStatus).Methods(http.MethodPatch)
	admin.HandleFunc("/bookings/{bookingId}/dates", h.Admin.RescheduleBooking).Methods(http.MethodPut)
	admin.HandleFunc("/bookings/{bookingId}", h.Admin.DeleteBooking).Methods(http.MethodDelete)
	admin.HandleFunc("/reviews", h.Admin.ListReviews).Methods(http.MethodGet)
	admin.HandleFunc("/reviews/{reviewId}", h.Admin.DeleteReview).Methods(http.MethodDelete)

	return router
}
