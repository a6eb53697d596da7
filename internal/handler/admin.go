package handler

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/response"
)

// AdminHandler serves the back-office routes. Every route sits behind
// RequireAdmin and the services check the role again.
type AdminHandler struct {
	base
	bookings BookingService
	reviews  ReviewService
}

func NewAdminHandler(bookings BookingService, reviews ReviewService, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		base:     newBase(logger),
		bookings: bookings,
		reviews:  reviews,
	}
}

// ListBookings accepts ?property_id=, ?user_id= and ?status= filters.
func (h *AdminHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.BookingFilter{
		PropertyID: query.Get("property_id"),
		UserID:     query.Get("user_id"),
		Status:     domain.BookingStatus(strings.ToUpper(query.Get("status"))),
	}

	bookings, err := h.bookings.ListBookings(r.Context(), RequesterFrom(r.Context()), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, bookings)
}

func (h *AdminHandler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	var request domain.UpdateBookingStatusRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookings.UpdateStatus(r.Context(), RequesterFrom(r.Context()), bookingID, request.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, booking)
}

func (h *AdminHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	var request domain.RescheduleBookingRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	booking, err := h.bookings.Reschedule(r.Context(), RequesterFrom(r.Context()), bookingID, request.Range())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, booking)
}

func (h *AdminHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	if err := h.bookings.DeleteBooking(r.Context(), RequesterFrom(r.Context()), bookingID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviews.ListReviews(r.Context(), RequesterFrom(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, reviews)
}

func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := pathUUID(w, r, "reviewId")
	if !ok {
		return
	}

	if err := h.reviews.DeleteReview(r.Context(), RequesterFrom(r.Context()), reviewID); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
