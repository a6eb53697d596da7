package handler

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/response"
)

type BookingHandler struct {
	base
	service BookingService
}

func NewBookingHandler(service BookingService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		base:    newBase(logger),
		service: service,
	}
}

// CheckAvailability answers GET /properties/{propertyId}/availability?start=&end=.
func (h *BookingHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	propertyID := mux.Vars(r)["propertyId"]

	start, err := domain.ParseDate(r.URL.Query().Get("start"))
	if err != nil {
		response.BadRequest(w, "start: "+err.Error())
		return
	}
	end, err := domain.ParseDate(r.URL.Query().Get("end"))
	if err != nil {
		response.BadRequest(w, "end: "+err.Error())
		return
	}

	available, err := h.service.CheckAvailability(r.Context(), propertyID, domain.NewDateRange(start, end))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.AvailabilityResponse{
		PropertyID: propertyID,
		StartDate:  start,
		EndDate:    end,
		Available:  available,
	})
}

func (h *BookingHandler) ListBookedDates(w http.ResponseWriter, r *http.Request) {
	propertyID := mux.Vars(r)["propertyId"]

	ranges, err := h.service.ListBookedDateRanges(r.Context(), propertyID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, domain.BookedDatesResponse{PropertyID: propertyID, Ranges: ranges})
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateBookingRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	booking, err := h.service.CreateBooking(r.Context(), RequesterFrom(r.Context()), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, booking)
}

// ListMyBookings lists the caller's bookings, optionally filtered by ?status=.
func (h *BookingHandler) ListMyBookings(w http.ResponseWriter, r *http.Request) {
	status := domain.BookingStatus(strings.ToUpper(r.URL.Query().Get("status")))

	bookings, err := h.service.ListUserBookings(r.Context(), RequesterFrom(r.Context()), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, bookings)
}

func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathUUID(w, r, "bookingId")
	if !ok {
		return
	}

	booking, err := h.service.CancelBooking(r.Context(), RequesterFrom(r.Context()), bookingID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, booking)
}
