package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/response"
)

type ReviewHandler struct {
	base
	service ReviewService
}

func NewReviewHandler(service ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{
		base:    newBase(logger),
		service: service,
	}
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var request domain.CreateReviewRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	review, err := h.service.CreateReview(r.Context(), RequesterFrom(r.Context()), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Created(w, review)
}

func (h *ReviewHandler) ListPropertyReviews(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListPropertyReviews(r.Context(), mux.Vars(r)["propertyId"])
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}
