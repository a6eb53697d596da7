package handler

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/internal/domain"
	"github.com/segyhp/property-engine/pkg/export"
	"github.com/segyhp/property-engine/pkg/response"
)

const exportFileName = "amortization-schedule"

type CalculatorHandler struct {
	base
	service CalculatorService
}

func NewCalculatorHandler(service CalculatorService, logger *logrus.Logger) *CalculatorHandler {
	return &CalculatorHandler{
		base:    newBase(logger),
		service: service,
	}
}

func (h *CalculatorHandler) MonthlyPayment(w http.ResponseWriter, r *http.Request) {
	var request domain.PaymentRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.MonthlyPayment(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

func (h *CalculatorHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var request domain.ScheduleRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.Schedule(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}

// ExportSchedule streams the schedule as a CSV or XLSX attachment chosen by
// ?format=. The file is rendered in memory first so failures still produce a
// JSON error.
func (h *CalculatorHandler) ExportSchedule(w http.ResponseWriter, r *http.Request) {
	var request domain.ScheduleRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	var buf bytes.Buffer
	format := r.URL.Query().Get("format")
	contentType, err := h.service.ExportSchedule(r.Context(), &request, format, &buf)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	extension := domain.ExportFormatCSV
	if contentType != export.ContentTypeCSV {
		extension = domain.ExportFormatXLSX
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+"."+extension+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithError(err).Warn("writing schedule export")
	}
}

func (h *CalculatorHandler) BondSummary(w http.ResponseWriter, r *http.Request) {
	var request domain.BondRequest
	if err := h.decodeAndValidate(w, r, &request); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	result, err := h.service.BondSummary(r.Context(), &request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.Success(w, result)
}
