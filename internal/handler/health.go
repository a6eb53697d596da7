package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/property-engine/pkg/response"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks  map[string]Pinger
	timeout time.Duration
	logger  *logrus.Logger
}

// NewHealthHandler builds a health handler probing each named dependency
// on readiness checks, bounded by timeout.
func NewHealthHandler(checks map[string]Pinger, timeout time.Duration, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: timeout,
		logger:  logger,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic health check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	response.Success(w, status)
}

// Ready pings every registered dependency.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := h.checks[name].Ping(ctx)
		cancel()

		if err != nil {
			h.logger.WithError(err).WithField("dependency", name).Warn("readiness check failed")
			status.Status = "error"
			status.Checks[name] = "failed: " + err.Error()
			continue
		}
		status.Checks[name] = "ok"
	}

	if status.Status == "error" {
		response.JSON(w, http.StatusServiceUnavailable, status)
		return
	}

	response.Success(w, status)
}
