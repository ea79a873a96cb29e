package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/segyhp/invoice-followups/pkg/response"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db      pinger
	cache   cachePinger
	timeout time.Duration
	now     func() time.Time
}

func NewHealthHandler(db pinger, cache cachePinger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		timeout: timeout,
		now:     time.Now,
	}
}

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health performs a basic health check
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthStatus{
		Status:    "ok",
		Timestamp: h.now(),
		Checks:    map[string]string{},
	})
}

// Ready checks database and redis connectivity
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: h.now(),
		Checks:    make(map[string]string),
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		status.Status = "error"
		status.Checks["database"] = "failed: " + err.Error()
	} else {
		status.Checks["database"] = "ok"
	}

	if err := h.cache.Ping(ctx); err != nil {
		status.Status = "error"
		status.Checks["redis"] = "failed: " + err.Error()
	} else {
		status.Checks["redis"] = "ok"
	}

	if status.Status == "error" {
		details := make(map[string]interface{}, len(status.Checks))
		for name, check := range status.Checks {
			details[name] = check
		}
		response.Error(w, http.StatusServiceUnavailable, "NOT_READY", "Service not ready", details)
		return
	}

	response.Success(w, status)
}
