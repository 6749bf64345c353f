package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"eventnotifier/internal/delivery/http/helpers"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthStatus is the body of GET /health.
type HealthStatus struct {
	Status string `json:"status"`
	Zones  int    `json:"zones"`
}

// HealthController reports liveness of the process and its database.
type HealthController struct {
	Logger *slog.Logger
	DB     Pinger
	Zones  int
}

// NewHealthController creates a HealthController. db may be nil when no SQL store is configured.
func NewHealthController(logger *slog.Logger, db Pinger, zones int) *HealthController {
	return &HealthController{Logger: logger, DB: db, Zones: zones}
}

// Health godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /health [get]
func (c *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if c.DB != nil {
		if err := c.DB.PingContext(r.Context()); err != nil {
			c.Logger.ErrorContext(r.Context(), "health check failed", "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "database unreachable")
			return
		}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, HealthStatus{Status: "ok", Zones: c.Zones})
}
