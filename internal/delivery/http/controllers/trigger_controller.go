package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"eventnotifier/internal/delivery/http/helpers"
	"eventnotifier/internal/delivery/http/middleware"
	"eventnotifier/internal/domain"
	"eventnotifier/internal/services"
)

// TriggerRunner evaluates the notification pipeline at an instant.
type TriggerRunner interface {
	RunAt(ctx context.Context, now time.Time) (*services.TriggerReport, error)
}

// RunTriggerRequest is the optional request body for POST /triggers/{eventType}.
type RunTriggerRequest struct {
	// At replays a past or future instant (RFC 3339). Defaults to now.
	At *time.Time `json:"at,omitempty"`
}

// TriggerSuccessResponse is the success response envelope for POST /triggers/{eventType} (200).
type TriggerSuccessResponse struct {
	Data  *services.TriggerReport `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

// TriggerController runs the pipeline on demand.
type TriggerController struct {
	Logger   *slog.Logger
	Triggers map[domain.EventType]TriggerRunner
	Clock    domain.Clock
}

// NewTriggerController creates a TriggerController. triggers maps each enabled event type to its runner.
func NewTriggerController(logger *slog.Logger, triggers map[domain.EventType]TriggerRunner, clock domain.Clock) *TriggerController {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &TriggerController{Logger: logger, Triggers: triggers, Clock: clock}
}

// Run godoc
// @Summary Run the notification trigger
// @Description Samples time zones at 09:00 local, matches users whose event falls today and emits dispatch messages. Safe to repeat.
// @Tags triggers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventType path string true "birthday or anniversary"
// @Param body body RunTriggerRequest false "Optional instant to evaluate"
// @Success 200 {object} controllers.TriggerSuccessResponse "data contains the trigger report"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /triggers/{eventType} [post]
func (c *TriggerController) Run(w http.ResponseWriter, r *http.Request) {
	eventType, err := domain.ParseEventType(r.PathValue("eventType"))
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	runner, ok := c.Triggers[eventType]
	if !ok {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "trigger not enabled for "+eventType.String())
		return
	}
	var req RunTriggerRequest
	if !helpers.DecodeOptional(w, r, &req) {
		return
	}
	at := c.Clock.Now()
	if req.At != nil {
		at = *req.At
	}
	subject, _ := middleware.SubjectFromContext(r.Context())
	c.Logger.InfoContext(r.Context(), "manual trigger", "event_type", eventType, "at", at.UTC(), "subject", subject)

	report, err := runner.RunAt(r.Context(), at)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}
