package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"eventnotifier/internal/delivery/http/helpers"
	"eventnotifier/internal/domain"
	"eventnotifier/internal/services"
)

// CreateUserRequest is the request body for POST /users.
type CreateUserRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Birthday    string `json:"birthday"`
	Anniversary string `json:"anniversary,omitempty"`
	TimeZone    string `json:"timezone"`
}

// Validate implements Validator.
func (c CreateUserRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.FirstName) == "" {
		errs = append(errs, "firstName is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		errs = append(errs, "lastName is required")
	}
	if strings.TrimSpace(c.Birthday) == "" {
		errs = append(errs, "birthday is required")
	}
	if strings.TrimSpace(c.TimeZone) == "" {
		errs = append(errs, "timezone is required")
	}
	return errs
}

// UpdateUserRequest is the request body for PUT /users/{userID}. Only the time zone can change.
type UpdateUserRequest struct {
	TimeZone string `json:"timezone"`
}

// Validate implements Validator.
func (u UpdateUserRequest) Validate() []string {
	if strings.TrimSpace(u.TimeZone) == "" {
		return []string{"timezone is required"}
	}
	return nil
}

// UserSuccessResponse is the success response envelope for user endpoints.
type UserSuccessResponse struct {
	Data  *domain.User      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// UserController handles user profile endpoints.
type UserController struct {
	Logger  *slog.Logger
	Service domain.UserService
}

// NewUserController creates a UserController with the given logger and service.
func NewUserController(logger *slog.Logger, svc domain.UserService) *UserController {
	return &UserController{
		Logger:  logger,
		Service: svc,
	}
}

// Create godoc
// @Summary Register a user
// @Description Create a user with names, birthday ("YYYY-MM-DD" or "--MM-DD"), optional anniversary and an IANA time zone.
// @Tags users
// @Accept json
// @Produce json
// @Param body body CreateUserRequest true "User data"
// @Success 201 {object} controllers.UserSuccessResponse "data contains the created user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [post]
func (c *UserController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.Create(r.Context(), domain.CreateUserInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Birthday:    req.Birthday,
		Anniversary: req.Anniversary,
		TimeZone:    req.TimeZone,
	})
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, user)
}

// Get godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Param userID path string true "User ID"
// @Success 200 {object} controllers.UserSuccessResponse "data contains the user"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID} [get]
func (c *UserController) Get(w http.ResponseWriter, r *http.Request) {
	user, err := c.Service.GetByID(r.Context(), r.PathValue("userID"))
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Update godoc
// @Summary Change a user's time zone
// @Description Names and dates are immutable; only the time zone can be updated.
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "User ID"
// @Param body body UpdateUserRequest true "New time zone"
// @Success 200 {object} controllers.UserSuccessResponse "data contains the updated user"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID} [put]
func (c *UserController) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	user, err := c.Service.UpdateTimeZone(r.Context(), r.PathValue("userID"), req.TimeZone)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, user)
}

// Delete godoc
// @Summary Delete a user
// @Tags users
// @Param userID path string true "User ID"
// @Success 204 "no content"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/{userID} [delete]
func (c *UserController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := c.Service.Delete(r.Context(), r.PathValue("userID")); err != nil {
		c.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *UserController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case services.IsValidationError(err):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "user not found")
	case errors.Is(err, domain.ErrDuplicateUser):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "user already exists")
	default:
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
