package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventnotifier/internal/delivery/http/controllers"
	"eventnotifier/internal/delivery/http/middleware"
	"eventnotifier/internal/domain"
)

// routeMethods are the verbs registered by NewRouter, advertised on CORS preflight.
var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// Controllers groups the handlers mounted by NewRouter.
type Controllers struct {
	Users    *controllers.UserController
	Triggers *controllers.TriggerController
	Health   *controllers.HealthController
}

// NewRouter initializes the HTTP router with all application routes
func NewRouter(c Controllers, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	requireAuth := middleware.RequireAuth(verifier, logger)

	mux.HandleFunc("GET /health", c.Health.Health)

	// Users
	mux.HandleFunc("POST /users", c.Users.Create)
	mux.HandleFunc("GET /users/{userID}", c.Users.Get)
	mux.HandleFunc("PUT /users/{userID}", c.Users.Update)
	mux.HandleFunc("DELETE /users/{userID}", c.Users.Delete)

	// Triggers
	mux.HandleFunc("POST /triggers/{eventType}", requireAuth(c.Triggers.Run))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with CORS and request logging.
func NewHandler(mux *http.ServeMux, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.LoggingMiddleware(logger, middleware.CORS(allowedOrigins, routeMethods, mux))
}
