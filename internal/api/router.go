// Package api assembles the HTTP surface: routes, middleware chain, and
// handler wiring.
package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/evently-app/server/internal/api/handlers"
	"github.com/evently-app/server/internal/api/middleware"
	"github.com/evently-app/server/internal/auth"
	"github.com/evently-app/server/internal/config"
	"github.com/evently-app/server/internal/domain/events"
	"github.com/evently-app/server/internal/domain/users"
	"github.com/evently-app/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Deps carries the constructed services the router wires onto routes.
type Deps struct {
	Users       *users.Service
	Events      *events.Service
	JWT         *auth.JWTManager
	Revocations auth.RevocationStore
	DB          handlers.Pinger
	Version     string
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Deps) http.Handler {
	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, deps.Revocations, cfg.Environment)
	eventsHandler := handlers.NewEventsHandler(deps.Events, cfg.Environment)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Version)

	authed := middleware.Authenticate(deps.JWT, deps.Revocations, deps.Users, cfg.Environment)
	registrationLimit := middleware.RegistrationLimit(cfg.RateLimit.RegistrationWindow, cfg.Environment)

	mux := http.NewServeMux()
	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/metrics", metrics.Handler())

	mux.Handle("/api/v1/auth/signup", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Signup),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	}))
	mux.Handle("/api/v1/auth/logout", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(authHandler.Logout)),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodPost: authed(http.HandlerFunc(eventsHandler.Create)),
	}))
	mux.Handle("/api/v1/events/mine", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(eventsHandler.ListMine)),
	}))
	mux.Handle("/api/v1/events/others", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(eventsHandler.ListOthers)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodDelete: authed(http.HandlerFunc(eventsHandler.Delete)),
	}))
	mux.Handle("/api/v1/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost: authed(registrationLimit(http.HandlerFunc(eventsHandler.Register))),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
