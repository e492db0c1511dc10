// Package server provides the HTTP server implementation for the VPN backend.
// It handles routing, middleware configuration, and server lifecycle management.
//
// The route surface is deliberately small: a health check, a version
// endpoint, the legacy action-multiplexed VPN endpoint, and typed aliases
// for each VPN operation. All routes share the same CORS policy and the
// preflight contract answers OPTIONS with an empty 200.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/middleware"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// SetupRoutes configures the routes for the application.
// It creates a router hierarchy with middleware and grouped routes.
//
// The configured routes include:
// - Health check and version endpoints
// - The multiplexed VPN endpoint selected by the action query parameter
// - Typed per-operation routes backed by the same handlers
func (s *Server) SetupRoutes() {
	// Create router
	r := chi.NewRouter()

	// Custom CORS middleware that applies to all routes, including the
	// empty-200 preflight the clients expect
	r.Use(middleware.CORS(&s.Config.CORS))

	// Base middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery())
	r.Use(chimiddleware.RealIP)
	if s.Config.Logging.RequestLog {
		r.Use(middleware.RequestLogger())
	}

	// Health check and version routes
	r.Group(func(r chi.Router) {
		r.Get(constants.HealthPath, func(w http.ResponseWriter, r *http.Request) {
			// Check database connection
			err := s.Db.HealthCheck(r.Context())
			if err != nil {
				log.Error().Err(err).Msg("Health check failed")
				utils.Error(w, constants.StatusServiceUnavailable, constants.MsgServiceUnavailable)
				return
			}

			utils.JSON(w, constants.StatusOK, map[string]string{
				"status":  "healthy",
				"version": s.Config.App.Version,
			})
		})

		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			utils.JSON(w, constants.StatusOK, map[string]string{
				"version":     s.Config.App.Version,
				"environment": s.Config.App.Environment,
			})
		})
	})

	// API routes
	r.Route(constants.APIBasePath, func(r chi.Router) {
		// Legacy multiplexed endpoint: the operation is selected by the
		// method and the action query parameter
		r.Get("/vpn", s.Handlers.ConnectionHandler.ServeAction)
		r.Post("/vpn", s.Handlers.ConnectionHandler.ServeAction)

		// Typed routes backed by the same handlers
		r.Route("/vpn/servers", func(r chi.Router) {
			r.Get("/", s.Handlers.ConnectionHandler.ListServers)
		})
		r.Route("/vpn/sessions", func(r chi.Router) {
			r.Post("/", s.Handlers.ConnectionHandler.Connect)
			r.Post("/close", s.Handlers.ConnectionHandler.Disconnect)
			r.Get("/history", s.Handlers.ConnectionHandler.History)
		})
	})

	// Everything else is a 404 in the contract's error shape
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, constants.MsgNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, constants.MsgNotFound)
	})

	s.router = r
}
