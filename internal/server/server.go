// Package server provides the HTTP server implementation for the VPN backend.
// It handles routing, middleware configuration, and server lifecycle management.
//
// The server package follows a structured initialization approach with dependency
// injection and proper lifecycle management: database → repositories → services →
// handlers → routes. It handles graceful shutdown and periodic maintenance of
// abandoned sessions.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/config"
	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/handlers"
	"github.com/veilpoint/vpn-backend/internal/repository"
	"github.com/veilpoint/vpn-backend/internal/service"
	"github.com/veilpoint/vpn-backend/migrations"
	"github.com/veilpoint/vpn-backend/scripts"
)

// Handlers contains all HTTP handlers for the application.
// It centralizes handler management for consistent request processing
// and simplifies dependency injection throughout the application.
type Handlers struct {
	// ConnectionHandler manages the relay catalog and session endpoints
	ConnectionHandler *handlers.ConnectionHandler
}

// Server represents the API server for the VPN backend.
// It encapsulates all server components and handles server lifecycle management,
// including initialization, startup, and graceful shutdown.
type Server struct {
	// Config contains application configuration
	Config *config.AppConfig

	// Db provides database access
	Db *database.Pool

	// router handles HTTP routing
	router chi.Router

	// Handlers contains all HTTP request handlers
	Handlers *Handlers

	// connectionService backs the handlers and the maintenance sweep
	connectionService *service.ConnectionService

	// httpServer is the underlying HTTP server
	httpServer *http.Server

	// stopMaintenance cancels the background maintenance loop
	stopMaintenance context.CancelFunc
}

// NewServer creates a new server instance with all required components.
// It connects to the database, runs migrations and seeding, wires the
// repositories, service and handlers, then sets up the HTTP routes.
//
// Parameters:
//   - cfg: Application configuration including database and server settings
//
// Returns:
//   - A fully initialized Server instance ready to start
//   - An error if initialization of any component fails
func NewServer(cfg *config.AppConfig) (*Server, error) {
	// Create server instance
	s := &Server{
		Config: cfg,
	}

	// Initialize components
	if err := s.setupDatabase(); err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	s.setupServices()
	s.setupHandlers()

	// Set up routes
	s.SetupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Server.ServerAddress(),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  constants.DefaultIdleTimeout,
	}

	return s, nil
}

// setupDatabase initializes the database connection and runs migrations.
// It ensures the schema is up to date and seeds the relay catalog if empty.
//
// Returns:
//   - An error if connection, migration, or seeding fails
func (s *Server) setupDatabase() error {
	// Connect to the database
	db, err := database.Connect(s.Config)
	if err != nil {
		return err
	}

	s.Db = db

	// Run migrations to create tables if they don't exist
	migrator := migrations.NewMigrator(db)
	if err := migrator.RunMigrations(context.Background()); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Seed initial data
	seeder := scripts.NewSeeder(db)
	if err := seeder.SeedDatabase(context.Background()); err != nil {
		return fmt.Errorf("failed to seed database: %w", err)
	}

	return nil
}

// setupServices initializes the repositories and the connection service.
func (s *Server) setupServices() {
	serverRepo := repository.NewServerRepository(s.Db)
	sessionRepo := repository.NewSessionRepository(s.Db)
	profileRepo := repository.NewProfileRepository(s.Db)

	s.connectionService = service.NewConnectionService(s.Db, serverRepo, sessionRepo, profileRepo)
}

// setupHandlers initializes all HTTP request handlers.
func (s *Server) setupHandlers() {
	// *service.ConnectionService implicitly implements handlers.ConnectionServiceInterface
	s.Handlers = &Handlers{
		ConnectionHandler: handlers.NewConnectionHandler(s.connectionService),
	}
}

// Start starts the HTTP server and sets up signal handling for graceful shutdown.
// It runs in a blocking mode, waiting for either server errors or shutdown signals.
//
// Returns:
//   - An error if the server fails to start or encounters an error during operation
//
// This method performs the following operations:
// 1. Starts the HTTP server in a separate goroutine
// 2. Sets up signal handling for graceful shutdown (SIGINT, SIGTERM)
// 3. Initializes the periodic stale-session sweep
// 4. Blocks until an error occurs or a shutdown signal is received
// 5. Performs graceful shutdown when requested
func (s *Server) Start() error {
	// Create a channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start the server in a separate goroutine
	go func() {
		log.Info().
			Str("address", s.Config.Server.ServerAddress()).
			Msg("Starting server")

		serverErrors <- s.httpServer.ListenAndServe()
	}()

	// Create a channel to listen for OS signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Set up maintenance tasks
	s.SetupMaintenanceTasks()

	// Block until an OS signal or an error is received
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info().
			Str("signal", sig.String()).
			Msg("Shutdown signal received")

		// Create a context with a timeout for graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), s.Config.Server.ShutdownTimeout)
		defer cancel()

		// Shutdown the server
		if err := s.Shutdown(ctx); err != nil {
			// Shutdown the server immediately if graceful shutdown fails
			if closeErr := s.httpServer.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the server, closing all connections properly.
// It ensures in-flight requests are completed before shutting down.
//
// Parameters:
//   - ctx: Context with timeout for the shutdown operation
//
// Returns:
//   - An error if shutdown fails within the context timeout
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the maintenance loop first so it cannot race the pool close
	if s.stopMaintenance != nil {
		s.stopMaintenance()
	}

	// Shutdown the HTTP server
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	log.Info().Msg("Server stopped gracefully")

	// Close the database connection
	s.Db.Close()
	log.Info().Msg("Database connection closed")

	return nil
}

// SetupMaintenanceTasks sets up periodic maintenance tasks for the server.
// A background goroutine force-closes sessions whose clients never
// disconnected, releasing their occupancy slots. The sweep interval and the
// stale age threshold come from the maintenance configuration.
func (s *Server) SetupMaintenanceTasks() {
	ctx, cancel := context.WithCancel(context.Background())
	s.stopMaintenance = cancel

	ticker := time.NewTicker(s.Config.Maintenance.Interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// Bound each sweep so a slow database cannot pile up runs
				sweepCtx, sweepCancel := context.WithTimeout(ctx, 5*time.Minute)

				if count, err := s.connectionService.CloseStaleSessions(sweepCtx, s.Config.Maintenance.StaleSessionAge); err != nil {
					log.Error().Err(err).Msg("Failed to close stale sessions")
				} else if count > 0 {
					log.Info().Int("count", count).Msg("Closed stale sessions")
				}

				sweepCancel()
			}
		}
	}()
}
