// connection_interfaces.go

// Package handlers provides HTTP request handlers and service interfaces for
// the VPN backend. This file defines the service interface the connection
// handlers depend on, establishing a clear contract between the HTTP layer
// and the business logic. The interface follows the dependency injection
// pattern, allowing handlers to be tested against mocked implementations.
package handlers

import (
	"context"
	"time"

	"github.com/veilpoint/vpn-backend/internal/models"
)

// ConnectionServiceInterface defines the methods required from ConnectionService.
// Implementations own all capacity accounting; handlers only translate between
// HTTP and these calls.
type ConnectionServiceInterface interface {
	// ListServers retrieves the active relay catalog ordered by ping.
	//
	// Parameters:
	//   - ctx: The context for the operation, which may include deadlines or cancellation
	//
	// Returns:
	//   - The active servers, best ping first
	//   - An error if database access fails
	ListServers(ctx context.Context) ([]*models.Server, error)

	// Connect opens a session for the user on the given server.
	//
	// Parameters:
	//   - ctx: The context for the operation, which may include deadlines or cancellation
	//   - userID: The connecting user; callers must resolve anonymous users first
	//   - serverID: The relay server to connect to
	//
	// Returns:
	//   - The created session's ID, token and start timestamp
	//   - An error if the server doesn't exist, is at capacity, or if database access fails
	Connect(ctx context.Context, userID, serverID string) (*models.ConnectResult, error)

	// Disconnect closes the active session identified by the token.
	//
	// Parameters:
	//   - ctx: The context for the operation, which may include deadlines or cancellation
	//   - token: The opaque session token returned by Connect
	//
	// Returns:
	//   - The session duration in whole seconds, never negative
	//   - An error if no active session matches or if database access fails
	Disconnect(ctx context.Context, token string) (int64, error)

	// History retrieves a user's disconnected sessions, newest first.
	//
	// Parameters:
	//   - ctx: The context for the operation, which may include deadlines or cancellation
	//   - userID: The user whose history to read
	//   - limit: Maximum entries to return; out-of-range values fall back to the default
	//
	// Returns:
	//   - The history entries, empty if the user has none
	//   - An error if database access fails
	History(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error)

	// CloseStaleSessions force-closes sessions abandoned by their clients.
	//
	// Parameters:
	//   - ctx: The context for the operation, which may include deadlines or cancellation
	//   - olderThan: Sessions active longer than this are considered abandoned
	//
	// Returns:
	//   - The number of sessions closed
	//   - An error if the sweep could not run
	CloseStaleSessions(ctx context.Context, olderThan time.Duration) (int, error)
}
