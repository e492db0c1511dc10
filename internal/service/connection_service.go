// Package service implements the business logic of the VPN backend.
//
// The connection service owns the session lifecycle: listing the relay
// catalog, opening sessions against server capacity, closing them, and
// reading per-user history. Capacity accounting is done inside a single
// database transaction per mutation so concurrent connects against the
// same server cannot oversubscribe it.
package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/repository"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// ConnectionService handles relay catalog and session lifecycle operations.
type ConnectionService struct {
	db          *database.Pool
	serverRepo  repository.ServerRepository
	sessionRepo repository.SessionRepository
	profileRepo repository.ProfileRepository
}

// NewConnectionService creates a new ConnectionService.
func NewConnectionService(
	db *database.Pool,
	serverRepo repository.ServerRepository,
	sessionRepo repository.SessionRepository,
	profileRepo repository.ProfileRepository,
) *ConnectionService {
	return &ConnectionService{
		db:          db,
		serverRepo:  serverRepo,
		sessionRepo: sessionRepo,
		profileRepo: profileRepo,
	}
}

// ListServers retrieves the active relay catalog, best ping first.
func (s *ConnectionService) ListServers(ctx context.Context) ([]*models.Server, error) {
	servers, err := s.serverRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list servers: %w", err)
	}
	return servers, nil
}

// Connect opens a session for the user on the given server.
//
// The capacity check, session insert, occupancy increment and profile bump
// all happen in one transaction. The capacity read takes a row lock on the
// server, so two clients racing for the last slot serialize: the second
// one re-reads the incremented occupancy and is refused.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - userID: The connecting user, never empty (callers default anonymous users)
//   - serverID: The relay server to connect to
//
// Returns:
//   - The created session's ID, token and start timestamp
//   - NotFoundError if the server does not exist
//   - CapacityExceededError if the server is at capacity
func (s *ConnectionService) Connect(ctx context.Context, userID, serverID string) (*models.ConnectResult, error) {
	token, err := models.GenerateSessionToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	session := &models.Session{
		UserID:       userID,
		ServerID:     serverID,
		SessionToken: token,
	}

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Lock the server row for the duration of the transaction
		current, max, err := s.serverRepo.GetCapacityForUpdate(ctx, tx, serverID)
		if err != nil {
			return err
		}

		if current >= max {
			return utils.NewCapacityExceededError()
		}

		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return err
		}

		if err := s.serverRepo.IncrementUsers(ctx, tx, serverID); err != nil {
			return err
		}

		return s.profileRepo.IncrementConnections(ctx, tx, userID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64(constants.ColumnSessionID, session.ID).
		Str(constants.ColumnUserID, userID).
		Str(constants.ColumnServerID, serverID).
		Msg("Connection opened")

	return &models.ConnectResult{
		SessionID:    session.ID,
		SessionToken: session.SessionToken,
		ConnectedAt:  session.ConnectedAt,
	}, nil
}

// Disconnect closes the active session identified by the token and returns
// the session length in whole seconds.
//
// The status transition and the occupancy decrement share a transaction, so
// a session is never closed without releasing its slot. Two racing
// disconnects for the same token resolve to one winner: the status
// predicate on the update makes the loser's transaction report NotFound
// and roll back before touching occupancy.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - token: The opaque session token returned by Connect
//
// Returns:
//   - The session duration in seconds, never negative
//   - NotFoundError if no active session matches the token
func (s *ConnectionService) Disconnect(ctx context.Context, token string) (int64, error) {
	session, err := s.sessionRepo.GetActiveByToken(ctx, token)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	duration := session.DurationAt(now)

	err = s.db.Transaction(ctx, func(tx *sql.Tx) error {
		if err := s.sessionRepo.Close(ctx, tx, token, now, duration); err != nil {
			return err
		}
		return s.serverRepo.DecrementUsers(ctx, tx, session.ServerID)
	})
	if err != nil {
		return 0, err
	}

	log.Info().
		Int64(constants.ColumnSessionID, session.ID).
		Str(constants.ColumnServerID, session.ServerID).
		Int64("duration_seconds", duration).
		Msg("Connection closed")

	return duration, nil
}

// History retrieves a user's disconnected sessions, newest first.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - userID: The user whose history to read
//   - limit: Maximum entries to return; non-positive or oversized values
//     fall back to the default page size
//
// Returns:
//   - The history entries, empty if the user has none
func (s *ConnectionService) History(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error) {
	if limit <= 0 || limit > constants.MaxHistoryLimit {
		limit = constants.DefaultHistoryLimit
	}

	history, err := s.sessionRepo.HistoryByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}

	// The wire shape is a list, never null
	if history == nil {
		history = []*models.HistoryEntry{}
	}

	return history, nil
}

// CloseStaleSessions force-closes sessions whose clients never disconnected.
// Each stale session goes through the same transactional close path as a
// client disconnect, so occupancy stays consistent. Called periodically by
// the server's maintenance loop.
//
// Parameters:
//   - ctx: Context for cancellation control
//   - olderThan: Sessions active longer than this are considered abandoned
//
// Returns:
//   - The number of sessions closed
//   - The last error encountered, if any; the sweep continues past
//     individual failures
func (s *ConnectionService) CloseStaleSessions(ctx context.Context, olderThan time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-olderThan)

	tokens, err := s.sessionRepo.ListStaleActiveTokens(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	closed := 0
	var lastErr error
	for _, token := range tokens {
		if _, err := s.Disconnect(ctx, token); err != nil {
			// A concurrent disconnect may have beaten the sweep; that is
			// not a failure.
			if utils.IsNotFoundError(err) {
				continue
			}
			log.Error().
				Err(err).
				Str(constants.ColumnSessionToken, utils.MaskToken(token)).
				Msg("Failed to close stale session")
			lastErr = err
			continue
		}
		closed++
	}

	if closed > 0 {
		log.Info().
			Int("closed", closed).
			Dur("older_than", olderThan).
			Msg("Stale sessions closed")
	}

	return closed, lastErr
}
