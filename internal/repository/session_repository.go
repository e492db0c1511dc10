// Package repository provides data access interfaces and implementations for
// the VPN backend.
//
// This file implements the session repository, which manages connection
// session rows. A session is inserted active, transitioned exactly once to
// disconnected, and never deleted. The opaque session token is the sole key
// for closing a session.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// SessionRepository defines methods for interacting with connection sessions
// in the database.
type SessionRepository interface {
	// Create inserts a new active session inside the given transaction.
	// The connected-at timestamp is assigned by the store, not the caller,
	// so a client cannot manipulate it; the session's ID and ConnectedAt
	// fields are populated from the inserted row.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction this insert commits with
	//   - session: The session to store; UserID, ServerID and SessionToken
	//     must be populated
	//
	// Returns:
	//   - DuplicateError if a session with the same token already exists
	//   - Other errors for database issues
	//   - nil on successful creation
	Create(ctx context.Context, tx *sql.Tx, session *models.Session) error

	// GetActiveByToken retrieves the active session identified by the
	// given token. Closed sessions do not match: closing twice reports
	// NotFound rather than double-decrementing occupancy.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - token: The opaque session token
	//
	// Returns:
	//   - The session if an active one matches the token
	//   - NotFoundError if no active session matches
	//   - Other errors for database issues
	GetActiveByToken(ctx context.Context, token string) (*models.Session, error)

	// Close transitions the active session identified by the token to
	// disconnected, recording the disconnect timestamp and duration. The
	// transition is irreversible; a session that is already disconnected
	// does not match and yields NotFound.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction this mutation commits with
	//   - token: The opaque session token
	//   - disconnectedAt: When the session ended
	//   - durationSeconds: Whole-second session length, never negative
	//
	// Returns:
	//   - NotFoundError if no active session matches the token
	//   - Other errors for database issues
	//   - nil on success
	Close(ctx context.Context, tx *sql.Tx, token string, disconnectedAt time.Time, durationSeconds int64) error

	// HistoryByUser retrieves a user's disconnected sessions, newest
	// connected-at first, joined with the server's current display name
	// and flag. Absent transfer volumes render as zero.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - userID: The user whose history to read
	//   - limit: Maximum number of entries to return
	//
	// Returns:
	//   - A slice of history entries, empty if the user has none
	//   - An error if retrieval fails
	HistoryByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error)

	// ListStaleActiveTokens retrieves the tokens of sessions that have
	// been active since before the cutoff. Used by the maintenance sweep
	// to force-close sessions whose clients never disconnected.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - cutoff: Sessions connected before this instant are stale
	//
	// Returns:
	//   - The stale session tokens, empty if none
	//   - An error if retrieval fails
	ListStaleActiveTokens(ctx context.Context, cutoff time.Time) ([]string, error)
}

// PostgresSessionRepository is a PostgreSQL implementation of SessionRepository.
type PostgresSessionRepository struct {
	db *database.Pool
}

// NewSessionRepository creates a new SessionRepository implementation for PostgreSQL.
func NewSessionRepository(db *database.Pool) SessionRepository {
	return &PostgresSessionRepository{
		db: db,
	}
}

// Create inserts a new active session and reads back the store-assigned
// identifier and connected-at timestamp.
func (r *PostgresSessionRepository) Create(ctx context.Context, tx *sql.Tx, session *models.Session) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		INSERT INTO vpn_sessions (user_id, server_id, session_token, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, connected_at
	`

	// Execute the query
	err := tx.QueryRowContext(
		ctx,
		query,
		session.UserID,
		session.ServerID,
		session.SessionToken,
		models.SessionStatusActive,
	).Scan(&session.ID, &session.ConnectedAt)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{session.UserID, session.ServerID, session.SessionToken, models.SessionStatusActive},
		time.Since(startTime),
		err,
	)

	if err != nil {
		// Check for unique constraint violations on the token index
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == constants.PGErrorDuplicateConstraint {
			return utils.NewDuplicateError("Session", constants.ColumnSessionToken, utils.MaskToken(session.SessionToken))
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	session.Status = models.SessionStatusActive

	log.Info().
		Int64(constants.ColumnSessionID, session.ID).
		Str(constants.ColumnUserID, session.UserID).
		Str(constants.ColumnServerID, session.ServerID).
		Time(constants.ColumnConnectedAt, session.ConnectedAt).
		Msg("Session created")

	return nil
}

// GetActiveByToken retrieves the active session matching the token.
func (r *PostgresSessionRepository) GetActiveByToken(ctx context.Context, token string) (*models.Session, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT id, user_id, server_id, session_token, status, connected_at
		FROM vpn_sessions
		WHERE session_token = $1 AND status = $2
	`

	// Execute the query
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, token, models.SessionStatusActive).Scan(
		&session.ID,
		&session.UserID,
		&session.ServerID,
		&session.SessionToken,
		&session.Status,
		&session.ConnectedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{token, models.SessionStatusActive},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError(constants.MsgSessionNotFound)
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}

	return session, nil
}

// Close transitions an active session to disconnected.
func (r *PostgresSessionRepository) Close(ctx context.Context, tx *sql.Tx, token string, disconnectedAt time.Time, durationSeconds int64) error {
	// Start query timer
	startTime := time.Now()

	// The status predicate makes the transition single-shot: a token that
	// was already closed matches zero rows.
	query := `
		UPDATE vpn_sessions
		SET status = $1,
		    disconnected_at = $2,
		    duration_seconds = $3
		WHERE session_token = $4 AND status = $5
	`

	// Execute the query
	result, err := tx.ExecContext(
		ctx,
		query,
		models.SessionStatusDisconnected,
		disconnectedAt,
		durationSeconds,
		token,
		models.SessionStatusActive,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{models.SessionStatusDisconnected, disconnectedAt, durationSeconds, token, models.SessionStatusActive},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	// Check if any rows were affected
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return utils.NewNotFoundError(constants.MsgSessionNotFound)
	}

	log.Info().
		Int64("duration_seconds", durationSeconds).
		Time(constants.ColumnDisconnectedAt, disconnectedAt).
		Msg("Session closed")

	return nil
}

// HistoryByUser retrieves a user's disconnected sessions joined with the
// server catalog, newest first.
func (r *PostgresSessionRepository) HistoryByUser(ctx context.Context, userID string, limit int) ([]*models.HistoryEntry, error) {
	// Start query timer
	startTime := time.Now()

	// Server name and flag are joined at query time, so history reflects
	// the catalog's current values rather than a snapshot.
	query := `
		SELECT s.server_id, srv.name, srv.flag_emoji,
		       s.connected_at, s.disconnected_at, s.duration_seconds,
		       s.data_downloaded_mb, s.data_uploaded_mb
		FROM vpn_sessions s
		JOIN vpn_servers srv ON s.server_id = srv.server_id
		WHERE s.user_id = $1 AND s.status = $2
		ORDER BY s.connected_at DESC
		LIMIT $3
	`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query, userID, models.SessionStatusDisconnected, limit)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID, models.SessionStatusDisconnected, limit},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get session history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	// Parse the results
	var history []*models.HistoryEntry
	for rows.Next() {
		entry := &models.HistoryEntry{}
		var duration sql.NullInt64
		var downloaded, uploaded sql.NullFloat64

		err := rows.Scan(
			&entry.ServerID,
			&entry.ServerName,
			&entry.Flag,
			&entry.ConnectedAt,
			&entry.DisconnectedAt,
			&duration,
			&downloaded,
			&uploaded,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}

		// Absent values render as zero
		entry.Duration = duration.Int64
		entry.Downloaded = downloaded.Float64
		entry.Uploaded = uploaded.Float64

		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return history, nil
}

// ListStaleActiveTokens retrieves tokens of sessions active since before the cutoff.
func (r *PostgresSessionRepository) ListStaleActiveTokens(ctx context.Context, cutoff time.Time) ([]string, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT session_token
		FROM vpn_sessions
		WHERE status = $1 AND connected_at < $2
	`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query, models.SessionStatusActive, cutoff)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{models.SessionStatusActive, cutoff},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to list stale sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	// Parse the results
	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("failed to scan stale session row: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale session rows: %w", err)
	}

	return tokens, nil
}
