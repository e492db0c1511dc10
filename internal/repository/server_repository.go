// Package repository provides data access interfaces and implementations for
// the VPN backend. It follows the repository pattern to abstract database
// operations and provide a clean API for data persistence operations.
//
// This file implements the server repository, which manages the relay server
// catalog and the occupancy counters. The occupancy mutations are the
// invariant-bearing part of the system: after every mutation the stored load
// percentage must equal the clamped percentage derived from the stored
// occupancy, and occupancy must never exceed capacity under concurrency.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/constants"
	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// ServerRepository defines methods for interacting with relay servers in the
// database. Catalog reads run against the pool; occupancy mutations run
// inside a caller-owned transaction so they commit atomically with the
// session row changes that justify them.
type ServerRepository interface {
	// ListActive retrieves all active relay servers ordered by latency
	// estimate, fastest first.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//
	// Returns:
	//   - A slice of active servers, empty if none are active
	//   - An error if retrieval fails
	ListActive(ctx context.Context) ([]*models.Server, error)

	// GetCapacityForUpdate reads a server's occupancy and capacity inside
	// the given transaction, taking a row-level lock. The lock serializes
	// the capacity check against concurrent occupancy mutations: two
	// concurrent opens against a server with one remaining slot cannot
	// both pass the check.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction the row lock belongs to
	//   - serverID: The unique identifier of the server
	//
	// Returns:
	//   - The current occupancy and maximum capacity
	//   - NotFoundError if the server doesn't exist
	//   - Other errors for database issues
	GetCapacityForUpdate(ctx context.Context, tx *sql.Tx, serverID string) (currentUsers, maxUsers int, err error)

	// IncrementUsers raises a server's occupancy by one and stores the
	// load percentage derived from the post-increment occupancy, clamped
	// to [0,100].
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction this mutation commits with
	//   - serverID: The unique identifier of the server
	//
	// Returns:
	//   - NotFoundError if the server doesn't exist
	//   - Other errors for database issues
	//   - nil on success
	IncrementUsers(ctx context.Context, tx *sql.Tx, serverID string) error

	// DecrementUsers lowers a server's occupancy by one, floored at zero,
	// and stores the load percentage derived from the post-decrement
	// occupancy, clamped to [0,100]. The floor defends against any prior
	// accounting drift.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction this mutation commits with
	//   - serverID: The unique identifier of the server
	//
	// Returns:
	//   - NotFoundError if the server doesn't exist
	//   - Other errors for database issues
	//   - nil on success
	DecrementUsers(ctx context.Context, tx *sql.Tx, serverID string) error
}

// PostgresServerRepository is a PostgreSQL implementation of ServerRepository.
type PostgresServerRepository struct {
	db *database.Pool
}

// NewServerRepository creates a new ServerRepository implementation for PostgreSQL.
func NewServerRepository(db *database.Pool) ServerRepository {
	return &PostgresServerRepository{
		db: db,
	}
}

// ListActive retrieves all active relay servers ordered by ping ascending.
func (r *PostgresServerRepository) ListActive(ctx context.Context) ([]*models.Server, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT server_id, name, country_code, flag_emoji, ip_address,
		       port, protocol, ping_ms, load_percent, current_users,
		       max_users, is_active
		FROM vpn_servers
		WHERE is_active = true
		ORDER BY ping_ms ASC
	`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query)

	// Log the query execution
	utils.LogDBQuery(query, nil, time.Since(startTime), err)

	if err != nil {
		return nil, fmt.Errorf("failed to list active servers: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	// Parse the results
	var servers []*models.Server
	for rows.Next() {
		server := &models.Server{}
		err := rows.Scan(
			&server.ID,
			&server.Name,
			&server.CountryCode,
			&server.Flag,
			&server.IPAddress,
			&server.Port,
			&server.Protocol,
			&server.Ping,
			&server.Load,
			&server.CurrentUsers,
			&server.MaxUsers,
			&server.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan server row: %w", err)
		}
		servers = append(servers, server)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating server rows: %w", err)
	}

	return servers, nil
}

// GetCapacityForUpdate reads occupancy and capacity under a row lock.
func (r *PostgresServerRepository) GetCapacityForUpdate(ctx context.Context, tx *sql.Tx, serverID string) (int, int, error) {
	// Start query timer
	startTime := time.Now()

	// FOR UPDATE locks the server row for the remainder of the
	// transaction, serializing concurrent capacity checks.
	query := `
		SELECT current_users, max_users
		FROM vpn_servers
		WHERE server_id = $1
		FOR UPDATE
	`

	// Execute the query
	var currentUsers, maxUsers int
	err := tx.QueryRowContext(ctx, query, serverID).Scan(&currentUsers, &maxUsers)

	// Log the query execution
	utils.LogDBQuery(query, []interface{}{serverID}, time.Since(startTime), err)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, utils.NewNotFoundError(constants.MsgServerNotFound)
		}
		return 0, 0, fmt.Errorf("failed to get server capacity: %w", err)
	}

	return currentUsers, maxUsers, nil
}

// IncrementUsers raises occupancy by one and recomputes load from the
// post-increment value.
func (r *PostgresServerRepository) IncrementUsers(ctx context.Context, tx *sql.Tx, serverID string) error {
	// Start query timer
	startTime := time.Now()

	// Load is derived from the post-increment occupancy and clamped.
	query := `
		UPDATE vpn_servers
		SET current_users = current_users + 1,
		    load_percent = LEAST(100, ROUND((current_users + 1)::numeric / max_users * 100))
		WHERE server_id = $1
	`

	// Execute the query
	result, err := tx.ExecContext(ctx, query, serverID)

	// Log the query execution
	utils.LogDBQuery(query, []interface{}{serverID}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to increment server users: %w", err)
	}

	// Check if any rows were affected
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return utils.NewNotFoundError(constants.MsgServerNotFound)
	}

	log.Info().
		Str(constants.ColumnServerID, serverID).
		Msg("Server occupancy incremented")

	return nil
}

// DecrementUsers lowers occupancy by one, floored at zero, and recomputes
// load from the post-decrement value.
func (r *PostgresServerRepository) DecrementUsers(ctx context.Context, tx *sql.Tx, serverID string) error {
	// Start query timer
	startTime := time.Now()

	// Both the stored occupancy and the derived load use the floored
	// post-decrement value, so the two can never disagree.
	query := `
		UPDATE vpn_servers
		SET current_users = GREATEST(0, current_users - 1),
		    load_percent = LEAST(100, GREATEST(0, ROUND(GREATEST(0, current_users - 1)::numeric / max_users * 100)))
		WHERE server_id = $1
	`

	// Execute the query
	result, err := tx.ExecContext(ctx, query, serverID)

	// Log the query execution
	utils.LogDBQuery(query, []interface{}{serverID}, time.Since(startTime), err)

	if err != nil {
		return fmt.Errorf("failed to decrement server users: %w", err)
	}

	// Check if any rows were affected
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return utils.NewNotFoundError(constants.MsgServerNotFound)
	}

	log.Info().
		Str(constants.ColumnServerID, serverID).
		Msg("Server occupancy decremented")

	return nil
}
