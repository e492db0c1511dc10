// Package repository provides data access interfaces and implementations for
// the VPN backend.
//
// This file implements the user profile repository, which maintains per-user
// aggregate counters. Profiles are created lazily on first connect via an
// upsert, so there is no separate registration step.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/veilpoint/vpn-backend/internal/database"
	"github.com/veilpoint/vpn-backend/internal/models"
	"github.com/veilpoint/vpn-backend/internal/utils"
)

// ProfileRepository defines methods for interacting with user profiles
// in the database.
type ProfileRepository interface {
	// IncrementConnections bumps a user's total connection counter inside
	// the given transaction, creating the profile row if it does not exist.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - tx: The transaction this mutation commits with
	//   - userID: The user whose counter to increment
	//
	// Returns:
	//   - An error if the upsert fails
	//   - nil on success
	IncrementConnections(ctx context.Context, tx *sql.Tx, userID string) error

	// GetByUserID retrieves a user's profile.
	//
	// Parameters:
	//   - ctx: Context for transaction and cancellation control
	//   - userID: The user whose profile to read
	//
	// Returns:
	//   - The profile if found
	//   - NotFoundError if the user has never connected
	//   - Other errors for database issues
	GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
}

// PostgresProfileRepository is a PostgreSQL implementation of ProfileRepository.
type PostgresProfileRepository struct {
	db *database.Pool
}

// NewProfileRepository creates a new ProfileRepository implementation for PostgreSQL.
func NewProfileRepository(db *database.Pool) ProfileRepository {
	return &PostgresProfileRepository{
		db: db,
	}
}

// IncrementConnections upserts the profile row and bumps its counter.
func (r *PostgresProfileRepository) IncrementConnections(ctx context.Context, tx *sql.Tx, userID string) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		INSERT INTO user_profiles (user_id, total_connections)
		VALUES ($1, 1)
		ON CONFLICT (user_id)
		DO UPDATE SET total_connections = user_profiles.total_connections + 1
	`

	// Execute the query
	_, err := tx.ExecContext(ctx, query, userID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to increment connection count: %w", err)
	}

	return nil
}

// GetByUserID retrieves a user's aggregate profile.
func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, total_connections
		FROM user_profiles
		WHERE user_id = $1
	`

	// Execute the query
	profile := &models.UserProfile{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.TotalConnections,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError(fmt.Sprintf("Profile not found for user: %s", userID))
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	return profile, nil
}
