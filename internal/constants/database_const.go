// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines constants related to database structures,
// including table names, column names, and schema references. These constants
// ensure consistent and correct database access patterns throughout the application,
// reducing the risk of SQL errors and simplifying database schema changes.
package constants

// Table Names define the names of database tables used in the application.
// Using these constants instead of string literals ensures consistency
// and makes database schema changes easier to implement.
const (
	// TableServers is the name of the table storing relay server metadata.
	TableServers = "vpn_servers"

	// TableSessions is the name of the table storing connection sessions.
	TableSessions = "vpn_sessions"

	// TableUserProfiles is the name of the table storing per-user aggregates.
	TableUserProfiles = "user_profiles"
)

// Common Column Names define frequently used database column names.
// These constants ensure consistent column name usage in SQL queries
// and structured log fields.
const (
	// ColumnServerID is the column name for relay server identifiers.
	ColumnServerID = "server_id"

	// ColumnSessionID is the column name for session identifiers.
	ColumnSessionID = "id"

	// ColumnUserID is the column name for user identifiers.
	ColumnUserID = "user_id"

	// ColumnSessionToken is the column name for opaque session tokens.
	ColumnSessionToken = "session_token"

	// ColumnStatus is the column name for the session status.
	ColumnStatus = "status"

	// ColumnConnectedAt is the column name for session start timestamps.
	ColumnConnectedAt = "connected_at"

	// ColumnDisconnectedAt is the column name for session end timestamps.
	ColumnDisconnectedAt = "disconnected_at"

	// ColumnCurrentUsers is the column name for server occupancy counts.
	ColumnCurrentUsers = "current_users"

	// ColumnMaxUsers is the column name for server occupancy capacity.
	ColumnMaxUsers = "max_users"

	// ColumnLoadPercent is the column name for the derived load percentage.
	ColumnLoadPercent = "load_percent"
)

// Database Error Codes define constants for recognizing and handling
// database-specific errors. These constants help identify specific types
// of database constraint violations.
const (
	// PGErrorDuplicateConstraint is the PostgreSQL error code for unique constraint violations.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyConstraint is the PostgreSQL error code for foreign key violations.
	PGErrorForeignKeyConstraint = "23503"

	// PGErrorNotNullConstraint is the PostgreSQL error code for not-null constraint violations.
	PGErrorNotNullConstraint = "23502"

	// IndexSessionToken is the name of the unique index on session tokens.
	// The token's entropy already makes collisions negligible; the index is
	// defense in depth at the storage layer.
	IndexSessionToken = "idx_session_token"
)
