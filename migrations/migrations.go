// Package migrations provides a framework for database schema management.
//
// This package implements a migration system that allows for reliable, idempotent
// database schema creation and updates. It tracks executed migrations in a dedicated
// migrations table and ensures all required tables exist before application startup.
//
// The migration system supports:
// - Automatic creation of missing tables
// - Tracking of executed migrations
// - Efficient verification of database schema
// - Idempotent execution of migrations (safe to run multiple times)
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/database"
)

// Migration represents a database migration.
// Each migration performs a specific schema change and is tracked
// to ensure it runs exactly once.
type Migration struct {
	// Name is a unique identifier for the migration
	Name string
	// Description is a human-readable explanation of what the migration does
	Description string
	// TableName is the table affected by this migration, used for existence checks
	TableName string
	// RunSQL is the function that executes the migration SQL within a transaction
	RunSQL func(ctx context.Context, tx *sql.Tx) error
}

// Migrator handles database migrations.
// It provides methods to run migrations, check for existing tables,
// and ensure the database schema is up to date.
type Migrator struct {
	db *database.Pool
}

// NewMigrator creates a new migrator.
//
// Parameters:
//   - db: A database connection pool to use for migrations
//
// Returns:
//   - *Migrator: A configured migrator
func NewMigrator(db *database.Pool) *Migrator {
	return &Migrator{
		db: db,
	}
}

// RunMigrations runs all pending database migrations.
// It creates the migrations table if it doesn't exist, verifies all required
// tables exist, and runs any migrations that haven't been executed yet.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Info().Msg("Running database migrations")
	startTime := time.Now()

	// Create migrations table if it doesn't exist
	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Verify all tables exist and run missing table migrations
	if err := m.verifyAllTablesExist(ctx); err != nil {
		return fmt.Errorf("failed to verify tables: %w", err)
	}

	// Get executed migrations
	executedMigrations, err := m.getExecutedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get executed migrations: %w", err)
	}

	// Run migrations that haven't been executed yet
	migrations := GetMigrations()
	migrationsRun := 0

	for _, migration := range migrations {
		if _, ok := executedMigrations[migration.Name]; !ok {
			// Check if the table already exists before running the migration
			exists, err := m.tableExists(ctx, migration.TableName)
			if err != nil {
				return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
			}

			if exists {
				log.Info().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Table already exists, recording migration as completed")

				// Record the migration as completed without running the SQL
				if err := m.recordMigration(ctx, migration.Name, migration.Description); err != nil {
					return fmt.Errorf("failed to record existing migration: %w", err)
				}
			} else {
				log.Info().
					Str("migration", migration.Name).
					Str("table", migration.TableName).
					Msg("Running migration")

				if err := m.runMigration(ctx, migration); err != nil {
					return err
				}
				migrationsRun++
			}
		}
	}

	log.Info().
		Int("migrations_run", migrationsRun).
		Int("total_migrations", len(migrations)).
		Dur("duration", time.Since(startTime)).
		Msg("Database migrations completed")

	if err := m.ensureSessionTransferColumns(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to ensure session transfer columns")
		// Don't return error to avoid breaking existing migrations
	}

	return nil
}

// verifyAllTablesExist checks that all required tables exist, and runs migrations for missing tables.
// This ensures database integrity even if migrations were previously interrupted.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during verification, nil if successful
func (m *Migrator) verifyAllTablesExist(ctx context.Context) error {
	migrations := GetMigrations()

	for _, migration := range migrations {
		if migration.TableName == "" {
			continue // Skip migrations without a table name
		}

		// Check if the table exists
		exists, err := m.tableExists(ctx, migration.TableName)
		if err != nil {
			return fmt.Errorf("failed to check if table %s exists: %w", migration.TableName, err)
		}

		if !exists {
			log.Warn().
				Str("migration", migration.Name).
				Str("table", migration.TableName).
				Msg("Table doesn't exist but should. Running migration to create it.")

			// Run the migration to create the table
			if err := m.runMigration(ctx, migration); err != nil {
				return fmt.Errorf("failed to create missing table %s: %w", migration.TableName, err)
			}
		}
	}

	return nil
}

// createMigrationsTable creates the migrations table if it doesn't exist.
// This table tracks which migrations have been executed.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered during table creation, nil if successful
func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(255) PRIMARY KEY UNIQUE,
			description TEXT,
			executed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	_, err := m.db.ExecContext(ctx, query)
	return err
}

// getExecutedMigrations returns a map of executed migrations.
// The map keys are migration names and values are always true.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - map[string]bool: A map containing names of executed migrations
//   - error: Any error encountered while retrieving migrations, nil if successful
func (m *Migrator) getExecutedMigrations(ctx context.Context) (map[string]bool, error) {
	query := `SELECT name FROM migrations`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	migrations := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		migrations[name] = true
	}

	return migrations, rows.Err()
}

// runMigration runs a migration within a transaction.
// If the migration fails, the transaction is rolled back.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//   - migration: The migration to run
//
// Returns:
//   - error: Any error encountered during migration, nil if successful
func (m *Migrator) runMigration(ctx context.Context, migration Migration) error {
	return m.db.Transaction(ctx, func(tx *sql.Tx) error {
		// Run the migration
		if err := migration.RunSQL(ctx, tx); err != nil {
			return fmt.Errorf("migration %s failed: %w", migration.Name, err)
		}

		// Record the migration
		query := `INSERT INTO migrations (name, description) VALUES ($1, $2)`
		_, err := tx.ExecContext(ctx, query, migration.Name, migration.Description)
		if err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}

		return nil
	})
}

// recordMigration records a migration as completed without running the SQL.
// This is used when a table already exists but the migration record is missing.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//   - name: The name of the migration to record
//   - description: The description of the migration
//
// Returns:
//   - error: Any error encountered while recording the migration, nil if successful
func (m *Migrator) recordMigration(ctx context.Context, name, description string) error {
	query := `INSERT INTO migrations (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	_, err := m.db.ExecContext(ctx, query, name, description)
	if err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}
	return nil
}

// tableExists checks if a table exists in the current database schema.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//   - tableName: The name of the table to check
//
// Returns:
//   - bool: True if the table exists, false otherwise
//   - error: Any error encountered during the check, nil if successful
func (m *Migrator) tableExists(ctx context.Context, tableName string) (bool, error) {
	query := `
        SELECT EXISTS(SELECT 1
        FROM information_schema.tables
        WHERE table_schema = current_schema()
        AND table_name = $1)
    `
	var exists bool
	err := m.db.QueryRowContext(ctx, query, tableName).Scan(&exists)
	return exists, err
}

// ensureSessionTransferColumns ensures that the vpn_sessions table has the
// transfer volume columns. This handles schema evolution without requiring
// a full migration for minor column additions: sessions created before
// volume accounting existed simply report zero.
//
// Parameters:
//   - ctx: Context for database operations and cancellation
//
// Returns:
//   - error: Any error encountered while ensuring columns exist, nil if successful
func (m *Migrator) ensureSessionTransferColumns(ctx context.Context) error {
	columns := map[string]string{
		"data_downloaded_mb": `ALTER TABLE vpn_sessions ADD COLUMN data_downloaded_mb DECIMAL(12, 2)`,
		"data_uploaded_mb":   `ALTER TABLE vpn_sessions ADD COLUMN data_uploaded_mb DECIMAL(12, 2)`,
	}

	for column, alterQuery := range columns {
		var columnExists bool
		query := `
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.columns
				WHERE table_name = 'vpn_sessions'
				AND column_name = $1
			)
		`

		err := m.db.QueryRowContext(ctx, query, column).Scan(&columnExists)
		if err != nil {
			return fmt.Errorf("failed to check if %s column exists: %w", column, err)
		}

		if !columnExists {
			log.Info().Str("column", column).Msg("Adding missing column to vpn_sessions table")

			_, err = m.db.ExecContext(ctx, alterQuery)
			if err != nil {
				return fmt.Errorf("failed to add %s column: %w", column, err)
			}

			log.Info().Str("column", column).Msg("Successfully added column")
		}
	}

	return nil
}

// GetMigrations returns all migrations.
// This function returns a slice of all migrations that the system should apply.
//
// Returns:
//   - []Migration: A slice of all migrations to be applied
func GetMigrations() []Migration {
	return []Migration{
		createServersTable(),
		createSessionsTable(),
		createUserProfilesTable(),
	}
}
