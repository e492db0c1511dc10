package migrations

import (
	"context"
	"database/sql"
)

// createServersTable creates the vpn_servers table
func createServersTable() Migration {
	return Migration{
		Name:        "create_vpn_servers_table",
		Description: "Creates the vpn_servers table",
		TableName:   "vpn_servers",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS vpn_servers (
					server_id VARCHAR(50) PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					country_code VARCHAR(2) NOT NULL,
					flag_emoji VARCHAR(10) NOT NULL,
					ip_address VARCHAR(45) NOT NULL,
					port INTEGER NOT NULL,
					protocol VARCHAR(20) NOT NULL,
					ping_ms INTEGER NOT NULL DEFAULT 0,
					load_percent INTEGER NOT NULL DEFAULT 0,
					current_users INTEGER NOT NULL DEFAULT 0,
					max_users INTEGER NOT NULL DEFAULT 100,
					is_active BOOLEAN NOT NULL DEFAULT TRUE,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT chk_occupancy CHECK (current_users >= 0 AND current_users <= max_users),
					CONSTRAINT chk_load CHECK (load_percent >= 0 AND load_percent <= 100)
				);
				CREATE INDEX IF NOT EXISTS idx_servers_active_ping ON vpn_servers(is_active, ping_ms);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createSessionsTable creates the vpn_sessions table
func createSessionsTable() Migration {
	return Migration{
		Name:        "create_vpn_sessions_table",
		Description: "Creates the vpn_sessions table",
		TableName:   "vpn_sessions",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS vpn_sessions (
					id BIGSERIAL PRIMARY KEY,
					user_id VARCHAR(255) NOT NULL,
					server_id VARCHAR(50) NOT NULL,
					session_token VARCHAR(255) NOT NULL,
					status VARCHAR(20) NOT NULL DEFAULT 'active',
					connected_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					disconnected_at TIMESTAMP,
					duration_seconds BIGINT,
					data_downloaded_mb DECIMAL(12, 2),
					data_uploaded_mb DECIMAL(12, 2),
					CONSTRAINT fk_server FOREIGN KEY (server_id) REFERENCES vpn_servers(server_id),
					CONSTRAINT chk_status CHECK (status IN ('active', 'disconnected')),
					CONSTRAINT idx_session_token UNIQUE (session_token)
				);
				CREATE INDEX IF NOT EXISTS idx_sessions_user_history ON vpn_sessions(user_id, status, connected_at DESC);
				CREATE INDEX IF NOT EXISTS idx_sessions_active ON vpn_sessions(status, connected_at);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createUserProfilesTable creates the user_profiles table
func createUserProfilesTable() Migration {
	return Migration{
		Name:        "create_user_profiles_table",
		Description: "Creates the user_profiles table",
		TableName:   "user_profiles",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS user_profiles (
					user_id VARCHAR(255) PRIMARY KEY,
					total_connections BIGINT NOT NULL DEFAULT 0,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}
