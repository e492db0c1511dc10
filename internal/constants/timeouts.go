package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout   = 10 * time.Second
	DBQueryTimeout        = 15 * time.Second
	DBHealthCheckTimeout  = 5 * time.Second
	DBConnMaxLifetime     = 1 * time.Hour
	DBConnMaxIdleTime     = 30 * time.Minute
	DBMaintenanceInterval = 1 * time.Hour
)

// Session Maintenance
const (
	// DefaultStaleSessionAge is how long a session may stay active before
	// the maintenance sweep closes it. Clients that never disconnect would
	// otherwise hold server occupancy forever.
	DefaultStaleSessionAge = 24 * time.Hour
)

// CORS Values
const (
	// CORSMaxAgeSeconds is how long browsers may cache preflight responses.
	CORSMaxAgeSeconds = 86400
)
