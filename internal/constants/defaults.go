// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide sensible defaults for configuration settings, establish
// boundaries for resource usage, and define domain parameters. Changes to these
// values may significantly impact application behavior, performance, and capacity
// accounting.
package constants

// History Limits define the parameters used for session history responses.
const (
	// DefaultHistoryLimit is the default number of history entries returned.
	DefaultHistoryLimit = 20

	// MaxHistoryLimit is the maximum allowable history size to prevent
	// excessive resource usage.
	MaxHistoryLimit = 20
)

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBMaxConnections is the default maximum number of database connections.
	DefaultDBMaxConnections = 20

	// DefaultDBMinConnections is the default minimum number of database connections.
	DefaultDBMinConnections = 5

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Request Limits define the maximum allowed sizes for request payloads.
const (
	// MaxRequestBodySize is the maximum size in bytes for HTTP request bodies.
	MaxRequestBodySize = 1048576 // 1MB in bytes
)

// Capacity Defaults define fallback values for relay server provisioning.
const (
	// DefaultMaxUsers is the occupancy capacity assigned to seeded relay
	// servers when no explicit capacity is configured.
	DefaultMaxUsers = 100

	// MinLoadPercent is the lower clamp bound for the derived load percentage.
	MinLoadPercent = 0

	// MaxLoadPercent is the upper clamp bound for the derived load percentage.
	MaxLoadPercent = 100
)

// Session Token Parameters define the entropy of generated session tokens.
const (
	// SessionTokenBytes is the number of random bytes in a session token.
	// 32 bytes gives 256 bits of entropy, enough to treat collisions as
	// impossible in practice.
	SessionTokenBytes = 32
)

// Logging Values define shared log formatting values.
const (
	// LogRedactedValue replaces sensitive values in log output.
	LogRedactedValue = "[REDACTED]"
)
