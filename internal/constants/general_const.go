// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines general-purpose constants related to routing
// and request parameters. These constants ensure consistent API patterns and URL
// structure throughout the application, making the API more predictable and easier
// to maintain.
package constants

// Base Routes define the root URL paths for different parts of the API.
const (
	// APIBasePath is the root path prefix for all API endpoints.
	APIBasePath = "/api"

	// VPNBasePath is the path of the multiplexed VPN endpoint.
	VPNBasePath = "/api/vpn"

	// HealthPath is the endpoint for health checks and system status.
	HealthPath = "/health"
)

// Query Parameters define common query string parameter names.
const (
	// QueryParamAction is the query parameter selecting the VPN operation.
	QueryParamAction = "action"

	// QueryParamUserID is the query parameter identifying the calling user.
	QueryParamUserID = "userId"

	// QueryParamLimit is the query parameter capping history result sizes.
	QueryParamLimit = "limit"
)

// Action Names define the recognized values of the action query parameter.
// The default action (when the parameter is absent) is ActionServers.
const (
	// ActionServers lists the active relay servers.
	ActionServers = "servers"

	// ActionConnect opens a new connection session.
	ActionConnect = "connect"

	// ActionDisconnect closes an active connection session.
	ActionDisconnect = "disconnect"

	// ActionHistory lists a user's past sessions.
	ActionHistory = "history"
)

// Identity Defaults define fallback identity values for unauthenticated callers.
const (
	// DefaultGuestUserID is the user identifier applied when a request
	// carries no userId. Sessions and history are not tied to an
	// authenticated identity.
	DefaultGuestUserID = "guest_user"
)
