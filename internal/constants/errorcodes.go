// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling, categorization,
// and messaging. These constants ensure consistent error reporting and handling
// throughout the application. User-facing error messages mirror the wire contract
// exactly, since clients match on their text.
package constants

// User-Facing Error Messages define standardized messages presented to callers.
// Several of these are part of the wire contract and must not be reworded.
const (
	// MsgServerIDRequired indicates that a connect request omitted the server.
	MsgServerIDRequired = "serverId is required"

	// MsgSessionTokenRequired indicates that a disconnect request omitted the token.
	MsgSessionTokenRequired = "sessionToken is required"

	// MsgServerNotFound indicates that the requested relay server does not exist.
	MsgServerNotFound = "Server not found"

	// MsgServerFull indicates that the relay server has no free occupancy slots.
	MsgServerFull = "Server is full"

	// MsgSessionNotFound indicates that no active session matches the token.
	MsgSessionNotFound = "Session not found"

	// MsgNotFound is the response body for unrecognized routes and actions.
	MsgNotFound = "Not found"

	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgServiceUnavailable indicates that the datastore cannot be reached.
	MsgServiceUnavailable = "Service is not healthy"

	// MsgRequestBodyTooLarge indicates that the request payload exceeds size limits.
	MsgRequestBodyTooLarge = "Request body too large"

	// MsgEmptyRequestBody indicates that a request body was expected but not provided.
	MsgEmptyRequestBody = "Request body must not be empty"

	// MsgMalformedJSON indicates that the request body contains invalid JSON.
	MsgMalformedJSON = "Request body contains malformed JSON"
)
