// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP-related constants such as status codes,
// headers, and content types. These constants ensure consistent HTTP
// communication patterns across the application and provide meaningful
// standardized responses to API clients.
package constants

// HTTP Status Codes define the standard HTTP response status codes used in the application.
const (
	// StatusOK indicates that the request has succeeded.
	StatusOK = 200

	// StatusBadRequest indicates that the server cannot process the request due to client error.
	StatusBadRequest = 400

	// StatusNotFound indicates that the server cannot find the requested resource.
	StatusNotFound = 404

	// StatusInternalServerError indicates that the server encountered an unexpected condition.
	StatusInternalServerError = 500

	// StatusServiceUnavailable indicates that the server is temporarily unable
	// to serve the request, used when a relay server is at capacity.
	StatusServiceUnavailable = 503
)

// HTTP Headers define standard header names used in requests and responses.
const (
	// HeaderContentType is the standard Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderUserID is the custom header carrying a caller-supplied user identifier.
	HeaderUserID = "X-User-Id"

	// HeaderSessionToken is the custom header carrying a session token.
	HeaderSessionToken = "X-Session-Token"
)

// Content Types define standard MIME types used in responses.
const (
	// ContentTypeJSON is the MIME type for JSON payloads.
	ContentTypeJSON = "application/json"
)
