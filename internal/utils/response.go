// Package utils provides utility functions and helpers for the application.
// This file implements the API response helpers. Response bodies are flat
// JSON objects whose shapes are fixed by the wire contract: list responses
// wrap their collection in a single key ({"servers": [...]}), mutations
// return {"success": true, ...}, and every failure is {"error": "<message>"}.
//
// Keeping the shaping in one place ensures all endpoints serialize
// identically and that error bodies stay parseable by existing clients.
package utils

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/veilpoint/vpn-backend/internal/constants"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code and payload.
// The payload is marshaled as-is, without an envelope.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	// Set headers
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	// Marshal the data to JSON
	jsonData, err := json.Marshal(data)
	if err != nil {
		// If marshaling fails, log the error and send a simple error response
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		if _, err := w.Write([]byte(`{"error":"Failed to generate response"}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	// Write the JSON data to the response
	if _, err = w.Write(jsonData); err != nil {
		// Log write errors but don't try to recover
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// Error sends an error response with the given status code and message.
func Error(w http.ResponseWriter, statusCode int, message string) {
	JSON(w, statusCode, ErrorResponse{Error: message})
}

// ErrorFromAppError sends an error response based on an AppError.
// The status code and message carried by the AppError map directly onto
// the response; this is the single place where error kinds become HTTP.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	if err.DevInfo != "" {
		log.Debug().
			Str("dev_info", err.DevInfo).
			Int("status", err.StatusCode).
			Msg("Returning error response")
	}
	Error(w, err.StatusCode, err.Message)
}

// BadRequest sends a 400 Bad Request response with the given message.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, constants.StatusBadRequest, message)
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgNotFound
	}
	Error(w, constants.StatusNotFound, message)
}

// InternalServerError sends a 500 Internal Server Error response.
// The error's message is surfaced in the body, matching the contract that
// store failures report their text directly.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	message := constants.MsgInternalServerError
	if err != nil {
		message = err.Error()
	}
	Error(w, constants.StatusInternalServerError, message)
}
