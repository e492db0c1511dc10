// Package models provides data structures and operations for the VPN backend.
// This file contains the connection session model and its state machine.
// A session is created active, transitions exactly once to disconnected, and
// is never deleted or reopened.
package models

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/veilpoint/vpn-backend/internal/constants"
)

// Session status values. There are no other states and no transition back
// from disconnected to active.
const (
	// SessionStatusActive marks a session currently holding an occupancy slot.
	SessionStatusActive = "active"

	// SessionStatusDisconnected marks a closed session.
	SessionStatusDisconnected = "disconnected"
)

// Session represents one user's logical attachment to a relay server.
// It is metadata only: the actual tunnel data plane is managed elsewhere.
type Session struct {
	// ID is the unique identifier for this session
	ID int64 `json:"id" db:"id"`

	// UserID references the user who owns this session
	UserID string `json:"userId" db:"user_id"`

	// ServerID references the relay server this session is attached to
	ServerID string `json:"serverId" db:"server_id"`

	// SessionToken is the opaque credential used as the sole key for
	// closing the session. Never serialized into general responses.
	SessionToken string `json:"-" db:"session_token"`

	// Status is the session state, active or disconnected
	Status string `json:"status" db:"status"`

	// ConnectedAt records when the session was opened (store-assigned)
	ConnectedAt time.Time `json:"connectedAt" db:"connected_at"`

	// DisconnectedAt records when the session was closed; nil while active
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty" db:"disconnected_at"`

	// DurationSeconds is the whole-second session length; nil while active
	DurationSeconds *int64 `json:"duration,omitempty" db:"duration_seconds"`

	// DataDownloadedMB is the cumulative downloaded volume, if reported
	DataDownloadedMB *float64 `json:"downloaded,omitempty" db:"data_downloaded_mb"`

	// DataUploadedMB is the cumulative uploaded volume, if reported
	DataUploadedMB *float64 `json:"uploaded,omitempty" db:"data_uploaded_mb"`
}

// TableName returns the database table name for the Session model.
func (s *Session) TableName() string {
	return constants.TableSessions
}

// IsActive reports whether the session still holds an occupancy slot.
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// DurationAt computes the whole-second duration of the session if it were
// closed at t. Clock skew can make t precede the stored connected-at
// timestamp; the result is clamped to zero so a session never reports a
// negative duration.
func (s *Session) DurationAt(t time.Time) int64 {
	duration := int64(t.Sub(s.ConnectedAt).Seconds())
	if duration < 0 {
		return 0
	}
	return duration
}

// GenerateSessionToken creates a fresh cryptographically random session
// token with 256 bits of entropy, encoded as unpadded URL-safe base64.
// Collisions are treated as impossible at this width; the storage layer
// additionally enforces uniqueness as defense in depth.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, constants.SessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HistoryEntry is one row of a user's session history. Server name and flag
// are joined in at query time, so a renamed server shows its current name.
type HistoryEntry struct {
	// ServerID is the identifier of the server the session attached to
	ServerID string `json:"serverId"`

	// ServerName is the server's current display name
	ServerName string `json:"serverName"`

	// Flag is the server's current flag indicator
	Flag string `json:"flag"`

	// ConnectedAt records when the session was opened
	ConnectedAt time.Time `json:"connectedAt"`

	// DisconnectedAt records when the session was closed
	DisconnectedAt time.Time `json:"disconnectedAt"`

	// Duration is the session length in whole seconds
	Duration int64 `json:"duration"`

	// Downloaded is the downloaded volume in MB, zero if never reported
	Downloaded float64 `json:"downloaded"`

	// Uploaded is the uploaded volume in MB, zero if never reported
	Uploaded float64 `json:"uploaded"`
}

// ConnectRequest is the payload of a connect call.
type ConnectRequest struct {
	UserID   string `json:"userId" validate:"omitempty,max=255"`
	ServerID string `json:"serverId" validate:"required,max=50"`
}

// DisconnectRequest is the payload of a disconnect call.
type DisconnectRequest struct {
	SessionToken string `json:"sessionToken" validate:"required"`
}

// ConnectResult is what a successful session open returns to the caller.
// ConnectedAt is the authoritative store-assigned timestamp.
type ConnectResult struct {
	SessionID    int64     `json:"sessionId"`
	SessionToken string    `json:"sessionToken"`
	ConnectedAt  time.Time `json:"connectedAt"`
}
