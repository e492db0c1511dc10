package models

import (
	"github.com/veilpoint/vpn-backend/internal/constants"
)

// UserProfile is the per-user aggregate row. It is created on a user's
// first-ever session open and its connection count only ever grows.
type UserProfile struct {
	// UserID is the unique user identifier this profile belongs to
	UserID string `json:"userId" db:"user_id"`

	// TotalConnections counts every session ever opened for this user
	TotalConnections int64 `json:"totalConnections" db:"total_connections"`
}

// TableName returns the database table name for the UserProfile model.
func (p *UserProfile) TableName() string {
	return constants.TableUserProfiles
}
