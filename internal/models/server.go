// Package models provides data structures and operations for the VPN backend.
// This file contains the relay server model and the occupancy/load math that
// every occupancy mutation must keep consistent.
package models

import (
	"math"

	"github.com/veilpoint/vpn-backend/internal/constants"
)

// Server represents a VPN relay endpoint.
// Servers are provisioned externally; this application only reads their
// catalog attributes and mutates the occupancy counters through the
// session open/close paths.
type Server struct {
	// ID is the unique identifier for this server
	ID string `json:"id" db:"server_id"`

	// Name is the display name shown to clients
	Name string `json:"name" db:"name"`

	// CountryCode is the ISO country code of the server location
	CountryCode string `json:"countryCode" db:"country_code"`

	// Flag is the visual flag indicator for the server location
	Flag string `json:"flag" db:"flag_emoji"`

	// IPAddress is the network address of the relay endpoint
	IPAddress string `json:"ipAddress" db:"ip_address"`

	// Port is the relay endpoint port
	Port int `json:"port" db:"port"`

	// Protocol is the tunnel protocol tag (e.g. WireGuard, OpenVPN)
	Protocol string `json:"protocol" db:"protocol"`

	// Ping is the latency estimate in milliseconds
	Ping int `json:"ping" db:"ping_ms"`

	// Load is the derived load percentage, always clamped to [0,100]
	Load int `json:"load" db:"load_percent"`

	// CurrentUsers is the count of concurrently active sessions
	CurrentUsers int `json:"currentUsers" db:"current_users"`

	// MaxUsers is the maximum simultaneous sessions this server accepts
	MaxUsers int `json:"maxUsers" db:"max_users"`

	// IsActive marks whether the server is available for new sessions
	IsActive bool `json:"isActive" db:"is_active"`
}

// TableName returns the database table name for the Server model.
func (s *Server) TableName() string {
	return constants.TableServers
}

// HasCapacity reports whether the server can accept another session.
func (s *Server) HasCapacity() bool {
	return s.CurrentUsers < s.MaxUsers
}

// DefaultServers returns the initial relay catalog used to seed an empty
// database. The occupancy figures match the catalog the clients shipped
// with; with the default capacity of 100 the load equals the occupancy.
func DefaultServers() []*Server {
	return []*Server{
		{ID: "mc", Name: "Монако", CountryCode: "MC", Flag: "🇲🇨", IPAddress: "185.93.2.10", Port: 51820, Protocol: "WireGuard", Ping: 12, Load: 23, CurrentUsers: 23, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
		{ID: "lu", Name: "Люксембург", CountryCode: "LU", Flag: "🇱🇺", IPAddress: "94.242.5.21", Port: 51820, Protocol: "WireGuard", Ping: 8, Load: 45, CurrentUsers: 45, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
		{ID: "ch", Name: "Швейцария", CountryCode: "CH", Flag: "🇨🇭", IPAddress: "146.70.1.33", Port: 51820, Protocol: "WireGuard", Ping: 15, Load: 67, CurrentUsers: 67, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
		{ID: "nl", Name: "Нидерланды", CountryCode: "NL", Flag: "🇳🇱", IPAddress: "45.14.8.92", Port: 51820, Protocol: "WireGuard", Ping: 10, Load: 34, CurrentUsers: 34, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
		{ID: "sg", Name: "Сингапур", CountryCode: "SG", Flag: "🇸🇬", IPAddress: "103.27.4.15", Port: 51820, Protocol: "WireGuard", Ping: 45, Load: 56, CurrentUsers: 56, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
		{ID: "is", Name: "Исландия", CountryCode: "IS", Flag: "🇮🇸", IPAddress: "82.221.9.44", Port: 51820, Protocol: "WireGuard", Ping: 25, Load: 12, CurrentUsers: 12, MaxUsers: constants.DefaultMaxUsers, IsActive: true},
	}
}

// LoadPercent derives the load percentage from an occupancy count and a
// capacity. The result is rounded to the nearest integer and clamped to
// [0,100]. Callers must pass the post-mutation occupancy: load is always
// derived from the value actually stored, never from a stale read.
func LoadPercent(currentUsers, maxUsers int) int {
	if maxUsers <= 0 {
		return constants.MinLoadPercent
	}

	percent := int(math.Round(float64(currentUsers) / float64(maxUsers) * 100))
	if percent < constants.MinLoadPercent {
		return constants.MinLoadPercent
	}
	if percent > constants.MaxLoadPercent {
		return constants.MaxLoadPercent
	}
	return percent
}
