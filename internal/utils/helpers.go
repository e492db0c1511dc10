// Package utils provides utility functions and helpers for common operations
// used throughout the application. Functions in this package are designed
// to be simple, self-contained, and have minimal side effects.
package utils

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/veilpoint/vpn-backend/internal/constants"
)

// IsDuplicateKeyError checks if an error is a PostgreSQL unique constraint
// violation. This is useful for handling the session token uniqueness index.
func IsDuplicateKeyError(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == constants.PGErrorDuplicateConstraint
	}
	return false
}

// IsUniqueViolation checks if an error is a unique violation for a specific constraint
func IsUniqueViolation(err error, constraintName string) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return string(pqErr.Code) == constants.PGErrorDuplicateConstraint &&
			strings.Contains(pqErr.Constraint, constraintName)
	}
	return false
}

// TruncateString truncates a string to the given maximum length and adds ellipsis if necessary.
// This is useful for display or logging purposes where long strings need to be shortened.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// MaskToken masks a session token for logging, showing only the first four
// characters. Tokens are credentials and must never appear whole in logs.
func MaskToken(token string) string {
	if len(token) <= 4 {
		return constants.LogRedactedValue
	}
	return fmt.Sprintf("%s%s", token[:4], strings.Repeat("*", 8))
}

// Plural returns a string with the number and the plural form of the word if necessary.
func Plural(count int, word string) string {
	if count == 1 {
		return fmt.Sprintf("%d %s", count, word)
	}
	return fmt.Sprintf("%d %ss", count, word)
}
