package util

import (
	"github.com/google/uuid"
)

// IsValidUUID reports whether s is a structurally valid identifier.
// Malformed identifiers are treated as not-found by the handlers rather
// than as a distinct error class.
func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

func IsValidEnum(value string, validValues []string) bool {
	if value == "" {
		return true
	}
	for _, v := range validValues {
		if value == v {
			return true
		}
	}
	return false
}
