package store

import (
	"errors"
	"strings"
)

// ErrDuplicateEntry is returned when a status entry already exists for the
// same tracker, date, and status.
var ErrDuplicateEntry = errors.New("entry already exists for this date")

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
