package repository

import (
	"errors"
	"strings"

	"github.com/uptrace/bun/driver/pgdriver"
)

// IsUniqueViolation reports whether err was caused by a uniqueness constraint.
//
// Concurrent first-time resolution of the same identity relies on this check:
// both racers attempt an insert, the database rejects one, and the loser
// re-reads the winner's record instead of surfacing an error.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		// SQLSTATE 23505: unique_violation
		return pgErr.Field('C') == "23505"
	}

	// modernc.org/sqlite surfaces constraint failures as plain error strings.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
