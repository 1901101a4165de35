package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Postgres error code for unique constraint violations.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
// The unique indexes on (deliverable_id, juror_id) are the authoritative
// guard against concurrent duplicate writes; callers translate this into the
// matching domain conflict.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
