package repository

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrStaleVersion means the row changed since it was read.
	ErrStaleVersion = errors.New("stale row version")
	// ErrNoSlotAvailable means the conditional slot reservation matched no row.
	ErrNoSlotAvailable = errors.New("no scholarship slot available")
	// ErrDuplicateActive means a uniqueness guard on active rows was violated.
	ErrDuplicateActive = errors.New("duplicate active record")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}
