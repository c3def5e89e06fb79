package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors translated from PostgreSQL constraint violations.
var (
	ErrDuplicate  = errors.New("duplicate record")
	ErrReferenced = errors.New("record still referenced")
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps constraint violations onto the package sentinels and leaves other errors untouched.
func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case pqUniqueViolation:
		return ErrDuplicate
	case pqForeignKeyViolation:
		return ErrReferenced
	}
	return err
}
