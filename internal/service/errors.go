package service

import (
	"errors"
	"fmt"

	"taskboard/internal/storage"
)

// Failure kinds surfaced to callers. Services wrap them with context, so
// compare with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrLimitExceeded       = errors.New("limit exceeded")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInvalid             = errors.New("invalid request")
)

// Kind names the failure kind of err for logs and metrics; "internal" for anything unexpected.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, ErrInvalid):
		return "invalid"
	default:
		return "internal"
	}
}

// storeErr maps unique collisions raced past the existence check onto ErrAlreadyExists.
func storeErr(err error, what string) error {
	if errors.Is(err, storage.ErrUniqueViolation) {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, what)
	}
	return err
}

func notFound(entity string, id int64) error {
	return fmt.Errorf("%w: %s %d", ErrNotFound, entity, id)
}
