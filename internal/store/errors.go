package store

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a query matches no rows.
	ErrNotFound = errors.New("store: record not found")

	// ErrDuplicateKey is returned on unique constraint violations.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// Error keeps the driver error reachable through errors.As while matching
// one of the sentinels above through errors.Is.
type Error struct {
	Sentinel   error
	Constraint string
	Cause      error
}

func (e *Error) Error() string {
	if e.Constraint != "" {
		return e.Sentinel.Error() + " (" + e.Constraint + "): " + e.Cause.Error()
	}
	return e.Sentinel.Error() + ": " + e.Cause.Error()
}

func (e *Error) Is(target error) bool { return target == e.Sentinel }
func (e *Error) Unwrap() error        { return e.Cause }

// PostgreSQL SQLSTATE codes: https://www.postgresql.org/docs/current/errcodes-appendix.html
const pgUniqueViolation = "23505"

// mapError translates pgx errors into the package sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return &Error{Sentinel: ErrNotFound, Cause: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return &Error{Sentinel: ErrDuplicateKey, Constraint: pgErr.ConstraintName, Cause: err}
	}
	return err
}
