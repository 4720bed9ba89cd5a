package types

import "errors"

const (
	ErrInvalidInput  = "Invalid input"
	ErrDatabaseError = "Database error"
	ErrUnauthorized  = "Unauthorized access"
	ErrInternalError = "internal server error"
)

// Sentinel errors returned by the payroll service. Handlers match them with
// errors.Is to pick the response status.
var (
	// ErrEmployeeNotFound covers both a missing employee row and an
	// inactive one: inactive employees are not payroll-eligible.
	ErrEmployeeNotFound = errors.New("employee not found or inactive")

	// ErrMalformedInput marks request-level validation failures such as an
	// out-of-range month or an unparseable date.
	ErrMalformedInput = errors.New("malformed input")

	// ErrPersistenceConflict marks a uniqueness-constraint violation on a
	// payroll run upsert.
	ErrPersistenceConflict = errors.New("payroll run conflict")
)
