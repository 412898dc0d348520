package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a unit id is unknown or the
	// unit has been archived. Callers should send the user back to
	// unit selection.
	ErrTenantNotFound = errors.New("unit not found")

	// ErrDuplicateTenant is returned when registering a unit whose id
	// already exists, either in the in-memory defaults or in the
	// central registry table.
	ErrDuplicateTenant = errors.New("unit id already registered")

	// ErrInvalidTenantID is returned when a unit id does not match
	// the allowed pattern (letters, digits, dash, underscore).
	ErrInvalidTenantID = errors.New("invalid unit id")

	// ErrBackendUnavailable is returned when the unit's database
	// cannot be opened or reached.
	ErrBackendUnavailable = errors.New("database backend unavailable")

	// ErrAdapterClosed is returned when a statement is issued on a
	// server adapter whose transaction scope has already been
	// committed or rolled back.
	ErrAdapterClosed = errors.New("adapter already finalized")
)
