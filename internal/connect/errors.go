package connect

import "errors"

// Sentinel errors surfaced to handlers. Everything else coming out of the
// service is a database failure.
var (
	// ErrPhysicianNotFound is returned when issuing a code for an unknown physician.
	ErrPhysicianNotFound = errors.New("physician not found")

	// ErrPatientNotFound is returned when redeeming on behalf of an unknown patient.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrCodeInvalid is returned when a code is unknown, already used, or expired.
	// The three cases are deliberately indistinguishable to the caller.
	ErrCodeInvalid = errors.New("invalid connect code")
)
