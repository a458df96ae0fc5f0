package fault

import (
	"errors"
	"fmt"
)

// Sentinels that transports map to status codes.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidEnrollment  = errors.New("invalid enrollment")
	ErrConflict           = errors.New("account email already in use")
	ErrAccountNotArchived = errors.New("existing account is not archived")
	ErrRemote             = errors.New("remote call failed")
	ErrNotFound           = errors.New("not found")
)

// GenericMessage is shown when a failure carries no server-provided message.
const GenericMessage = "Something went wrong while saving. Please try again."

// ValidationError reports a missing or malformed field, caught before any remote call.
type ValidationError struct {
	Field   string
	Message string
}

// Invalid builds a ValidationError for field.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// InvalidEnrollmentError reports a day-count mismatch on one program enrollment.
type InvalidEnrollmentError struct {
	ProgramID string
	Required  int
	Selected  int
	Reason    string
}

func (e *InvalidEnrollmentError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("enrollment for program %s: %s", e.ProgramID, e.Reason)
	}
	return fmt.Sprintf("enrollment for program %s requires %d selected days, got %d", e.ProgramID, e.Required, e.Selected)
}

// Is matches ErrInvalidEnrollment.
func (e *InvalidEnrollmentError) Is(target error) bool { return target == ErrInvalidEnrollment }

// ConflictError is returned by account creation when the email belongs to an existing account.
type ConflictError struct {
	Email     string
	AccountID string
	Archived  bool
}

func (e *ConflictError) Error() string {
	state := "active"
	if e.Archived {
		state = "archived"
	}
	return fmt.Sprintf("email %s belongs to an %s account", e.Email, state)
}

// Is matches ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// RemoteError wraps any other non-2xx response or transport failure.
type RemoteError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, msg)
}

// Is matches ErrRemote.
func (e *RemoteError) Is(target error) bool { return target == ErrRemote }

func (e *RemoteError) Unwrap() error { return e.Err }

// UserMessage returns the text shown to the user for err: the server-provided message
// when there is one, otherwise GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) {
		if remote.Message != "" {
			return remote.Message
		}
		return GenericMessage
	}
	var invalid *ValidationError
	if errors.As(err, &invalid) {
		return invalid.Error()
	}
	var enrollment *InvalidEnrollmentError
	if errors.As(err, &enrollment) {
		return enrollment.Error()
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict.Error()
	}
	if errors.Is(err, ErrAccountNotArchived) {
		return ErrAccountNotArchived.Error()
	}
	return GenericMessage
}
