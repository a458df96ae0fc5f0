// Package wire holds the JSON error body shared by the HTTP server and its client.
package wire

import (
	"errors"
	"net/http"

	"household/internal/domain/fault"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation         = "validation"
	CodeInvalidEnrollment  = "invalid_enrollment"
	CodeConflict           = "conflict"
	CodeAccountNotArchived = "account_not_archived"
	CodeNotFound           = "not_found"
	CodeWorkflowState      = "workflow_state"
	CodeBadRequest         = "bad_request"
	CodeRemote             = "remote"
	CodeInternal           = "internal"
)

// ErrorBody is the JSON body of every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	Field string `json:"field,omitempty"`

	Email     string `json:"email,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Archived  bool   `json:"archived,omitempty"`

	ProgramID string `json:"programId,omitempty"`
	Required  int    `json:"required,omitempty"`
	Selected  int    `json:"selected,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// StateError marks a request that is valid but not allowed in the resource's current state.
type StateError struct{ Err error }

func (e *StateError) Error() string { return e.Err.Error() }
func (e *StateError) Unwrap() error { return e.Err }

// FromError maps err to a status code and body. ok is false for errors that must not be
// shown to callers; the body then carries a generic message.
func FromError(err error) (status int, body ErrorBody, ok bool) {
	var (
		invalid    *fault.ValidationError
		enrollment *fault.InvalidEnrollmentError
		conflict   *fault.ConflictError
		state      *StateError
		remote     *fault.RemoteError
	)
	switch {
	case errors.As(err, &enrollment):
		return http.StatusUnprocessableEntity, ErrorBody{
			Error:     enrollment.Error(),
			Code:      CodeInvalidEnrollment,
			ProgramID: enrollment.ProgramID,
			Required:  enrollment.Required,
			Selected:  enrollment.Selected,
			Reason:    enrollment.Reason,
		}, true
	case errors.As(err, &invalid):
		return http.StatusUnprocessableEntity, ErrorBody{Error: invalid.Message, Code: CodeValidation, Field: invalid.Field}, true
	case errors.As(err, &conflict):
		return http.StatusConflict, ErrorBody{
			Error:     conflict.Error(),
			Code:      CodeConflict,
			Email:     conflict.Email,
			AccountID: conflict.AccountID,
			Archived:  conflict.Archived,
		}, true
	case errors.Is(err, fault.ErrAccountNotArchived):
		return http.StatusConflict, ErrorBody{Error: fault.ErrAccountNotArchived.Error(), Code: CodeAccountNotArchived}, true
	case errors.As(err, &state):
		return http.StatusConflict, ErrorBody{Error: state.Error(), Code: CodeWorkflowState}, true
	case errors.Is(err, fault.ErrNotFound):
		return http.StatusNotFound, ErrorBody{Error: "not found", Code: CodeNotFound}, true
	case errors.As(err, &remote):
		return http.StatusBadGateway, ErrorBody{Error: fault.UserMessage(remote), Code: CodeRemote}, true
	}
	return http.StatusInternalServerError, ErrorBody{Error: "internal server error", Code: CodeInternal}, false
}

// ToError rebuilds the domain error a server encoded with FromError. op names the call
// for RemoteError.
func ToError(op string, status int, body ErrorBody) error {
	switch body.Code {
	case CodeValidation:
		return &fault.ValidationError{Field: body.Field, Message: body.Error}
	case CodeInvalidEnrollment:
		return &fault.InvalidEnrollmentError{
			ProgramID: body.ProgramID,
			Required:  body.Required,
			Selected:  body.Selected,
			Reason:    body.Reason,
		}
	case CodeConflict:
		return &fault.ConflictError{Email: body.Email, AccountID: body.AccountID, Archived: body.Archived}
	case CodeAccountNotArchived:
		return &fault.RemoteError{Op: op, Status: status, Message: body.Error, Err: fault.ErrAccountNotArchived}
	}
	if status == http.StatusNotFound {
		return &fault.RemoteError{Op: op, Status: status, Message: body.Error, Err: fault.ErrNotFound}
	}
	return &fault.RemoteError{Op: op, Status: status, Message: body.Error}
}
