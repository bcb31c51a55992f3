package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrCredentialNotFound = errors.New("credential not found")

	ErrAuth           = errors.New("auth rejected")
	ErrRemoteRejected = errors.New("remote rejected request")
	ErrTransient      = errors.New("transient remote failure")
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	ErrTaskCompletion = errors.New("task completion failed")
	ErrGameRound      = errors.New("game round failed")
	ErrUnplayable     = errors.New("game round is unplayable")
	ErrNotAuthorized  = errors.New("session is not authenticated")
)

// RemoteError is a response whose envelope did not satisfy the endpoint's
// success predicate. Kind is one of the sentinels above.
type RemoteError struct {
	Kind    error
	Op      string
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s (code %s)", e.Op, e.Message, e.Code)
}

func (e *RemoteError) Unwrap() error {
	return e.Kind
}

type RetryExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("api call failed after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetryExhaustedError) Unwrap() []error {
	return []error{ErrRetryExhausted, e.Last}
}
