package errors

import "fmt"

// Base sentinels. Every rejection the coordinator reports back to a caller
// wraps one of these two, so transport handlers can classify with errors.Is.
var (
	ErrValidation   = fmt.Errorf("validation failed")
	ErrIllegalState = fmt.Errorf("illegal session state")
)

var (
	ErrEmptyContent    = fmt.Errorf("%w: message cannot be empty", ErrValidation)
	ErrEmptyUsername   = fmt.Errorf("%w: username cannot be empty", ErrValidation)
	ErrUsernameTooLong = fmt.Errorf("%w: username exceeds 50 characters", ErrValidation)
	ErrUsernameInvalid = fmt.Errorf("%w: username may only contain letters, digits, underscore and hyphen", ErrValidation)
)

var (
	ErrAlreadyJoined  = fmt.Errorf("%w: session already joined the chat", ErrIllegalState)
	ErrNotJoined      = fmt.Errorf("%w: you must join the chat first", ErrIllegalState)
	ErrUnknownSession = fmt.Errorf("%w: unknown session", ErrIllegalState)
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no censored words have been found")
)
