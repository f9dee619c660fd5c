package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Controllers match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrAuth       = errors.New("authentication failed")
	ErrNotFound   = errors.New("not found")
)

// Length limits reported as validation errors.
var (
	ErrPasswordTooLong = fmt.Errorf("%w: password must be at most 72 bytes", ErrValidation)
	ErrUsernameTooLong = fmt.Errorf("%w: username must be at most %d characters", ErrValidation, MaxUsernameLength)
	ErrTitleTooLong    = fmt.Errorf("%w: title must be at most %d characters", ErrValidation, MaxTitleLength)
)
