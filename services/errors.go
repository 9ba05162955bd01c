package services

import "errors"

// Domain errors returned by the services. Handlers map them to HTTP status
// codes with errors.Is; anything else is treated as an internal failure and
// surfaced without detail.
var (
	// ErrValidation marks malformed or missing input. Wrap it with %w and a
	// caller-facing detail message.
	ErrValidation = errors.New("validation failed")

	// ErrTaskNotFound covers both a task that does not exist and a task the
	// requester may not see. The two are deliberately indistinguishable so
	// that unauthorized callers learn nothing about task existence.
	ErrTaskNotFound = errors.New("task not found")

	// ErrForbidden marks an action on a visible task that the role may not
	// perform, such as a shared member editing anything but the status.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyShared is returned when a task is shared twice with the same
	// user.
	ErrAlreadyShared = errors.New("task already shared with this user")

	ErrNotificationNotFound = errors.New("notification not found")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
