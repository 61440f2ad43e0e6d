package action

import "errors"

// Sentinel errors for the action handler registry.
var (
	ErrNotFound      = errors.New("action not registered")
	ErrAlreadyExists = errors.New("action already registered")
	ErrEmptyName     = errors.New("action name is empty")
)
