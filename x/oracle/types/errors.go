package types

import "errors"

var (
	// ErrUnauthorized is returned when the caller lacks the required role.
	// Never retried; a rejected call is terminal.
	ErrUnauthorized = errors.New("caller is not authorized")

	// ErrInvalidInput is returned for malformed declaration parameters.
	ErrInvalidInput = errors.New("invalid declaration input")

	// ErrDeclarationNotFound is returned when a sequence has no declaration.
	ErrDeclarationNotFound = errors.New("declaration not found")
)
