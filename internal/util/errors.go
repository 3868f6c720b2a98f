package util

import "errors"

// Common application-specific errors.
var (
	ErrInvalidCredentials  = errors.New("invalid username or PIN")
	ErrMalformedState      = errors.New("malformed persisted state")
	ErrAccountNotFound     = errors.New("account not found")
	ErrValidation          = errors.New("invalid input provided")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrSameAccountTransfer = errors.New("cannot transfer to the same account")
	ErrNoSession           = errors.New("no active session")
)

// IsError reports whether err matches target, unwrapping as needed.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}
