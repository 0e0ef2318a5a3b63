package account

import "errors"

var (
	// ErrAccountNotFound is returned when no account is stored for a CA
	// directory.
	ErrAccountNotFound = errors.New("account not found")

	// ErrUnsupportedKey is returned when a stored private key does not
	// implement crypto.Signer.
	ErrUnsupportedKey = errors.New("unsupported account key type")
)
