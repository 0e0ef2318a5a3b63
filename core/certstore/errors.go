package certstore

import "errors"

var (
	// ErrEmptyChain is returned when a bundle without a leaf certificate is
	// saved or loaded.
	ErrEmptyChain = errors.New("certificate chain is empty")

	// ErrUnsupportedKey is returned when a stored private key does not
	// implement crypto.Signer.
	ErrUnsupportedKey = errors.New("unsupported private key type")
)
