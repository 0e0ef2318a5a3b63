package server

import "errors"

var (
	// ErrServerAlreadyRunning is returned when Run is called twice.
	ErrServerAlreadyRunning = errors.New("server is already running")

	// ErrCertificateSourceRequired is returned when no certificate source is
	// configured for the HTTPS listener.
	ErrCertificateSourceRequired = errors.New("certificate source is required")
)
