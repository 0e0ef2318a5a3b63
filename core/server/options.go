package server

import (
	"log/slog"

	"github.com/dmitrymomot/certkeeper/core/challenge"
)

// Option configures server behavior.
type Option func(*Server)

// WithChallengeStore mounts the ACME HTTP-01 responder on the HTTP listener.
func WithChallengeStore(store challenge.ResponseStore) Option {
	return func(s *Server) {
		s.challenges = store
	}
}

// WithTLSConfigWrapper installs the TLS-ALPN responder's handshake hook on
// the HTTPS listener.
func WithTLSConfigWrapper(w TLSConfigWrapper) Option {
	return func(s *Server) {
		s.wrapper = w
	}
}

// WithLogger sets a custom logger for server operations.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}
