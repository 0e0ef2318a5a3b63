package selector

import (
	"crypto/tls"
	"log/slog"
)

// Option configures a Selector during initialization.
type Option func(*Selector)

// WithFallback sets the certificate served when no indexed certificate
// matches the requested domain.
func WithFallback(cert *tls.Certificate) Option {
	return func(s *Selector) {
		s.fallback = cert
	}
}

// WithLogger sets the logger for chain-verification warnings and
// add/replace events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Selector) {
		if logger != nil {
			s.logger = logger
		}
	}
}
