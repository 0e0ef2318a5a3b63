package issuer

import (
	"crypto/x509"
	"log/slog"
)

// Option configures a Factory during initialization.
type Option func(*Factory)

// WithKeyAlgorithm sets the private key algorithm for issued certificates.
// Defaults to RS256.
func WithKeyAlgorithm(alg KeyAlgorithm) Option {
	return func(f *Factory) {
		if alg.Valid() {
			f.keyAlg = alg
		}
	}
}

// WithAdditionalIssuers appends extra trusted issuer certificates to every
// issued chain, for clients that need a private root alongside the CA chain.
func WithAdditionalIssuers(issuers ...*x509.Certificate) Option {
	return func(f *Factory) {
		f.additionalIssuers = append(f.additionalIssuers, issuers...)
	}
}

// WithLogger sets the logger for issuance progress events.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Factory) {
		if logger != nil {
			f.logger = logger
		}
	}
}
