package selector

import "errors"

var (
	// ErrCertificateNotFound is returned when no certificate covers the
	// requested domain and no fallback is configured.
	ErrCertificateNotFound = errors.New("certificate not found for domain")

	// ErrNoServerName is returned when a TLS handshake carries no SNI and no
	// fallback certificate is configured.
	ErrNoServerName = errors.New("no server name provided")

	// ErrNoChallengeCert is returned when an acme-tls/1 handshake arrives for
	// a domain with no challenge in flight.
	ErrNoChallengeCert = errors.New("no tls-alpn-01 challenge certificate for domain")

	// ErrEmptyCertificate is returned when Add receives a certificate with no
	// DER payload.
	ErrEmptyCertificate = errors.New("certificate has no DER data")
)
