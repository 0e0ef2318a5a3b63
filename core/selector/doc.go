// Package selector maintains the in-memory mapping from domain name to the
// best available TLS certificate.
//
// The Selector is consulted on every TLS handshake through its
// GetCertificate hook and mutated by the background renewal flow, so both
// maps are lock-free sync.Map structures and the replacement rule
// (longest-remaining-lifetime wins) makes concurrent Add calls commutative.
//
// TLS-ALPN-01 challenge certificates are tracked separately and take
// priority for handshakes that negotiate the acme-tls/1 protocol; the
// ownership package registers and discards them around each validation.
//
// # Types
//
//   - Selector: concurrent certificate index with challenge-cert overlay
//
// # Errors
//
//   - ErrCertificateNotFound: no certificate and no fallback for a domain
//   - ErrNoServerName: handshake without SNI and no fallback
//   - ErrNoChallengeCert: acme-tls/1 handshake with no challenge in flight
//   - ErrEmptyCertificate: Add called with an empty certificate
package selector
