// Package ownership implements the domain-ownership proofs an ACME CA
// accepts: HTTP-01, DNS-01, and TLS-ALPN-01.
//
// All three validators share one contract (ValidateOwnership) and one
// polling loop: the authorization is re-fetched up to 60 times with a
// 2-second delay, succeeding on Valid, failing with aggregated challenge
// reasons on Invalid, failing with a terminal error on
// Revoked/Expired/Deactivated, and timing out when the budget is spent.
//
// Each validator stages its challenge material before asking the CA to
// validate and tears it down in a deferred cleanup, so HTTP tokens, TXT
// records, and ephemeral challenge certificates are removed on success,
// failure, and cancellation alike.
//
// The TLSALPNResponder bridges TLS-ALPN-01 validation and live handshakes:
// it parks challenge certificates in the selector and gates advertisement of
// the acme-tls/1 protocol on an atomic count of open challenges.
package ownership
