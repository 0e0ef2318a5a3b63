// Package acmeclient wraps the ACME v2 (RFC 8555) protocol operations used
// by the certificate automation engine.
//
// The wrapper is deliberately thin: each method is one unretried round-trip
// to the CA, and all retry, polling, and backoff policy lives in the layers
// above (the ownership validators and the state machine). CA rejections
// surface as *ProtocolError carrying the problem document's type, detail,
// and HTTP status so callers can log them with domain context.
//
// Wire types (orders, authorizations, challenges, directory metadata) are
// golang.org/x/crypto/acme types; this package adds no parallel model.
package acmeclient
