// Package issuer turns a domain set into an issued certificate bundle.
//
// The factory submits a new-order request (the CA returns an existing
// pending order for the same identifier set when one exists), verifies the
// identifiers match exactly, validates every pending authorization
// concurrently through the configured ownership validators, then generates
// a fresh private key, submits the CSR, and assembles the returned chain
// with any additional trusted issuers.
//
// Validation is join-all: every authorization runs to completion so each
// validator's challenge cleanup executes even when a sibling fails.
package issuer
