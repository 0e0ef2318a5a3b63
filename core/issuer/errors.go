package issuer

import "errors"

var (
	// ErrNoDomains is returned when issuance is requested for an empty
	// domain set.
	ErrNoDomains = errors.New("no domains to issue for")

	// ErrUnknownKeyAlgorithm is returned for an unsupported key algorithm.
	ErrUnknownKeyAlgorithm = errors.New("unknown key algorithm")

	// ErrIdentifierMismatch is returned when the CA hands back an order whose
	// identifier set differs from the requested domains.
	ErrIdentifierMismatch = errors.New("order identifiers do not match requested domains")

	// ErrNoUsableChallenge is returned when none of the configured validators
	// can prove ownership for an authorization.
	ErrNoUsableChallenge = errors.New("no usable challenge type for authorization")

	// ErrAuthorizationUnusable is returned when a reused order carries an
	// authorization that is neither pending nor valid.
	ErrAuthorizationUnusable = errors.New("authorization in unusable state")

	// ErrEmptyChain is returned when the CA responds to finalization with an
	// empty certificate chain.
	ErrEmptyChain = errors.New("finalized order returned an empty chain")
)
