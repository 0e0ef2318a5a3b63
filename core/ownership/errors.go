package ownership

import "errors"

var (
	// ErrChallengeNotOffered is returned when the CA did not offer the
	// challenge type a validator implements for an authorization.
	ErrChallengeNotOffered = errors.New("challenge type not offered")

	// ErrPollTimeout is returned when the polling budget is exhausted before
	// the authorization resolves.
	ErrPollTimeout = errors.New("authorization polling timed out")

	// ErrAuthorizationTerminal is returned when an authorization is revoked,
	// expired, or deactivated.
	ErrAuthorizationTerminal = errors.New("authorization in terminal state")

	// ErrUnexpectedStatus is returned when the CA reports an authorization
	// status this client does not know.
	ErrUnexpectedStatus = errors.New("unexpected authorization status")

	// ErrWildcardNotSupported is returned when a wildcard authorization is
	// routed to a challenge type that cannot prove wildcard ownership.
	ErrWildcardNotSupported = errors.New("wildcard domains require dns-01 validation")
)
