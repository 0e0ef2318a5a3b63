package keeper

import "errors"

var (
	// ErrNoDomainsConfigured is returned when the domain list is empty.
	ErrNoDomainsConfigured = errors.New("at least one domain must be configured")

	// ErrEmailRequired is returned when no contact email is configured.
	ErrEmailRequired = errors.New("contact email is required")

	// ErrInvalidRenewalPolicy is returned when a renewal duration is
	// negative. Zero means renewal is disabled.
	ErrInvalidRenewalPolicy = errors.New("renewal durations must not be negative")

	// ErrNoChallengesAllowed is returned when the allowed challenge list is
	// empty.
	ErrNoChallengesAllowed = errors.New("at least one challenge type must be allowed")

	// ErrUnknownChallengeType is returned for a challenge type this module
	// does not implement.
	ErrUnknownChallengeType = errors.New("unknown challenge type")

	// ErrWildcardNeedsDNS is returned when a wildcard domain is configured
	// without dns-01 among the allowed challenges.
	ErrWildcardNeedsDNS = errors.New("wildcard domains require dns-01 to be allowed")

	// ErrPartialEAB is returned when only one of the external account
	// binding credentials is set.
	ErrPartialEAB = errors.New("external account binding requires both key ID and HMAC key")

	// ErrTermsNotAccepted is returned when the operator declines the CA's
	// terms of service.
	ErrTermsNotAccepted = errors.New("terms of service not accepted")
)
