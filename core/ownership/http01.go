package ownership

import (
	"context"
	"fmt"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/challenge"
)

// HTTP01Validator proves ownership by publishing the key authorization at
// /.well-known/acme-challenge/{token} through the challenge response store.
type HTTP01Validator struct {
	client ACMEClient
	store  challenge.ResponseStore
	opts   options
}

// NewHTTP01Validator creates an HTTP-01 validator backed by the given
// response store.
func NewHTTP01Validator(client ACMEClient, store challenge.ResponseStore, opts ...Option) *HTTP01Validator {
	return &HTTP01Validator{
		client: client,
		store:  store,
		opts:   newOptions(opts),
	}
}

func (v *HTTP01Validator) ChallengeType() string {
	return TypeHTTP01
}

func (v *HTTP01Validator) ValidateOwnership(ctx context.Context, authz *acme.Authorization) error {
	domain := authz.Identifier.Value
	if authz.Wildcard {
		return fmt.Errorf("%w: %s", ErrWildcardNotSupported, domain)
	}

	chal, err := findChallenge(authz, TypeHTTP01)
	if err != nil {
		return err
	}

	keyAuth, err := v.client.KeyAuthorization(chal.Token)
	if err != nil {
		return err
	}

	if err := v.store.AddChallengeResponse(ctx, chal.Token, keyAuth); err != nil {
		return fmt.Errorf("store challenge response for %q: %w", domain, err)
	}
	// Cleanup runs even when validation fails or the context is canceled.
	defer func() {
		_ = v.store.RemoveChallengeResponse(context.WithoutCancel(ctx), chal.Token)
	}()

	if err := awaitReady(ctx, v.opts.readiness); err != nil {
		return err
	}

	v.opts.logger.InfoContext(ctx, "triggering http-01 validation", "domain", domain, "token", chal.Token)
	if _, err := v.client.AcceptChallenge(ctx, chal); err != nil {
		return err
	}

	return pollAuthorization(ctx, v.client, v.opts.clk, authz.URI, domain, v.opts.logger)
}
