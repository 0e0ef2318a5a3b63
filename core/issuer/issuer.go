package issuer

import (
	"context"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/core/logger"
	"github.com/dmitrymomot/certkeeper/core/ownership"
	"github.com/dmitrymomot/certkeeper/pkg/async"
)

// ACMEClient is the slice of the protocol wrapper the factory needs.
type ACMEClient interface {
	FindOrCreateOrder(ctx context.Context, domains []string) (*acme.Order, error)
	GetAuthorization(ctx context.Context, uri string) (*acme.Authorization, error)
	WaitOrder(ctx context.Context, uri string) (*acme.Order, error)
	FinalizeOrder(ctx context.Context, finalizeURL string, csr []byte) ([][]byte, error)
}

// Factory drives a full issuance: order, ownership validation across all
// authorizations, key and CSR generation, finalization, and chain assembly.
type Factory struct {
	client            ACMEClient
	validators        []ownership.Validator
	keyAlg            KeyAlgorithm
	additionalIssuers []*x509.Certificate
	logger            *slog.Logger
}

// NewFactory creates a certificate factory. Validators are tried in the
// given order against each authorization's offered challenge types.
func NewFactory(client ACMEClient, validators []ownership.Validator, opts ...Option) *Factory {
	f := &Factory{
		client:     client,
		validators: validators,
		keyAlg:     RS256,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateCertificate obtains a certificate for the exact domain set. Pending
// authorizations are validated concurrently; every validator's cleanup runs
// even when a sibling fails.
func (f *Factory) CreateCertificate(ctx context.Context, domains []string) (*certstore.Certificate, error) {
	if len(domains) == 0 {
		return nil, ErrNoDomains
	}
	started := time.Now()

	order, err := f.client.FindOrCreateOrder(ctx, domains)
	if err != nil {
		return nil, err
	}
	if err := verifyIdentifiers(order, domains); err != nil {
		return nil, err
	}
	f.logger.InfoContext(ctx, "order obtained", "uri", order.URI, "status", order.Status, "domains", domains)

	if err := f.validateAuthorizations(ctx, order); err != nil {
		return nil, err
	}

	ready, err := f.client.WaitOrder(ctx, order.URI)
	if err != nil {
		return nil, err
	}

	key, err := generateKey(f.keyAlg)
	if err != nil {
		return nil, err
	}

	csr, err := x509.CreateCertificateRequest(rand.Reader, &x509.CertificateRequest{
		Subject:  pkix.Name{CommonName: domains[0]},
		DNSNames: domains,
	}, key)
	if err != nil {
		return nil, fmt.Errorf("create certificate request: %w", err)
	}

	der, err := f.client.FinalizeOrder(ctx, ready.FinalizeURL, csr)
	if err != nil {
		return nil, err
	}
	if len(der) == 0 {
		return nil, ErrEmptyChain
	}

	chain := make([]*x509.Certificate, 0, len(der)+len(f.additionalIssuers))
	for _, block := range der {
		cert, err := x509.ParseCertificate(block)
		if err != nil {
			return nil, fmt.Errorf("parse issued certificate: %w", err)
		}
		chain = append(chain, cert)
	}
	chain = append(chain, f.additionalIssuers...)

	bundle := &certstore.Certificate{PrivateKey: key, Chain: chain}
	f.logger.InfoContext(ctx, "certificate issued",
		"thumbprint", bundle.Thumbprint(),
		"not_after", bundle.NotAfter(),
		"domains", bundle.Domains(),
		logger.Elapsed(started))
	return bundle, nil
}

// validateAuthorizations fans out ownership validation over every pending
// authorization on the order and waits for all of them.
func (f *Factory) validateAuthorizations(ctx context.Context, order *acme.Order) error {
	var futures []*async.ExecFuture
	for _, uri := range order.AuthzURLs {
		authz, err := f.client.GetAuthorization(ctx, uri)
		if err != nil {
			return err
		}

		switch authz.Status {
		case acme.StatusValid:
			// Already proven, typically on a reused order.
			continue
		case acme.StatusPending:
		default:
			return fmt.Errorf("%w: %s is %s", ErrAuthorizationUnusable, authz.Identifier.Value, authz.Status)
		}

		validator, err := f.selectValidator(authz)
		if err != nil {
			return err
		}

		f.logger.InfoContext(ctx, "validating ownership",
			"domain", authz.Identifier.Value,
			"challenge", validator.ChallengeType(),
			"wildcard", authz.Wildcard)
		futures = append(futures, async.Exec(ctx, authz, validator.ValidateOwnership))
	}

	return async.JoinAll(futures...)
}

// selectValidator returns the first configured validator whose challenge
// type the CA offered. Wildcard authorizations only match dns-01.
func (f *Factory) selectValidator(authz *acme.Authorization) (ownership.Validator, error) {
	offered := make(map[string]struct{}, len(authz.Challenges))
	for _, chal := range authz.Challenges {
		offered[chal.Type] = struct{}{}
	}

	for _, v := range f.validators {
		if authz.Wildcard && v.ChallengeType() != ownership.TypeDNS01 {
			continue
		}
		if _, ok := offered[v.ChallengeType()]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNoUsableChallenge, authz.Identifier.Value)
}

// verifyIdentifiers rejects an order whose identifier set is not exactly the
// requested domain set. Protects against resuming a stale order that covers
// different names.
func verifyIdentifiers(order *acme.Order, domains []string) error {
	want := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		want[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}

	if len(order.Identifiers) != len(want) {
		return fmt.Errorf("%w: got %d identifiers, want %d", ErrIdentifierMismatch, len(order.Identifiers), len(want))
	}
	for _, id := range order.Identifiers {
		if _, ok := want[strings.ToLower(id.Value)]; !ok {
			return fmt.Errorf("%w: unexpected identifier %q", ErrIdentifierMismatch, id.Value)
		}
	}
	return nil
}
