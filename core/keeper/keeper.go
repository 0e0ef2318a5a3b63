package keeper

import (
	"context"
	"crypto"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/account"
	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/core/logger"
	"github.com/dmitrymomot/certkeeper/pkg/async"
	"github.com/dmitrymomot/certkeeper/pkg/clock"
	"github.com/dmitrymomot/certkeeper/pkg/console"
)

// ACMEClient is the slice of the protocol wrapper the state machine needs
// for account lifecycle. Issuance goes through the CertificateFactory.
type ACMEClient interface {
	Bind(key crypto.Signer)
	Discover(ctx context.Context) (acme.Directory, error)
	RegisterAccount(ctx context.Context, contacts []string, eab *acme.ExternalAccountBinding, prompt func(tosURL string) bool) (*acme.Account, error)
	FetchAccount(ctx context.Context) (*acme.Account, error)
}

// CertificateFactory performs a full issuance for a domain set.
type CertificateFactory interface {
	CreateCertificate(ctx context.Context, domains []string) (*certstore.Certificate, error)
}

// CertificateSink receives issued and loaded certificates. The selector
// implements it.
type CertificateSink interface {
	Add(cert *tls.Certificate) error
}

// Keeper drives the certificate lifecycle as a sequential state machine:
// seed the selector from storage, resolve the ACME account, issue or renew
// the certificate, then sleep until the next renewal check. Exactly one
// issuance is in flight at any time.
type Keeper struct {
	cfg      Config
	client   ACMEClient
	factory  CertificateFactory
	accounts account.Store
	sink     CertificateSink
	repos    []certstore.Repository
	sources  []certstore.Source
	prompt   console.Console
	clk      clock.Clock
	logger   *slog.Logger

	acct    *account.Account
	current *certstore.Certificate
}

// New creates a keeper. The configuration is validated fail-fast.
func New(cfg Config, client ACMEClient, factory CertificateFactory, accounts account.Store, sink CertificateSink, opts ...Option) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid keeper config: %w", err)
	}

	k := &Keeper{
		cfg:      cfg,
		client:   client,
		factory:  factory,
		accounts: accounts,
		sink:     sink,
		prompt:   &console.Stdio{},
		clk:      clock.System(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k, nil
}

// Run executes the state machine until it reaches a terminal state or a
// state fails. Context cancellation ends the renewal loop cleanly.
func (k *Keeper) Run(ctx context.Context) error {
	var st state = serverStartup{}
	for st != nil {
		k.logger.InfoContext(ctx, "entering state", "state", st.String())

		next, err := st.run(ctx, k)
		if err != nil {
			k.logger.ErrorContext(ctx, "state failed", "state", st.String(), logger.Error(err))
			return fmt.Errorf("state %s: %w", st, err)
		}
		st = next
	}
	return nil
}

// Certificate returns the bundle most recently issued or loaded for the
// configured domain set, or nil before the first issuance.
func (k *Keeper) Certificate() *certstore.Certificate {
	return k.current
}

// persist saves the bundle to every repository concurrently. Failures are
// aggregated and logged but never fail issuance: the certificate is already
// serving traffic.
func (k *Keeper) persist(ctx context.Context, cert *certstore.Certificate) {
	if len(k.repos) == 0 {
		return
	}

	futures := make([]*async.ExecFuture, 0, len(k.repos))
	for _, repo := range k.repos {
		futures = append(futures, async.Exec(ctx, repo, func(ctx context.Context, r certstore.Repository) error {
			return r.SaveCertificate(ctx, cert)
		}))
	}

	if err := async.JoinAll(futures...); err != nil {
		k.logger.ErrorContext(ctx, "failed to persist certificate to some repositories",
			"thumbprint", cert.Thumbprint(),
			logger.Error(err))
	}
}

// tosPrompt builds the terms-of-service callback for registration.
func (k *Keeper) tosPrompt(ctx context.Context) func(tosURL string) bool {
	return func(tosURL string) bool {
		if k.cfg.AcceptTOS {
			k.logger.InfoContext(ctx, "terms of service accepted by configuration", "url", tosURL)
			return true
		}

		ok, err := k.prompt.Confirm(ctx, fmt.Sprintf("Agree to the certificate authority's terms of service? (%s)", tosURL))
		if err != nil {
			k.logger.ErrorContext(ctx, "terms of service prompt failed", logger.Error(err))
			return false
		}
		return ok
	}
}
