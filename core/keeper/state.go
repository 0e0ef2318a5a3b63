package keeper

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/account"
	"github.com/dmitrymomot/certkeeper/core/acmeclient"
	"github.com/dmitrymomot/certkeeper/core/logger"
)

// state is one step of the keeper lifecycle. run returns the next state, or
// nil when the machine is done.
type state interface {
	String() string
	run(ctx context.Context, k *Keeper) (state, error)
}

type (
	serverStartup       struct{}
	initializeAccount   struct{}
	createAccount       struct{}
	revalidateAccount   struct{}
	generateCertificate struct{}
	checkForRenewal     struct{}
	terminal            struct{ reason string }
)

func (serverStartup) String() string       { return "ServerStartup" }
func (initializeAccount) String() string   { return "InitializeAccount" }
func (createAccount) String() string       { return "CreateAccount" }
func (revalidateAccount) String() string   { return "RevalidateAccount" }
func (generateCertificate) String() string { return "GenerateCertificate" }
func (checkForRenewal) String() string     { return "CheckForRenewal" }
func (terminal) String() string            { return "Terminal" }

// serverStartup seeds the selector from storage and halts when no public
// domain is configured, since no CA could ever validate one.
func (serverStartup) run(ctx context.Context, k *Keeper) (state, error) {
	if !k.cfg.HasPublicDomain() {
		k.logger.WarnContext(ctx, "no publicly resolvable domain configured, certificate automation disabled",
			"domains", k.cfg.Domains)
		return terminal{reason: "no public domain configured"}, nil
	}

	k.loadStoredCertificates(ctx)
	return initializeAccount{}, nil
}

// initializeAccount looks for a stored account for the configured CA.
func (initializeAccount) run(ctx context.Context, k *Keeper) (state, error) {
	host, err := k.cfg.DirectoryHost()
	if err != nil {
		return nil, err
	}

	acct, err := k.accounts.Load(ctx, host)
	if errors.Is(err, account.ErrAccountNotFound) {
		k.logger.InfoContext(ctx, "no stored account for directory", "directory_host", host)
		return createAccount{}, nil
	}
	if err != nil {
		return nil, err
	}

	signer, err := acct.Signer()
	if err != nil {
		return nil, err
	}
	k.client.Bind(signer)
	k.acct = acct
	return revalidateAccount{}, nil
}

// createAccount registers a fresh account with the CA and persists it.
func (createAccount) run(ctx context.Context, k *Keeper) (state, error) {
	host, err := k.cfg.DirectoryHost()
	if err != nil {
		return nil, err
	}

	acct, err := account.New([]string{k.cfg.Email})
	if err != nil {
		return nil, err
	}
	signer, err := acct.Signer()
	if err != nil {
		return nil, err
	}
	k.client.Bind(signer)

	dir, err := k.client.Discover(ctx)
	if err != nil {
		return nil, err
	}
	if dir.Terms != "" && !k.tosPrompt(ctx)(dir.Terms) {
		return nil, ErrTermsNotAccepted
	}

	eab, err := k.cfg.ExternalAccountBinding()
	if err != nil {
		return nil, err
	}

	reg, err := k.client.RegisterAccount(ctx, acct.Contacts(), eab, func(string) bool { return true })
	if err != nil {
		return nil, err
	}

	acct.URI = reg.URI
	if err := k.accounts.Save(ctx, host, acct); err != nil {
		return nil, err
	}

	k.acct = acct
	k.logger.InfoContext(ctx, "account registered", "uri", reg.URI, "directory_host", host)
	return generateCertificate{}, nil
}

// revalidateAccount confirms the stored account is still valid at the CA,
// falling back to registration when it is gone or deactivated.
func (revalidateAccount) run(ctx context.Context, k *Keeper) (state, error) {
	reg, err := k.client.FetchAccount(ctx)
	if errors.Is(err, acmeclient.ErrNoAccount) {
		k.logger.WarnContext(ctx, "stored account unknown to the CA, re-registering")
		return createAccount{}, nil
	}
	if err != nil {
		return nil, err
	}

	if reg.Status != acme.StatusValid {
		k.logger.WarnContext(ctx, "stored account no longer valid, re-registering", "status", reg.Status)
		return createAccount{}, nil
	}

	if reg.URI != "" && reg.URI != k.acct.URI {
		k.acct.URI = reg.URI
		if host, err := k.cfg.DirectoryHost(); err == nil {
			if err := k.accounts.Save(ctx, host, k.acct); err != nil {
				k.logger.ErrorContext(ctx, "failed to update stored account", logger.Error(err))
			}
		}
	}

	k.logger.InfoContext(ctx, "account revalidated", "uri", k.acct.URI)
	return generateCertificate{}, nil
}

// generateCertificate issues when the current certificate is missing,
// incomplete, or inside the renewal window.
func (generateCertificate) run(ctx context.Context, k *Keeper) (state, error) {
	if !k.needsIssuance() {
		k.logger.InfoContext(ctx, "certificate still valid",
			"thumbprint", k.current.Thumbprint(),
			"not_after", k.current.NotAfter())
		return checkForRenewal{}, nil
	}

	cert, err := k.factory.CreateCertificate(ctx, k.cfg.Domains)
	if err != nil {
		return nil, err
	}

	tlsCert := cert.TLS()
	if err := k.sink.Add(&tlsCert); err != nil {
		return nil, err
	}

	k.persist(ctx, cert)
	k.current = cert
	return checkForRenewal{}, nil
}

// checkForRenewal sleeps for one check period, then re-evaluates. Context
// cancellation ends the loop cleanly. With renewal disabled the machine
// stops after the one-shot issuance.
func (checkForRenewal) run(ctx context.Context, k *Keeper) (state, error) {
	if k.cfg.RenewalDisabled() {
		return terminal{reason: "renewal disabled"}, nil
	}

	k.logger.InfoContext(ctx, "waiting for next renewal check", logger.Duration(k.cfg.RenewalCheckPeriod))
	if err := k.clk.Sleep(ctx, k.cfg.RenewalCheckPeriod); err != nil {
		k.logger.InfoContext(ctx, "renewal loop stopped", "reason", err)
		return terminal{reason: "shutdown requested"}, nil
	}
	return generateCertificate{}, nil
}

func (t terminal) run(ctx context.Context, k *Keeper) (state, error) {
	k.logger.InfoContext(ctx, "certificate keeper stopped", "reason", t.reason)
	return nil, nil
}

// needsIssuance reports whether a new certificate is required: none held,
// the held one does not cover every configured domain, or expiry is inside
// the renewal lead time.
func (k *Keeper) needsIssuance() bool {
	if k.current == nil {
		return true
	}

	covered := k.current.Domains()
	for _, domain := range k.cfg.Domains {
		if !domainCovered(domain, covered) {
			return true
		}
	}

	return k.clk.Now().Add(k.cfg.RenewBeforeExpiry).After(k.current.NotAfter())
}

// domainCovered reports whether the domain matches any covered name,
// including single-label wildcard matches.
func domainCovered(domain string, covered []string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, name := range covered {
		if name == domain {
			return true
		}
		if suffix, ok := strings.CutPrefix(name, "*."); ok {
			rest, matched := strings.CutSuffix(domain, "."+suffix)
			if matched && rest != "" && !strings.Contains(rest, ".") {
				return true
			}
		}
	}
	return false
}
