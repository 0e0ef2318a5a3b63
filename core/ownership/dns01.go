package ownership

import (
	"context"
	"fmt"

	"github.com/go-acme/lego/v4/challenge/dns01"
	"github.com/miekg/dns"
	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/logger"
)

// DNSProvider creates and removes the _acme-challenge TXT records a DNS-01
// validation requires. Implementations wrap a DNS hosting API.
type DNSProvider interface {
	CreateRecord(ctx context.Context, fqdn, value string) error
	DeleteRecord(ctx context.Context, fqdn, value string) error
}

// DNS01Validator proves ownership by provisioning a TXT record through an
// external DNS provider. The record is removed after validation regardless
// of the outcome.
type DNS01Validator struct {
	client   ACMEClient
	provider DNSProvider
	resolver string // host:port of a resolver for propagation prechecks, optional
	opts     options
}

// NewDNS01Validator creates a DNS-01 validator delegating record management
// to the given provider.
func NewDNS01Validator(client ACMEClient, provider DNSProvider, opts ...Option) *DNS01Validator {
	return &DNS01Validator{
		client:   client,
		provider: provider,
		opts:     newOptions(opts),
	}
}

// WithPropagationResolver enables a best-effort TXT propagation check against
// the given resolver (host:port) before the CA is asked to validate.
func (v *DNS01Validator) WithPropagationResolver(addr string) *DNS01Validator {
	v.resolver = addr
	return v
}

func (v *DNS01Validator) ChallengeType() string {
	return TypeDNS01
}

func (v *DNS01Validator) ValidateOwnership(ctx context.Context, authz *acme.Authorization) error {
	domain := authz.Identifier.Value

	chal, err := findChallenge(authz, TypeDNS01)
	if err != nil {
		return err
	}

	keyAuth, err := v.client.KeyAuthorization(chal.Token)
	if err != nil {
		return err
	}

	info := dns01.GetChallengeInfo(domain, keyAuth)

	if err := v.provider.CreateRecord(ctx, info.EffectiveFQDN, info.Value); err != nil {
		return fmt.Errorf("create TXT record for %q: %w", domain, err)
	}
	// The record is removed on success, failure, and cancellation alike.
	defer func() {
		cleanupCtx := context.WithoutCancel(ctx)
		if err := v.provider.DeleteRecord(cleanupCtx, info.EffectiveFQDN, info.Value); err != nil {
			v.opts.logger.ErrorContext(cleanupCtx, "failed to remove TXT record",
				"domain", domain,
				"fqdn", info.EffectiveFQDN,
				logger.Error(err))
		}
	}()

	v.awaitPropagation(ctx, info.EffectiveFQDN, info.Value)

	v.opts.logger.InfoContext(ctx, "triggering dns-01 validation", "domain", domain, "fqdn", info.EffectiveFQDN)
	if _, err := v.client.AcceptChallenge(ctx, chal); err != nil {
		return err
	}

	return pollAuthorization(ctx, v.client, v.opts.clk, authz.URI, domain, v.opts.logger)
}

// awaitPropagation polls the configured resolver until the TXT record is
// visible. Best effort: the CA performs the authoritative lookup, so an
// inconclusive precheck only costs the wait budget.
func (v *DNS01Validator) awaitPropagation(ctx context.Context, fqdn, value string) {
	if v.resolver == "" {
		return
	}

	const attempts = 30
	for i := 0; i < attempts; i++ {
		found, err := txtRecordPresent(v.resolver, fqdn, value)
		if err != nil {
			v.opts.logger.DebugContext(ctx, "propagation check failed", "fqdn", fqdn, logger.Error(err))
		}
		if found {
			return
		}
		if err := v.opts.clk.Sleep(ctx, pollInterval); err != nil {
			return
		}
	}

	v.opts.logger.WarnContext(ctx, "TXT record not observed before precheck budget elapsed", "fqdn", fqdn)
}

func txtRecordPresent(resolver, fqdn, value string) (bool, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(fqdn), dns.TypeTXT)

	c := new(dns.Client)
	resp, _, err := c.Exchange(m, resolver)
	if err != nil {
		return false, err
	}

	for _, rr := range resp.Answer {
		txt, ok := rr.(*dns.TXT)
		if !ok {
			continue
		}
		for _, s := range txt.Txt {
			if s == value {
				return true, nil
			}
		}
	}
	return false, nil
}
