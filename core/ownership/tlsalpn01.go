package ownership

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"

	"golang.org/x/crypto/acme"
)

// ChallengeCertSink is where the responder parks ephemeral challenge
// certificates so the TLS handshake hook can serve them. The certificate
// selector implements it.
type ChallengeCertSink interface {
	AddChallengeCert(domain string, cert *tls.Certificate)
	RemoveChallengeCert(domain string)
}

// TLSALPNResponder coordinates TLS-ALPN-01 challenge certificates with live
// handshakes. An atomic counter of open challenges gates whether the
// acme-tls/1 protocol is advertised at all, so idle periods add nothing to
// normal TLS negotiation. The counter is process-global by design: one
// responder instance is shared for the process lifetime.
type TLSALPNResponder struct {
	certs  ChallengeCertSink
	open   atomic.Int64
	logger *slog.Logger
}

// NewTLSALPNResponder creates a responder publishing challenge certificates
// into the given sink.
func NewTLSALPNResponder(certs ChallengeCertSink, logger *slog.Logger) *TLSALPNResponder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &TLSALPNResponder{certs: certs, logger: logger}
}

// PrepareChallengeCert registers an ephemeral challenge certificate for the
// domain and marks a challenge as open.
func (r *TLSALPNResponder) PrepareChallengeCert(domain string, cert *tls.Certificate) {
	r.open.Add(1)
	r.certs.AddChallengeCert(domain, cert)
	r.logger.Info("tls-alpn-01 challenge certificate prepared", "domain", domain)
}

// DiscardChallenge removes the domain's challenge certificate and closes the
// challenge.
func (r *TLSALPNResponder) DiscardChallenge(domain string) {
	r.certs.RemoveChallengeCert(domain)
	r.open.Add(-1)
	r.logger.Info("tls-alpn-01 challenge certificate discarded", "domain", domain)
}

// Active reports whether any challenge is currently outstanding.
func (r *TLSALPNResponder) Active() bool {
	return r.open.Load() > 0
}

// NextProtos returns base with acme-tls/1 appended while challenges are
// outstanding.
func (r *TLSALPNResponder) NextProtos(base []string) []string {
	if !r.Active() || slices.Contains(base, acme.ALPNProto) {
		return base
	}
	out := make([]string, 0, len(base)+1)
	out = append(out, base...)
	return append(out, acme.ALPNProto)
}

// WrapTLSConfig installs a GetConfigForClient hook on a clone of base that
// advertises acme-tls/1 only while at least one challenge is open.
func (r *TLSALPNResponder) WrapTLSConfig(base *tls.Config) *tls.Config {
	cfg := base.Clone()
	cfg.GetConfigForClient = func(hello *tls.ClientHelloInfo) (*tls.Config, error) {
		if !r.Active() {
			return nil, nil
		}
		challengeCfg := cfg.Clone()
		challengeCfg.GetConfigForClient = nil
		challengeCfg.NextProtos = r.NextProtos(cfg.NextProtos)
		return challengeCfg, nil
	}
	return cfg
}

// TLSALPN01Validator proves ownership by serving a self-signed certificate
// carrying the acmeIdentifier extension on the acme-tls/1 ALPN protocol.
type TLSALPN01Validator struct {
	client    ACMEClient
	responder *TLSALPNResponder
	opts      options
}

// NewTLSALPN01Validator creates a TLS-ALPN-01 validator using the given
// responder.
func NewTLSALPN01Validator(client ACMEClient, responder *TLSALPNResponder, opts ...Option) *TLSALPN01Validator {
	return &TLSALPN01Validator{
		client:    client,
		responder: responder,
		opts:      newOptions(opts),
	}
}

func (v *TLSALPN01Validator) ChallengeType() string {
	return TypeTLSALPN01
}

func (v *TLSALPN01Validator) ValidateOwnership(ctx context.Context, authz *acme.Authorization) error {
	domain := authz.Identifier.Value
	if authz.Wildcard {
		return fmt.Errorf("%w: %s", ErrWildcardNotSupported, domain)
	}

	chal, err := findChallenge(authz, TypeTLSALPN01)
	if err != nil {
		return err
	}

	cert, err := v.client.TLSALPN01ChallengeCert(chal.Token, domain)
	if err != nil {
		return err
	}

	v.responder.PrepareChallengeCert(domain, &cert)
	// Discard runs even when validation fails or the context is canceled.
	defer v.responder.DiscardChallenge(domain)

	if err := awaitReady(ctx, v.opts.readiness); err != nil {
		return err
	}

	v.opts.logger.InfoContext(ctx, "triggering tls-alpn-01 validation", "domain", domain)
	if _, err := v.client.AcceptChallenge(ctx, chal); err != nil {
		return err
	}

	return pollAuthorization(ctx, v.client, v.opts.clk, authz.URI, domain, v.opts.logger)
}
