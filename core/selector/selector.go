package selector

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/logger"
)

// Selector is a concurrent map from domain name to the best available
// certificate for that domain. It is consulted on every TLS handshake, so all
// lookups go through sync.Map rather than a mutex that could serialize
// handshakes against background renewal writers.
//
// A separate map tracks short-lived TLS-ALPN-01 challenge certificates; those
// always win over regular certificates while a validation is in flight.
type Selector struct {
	certs          sync.Map // domain -> *tls.Certificate, leaf always parsed
	challengeCerts sync.Map // domain -> *tls.Certificate
	fallback       *tls.Certificate
	logger         *slog.Logger
}

// New creates an empty Selector.
func New(opts ...Option) *Selector {
	s := &Selector{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add indexes the certificate under every DNS name it covers (common name
// plus all subject alternative names). An existing entry is replaced only if
// the new certificate expires later; on equal expiration the existing entry
// wins. Chain building is attempted best-effort: a broken chain is logged but
// never blocks the hot swap.
func (s *Selector) Add(cert *tls.Certificate) error {
	leaf, err := leafOf(cert)
	if err != nil {
		return err
	}

	s.verifyChain(cert, leaf)

	for _, domain := range coveredDomains(leaf) {
		s.addForDomain(domain, cert, leaf)
	}
	return nil
}

func (s *Selector) addForDomain(domain string, cert *tls.Certificate, leaf *x509.Certificate) {
	for {
		existing, loaded := s.certs.LoadOrStore(domain, cert)
		if !loaded {
			s.logger.Info("certificate added", "domain", domain, "not_after", leaf.NotAfter)
			return
		}

		current := existing.(*tls.Certificate)
		if !leaf.NotAfter.After(current.Leaf.NotAfter) {
			return
		}
		if s.certs.CompareAndSwap(domain, existing, cert) {
			s.logger.Info("certificate replaced", "domain", domain, "not_after", leaf.NotAfter)
			return
		}
		// Lost a race with a concurrent writer; re-evaluate against the winner.
	}
}

// Select returns the certificate to serve for a domain, in priority order: an
// active TLS-ALPN-01 challenge certificate, the longest-lived regular
// certificate, the configured fallback, or nil.
func (s *Selector) Select(domain string) *tls.Certificate {
	domain = normalizeDomain(domain)

	if v, ok := s.challengeCerts.Load(domain); ok {
		return v.(*tls.Certificate)
	}
	if v, ok := s.certs.Load(domain); ok {
		return v.(*tls.Certificate)
	}
	return s.fallback
}

// HasCertForDomain reports whether a regular certificate is indexed for the
// domain.
func (s *Selector) HasCertForDomain(domain string) bool {
	_, ok := s.certs.Load(normalizeDomain(domain))
	return ok
}

// Reset removes the regular certificate entry for a domain.
func (s *Selector) Reset(domain string) {
	s.certs.Delete(normalizeDomain(domain))
}

// AddChallengeCert registers an ephemeral TLS-ALPN-01 challenge certificate
// for a domain under validation.
func (s *Selector) AddChallengeCert(domain string, cert *tls.Certificate) {
	s.challengeCerts.Store(normalizeDomain(domain), cert)
}

// RemoveChallengeCert discards the challenge certificate for a domain.
func (s *Selector) RemoveChallengeCert(domain string) {
	s.challengeCerts.Delete(normalizeDomain(domain))
}

// GetCertificate is a tls.Config.GetCertificate hook. Handshakes negotiating
// the acme-tls/1 protocol are answered exclusively from the challenge map;
// everything else goes through Select.
func (s *Selector) GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error) {
	domain := normalizeDomain(hello.ServerName)
	if domain == "" {
		if s.fallback != nil {
			return s.fallback, nil
		}
		return nil, ErrNoServerName
	}

	if slices.Contains(hello.SupportedProtos, acme.ALPNProto) {
		if v, ok := s.challengeCerts.Load(domain); ok {
			return v.(*tls.Certificate), nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoChallengeCert, domain)
	}

	if cert := s.Select(domain); cert != nil {
		return cert, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrCertificateNotFound, domain)
}

// verifyChain builds the leaf's trust chain using the bundled intermediates.
// Failures are expected for staging or freshly cut CAs and only logged;
// clients will reject a genuinely broken chain on their own.
func (s *Selector) verifyChain(cert *tls.Certificate, leaf *x509.Certificate) {
	intermediates := x509.NewCertPool()
	for _, der := range cert.Certificate[1:] {
		ic, err := x509.ParseCertificate(der)
		if err != nil {
			s.logger.Warn("skipping unparsable intermediate", logger.Error(err))
			continue
		}
		intermediates.AddCert(ic)
	}

	if _, err := leaf.Verify(x509.VerifyOptions{Intermediates: intermediates}); err != nil {
		s.logger.Warn("certificate chain could not be verified",
			"subject", leaf.Subject.CommonName,
			logger.Error(err))
	}
}

// leafOf returns the parsed leaf certificate, parsing and caching it on the
// tls.Certificate when needed.
func leafOf(cert *tls.Certificate) (*x509.Certificate, error) {
	if cert == nil || len(cert.Certificate) == 0 {
		return nil, ErrEmptyCertificate
	}
	if cert.Leaf != nil {
		return cert.Leaf, nil
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("parse leaf certificate: %w", err)
	}
	cert.Leaf = leaf
	return leaf, nil
}

// coveredDomains lists every DNS name the certificate covers, deduplicated
// and normalized.
func coveredDomains(leaf *x509.Certificate) []string {
	names := make([]string, 0, len(leaf.DNSNames)+1)
	if cn := normalizeDomain(leaf.Subject.CommonName); cn != "" {
		names = append(names, cn)
	}
	for _, san := range leaf.DNSNames {
		if d := normalizeDomain(san); d != "" && !slices.Contains(names, d) {
			names = append(names, d)
		}
	}
	return names
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(domain), "."))
}
