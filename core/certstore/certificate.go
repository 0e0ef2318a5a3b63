package certstore

import (
	"crypto"
	"crypto/sha1"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"strings"
	"time"
)

// Certificate is an issued certificate bundle: the private key plus the
// chain, leaf first.
type Certificate struct {
	PrivateKey crypto.Signer
	Chain      []*x509.Certificate
}

// Leaf returns the end-entity certificate, or nil for an empty chain.
func (c *Certificate) Leaf() *x509.Certificate {
	if len(c.Chain) == 0 {
		return nil
	}
	return c.Chain[0]
}

// Thumbprint returns the uppercase hex SHA-1 digest of the leaf's DER
// encoding. It names the bundle in storage backends.
func (c *Certificate) Thumbprint() string {
	leaf := c.Leaf()
	if leaf == nil {
		return ""
	}
	sum := sha1.Sum(leaf.Raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// NotAfter returns the leaf's expiry, or the zero time for an empty chain.
func (c *Certificate) NotAfter() time.Time {
	leaf := c.Leaf()
	if leaf == nil {
		return time.Time{}
	}
	return leaf.NotAfter
}

// Domains returns the leaf's subject common name and SANs, deduplicated.
func (c *Certificate) Domains() []string {
	leaf := c.Leaf()
	if leaf == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(leaf.DNSNames)+1)
	var domains []string
	add := func(d string) {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		domains = append(domains, d)
	}

	add(leaf.Subject.CommonName)
	for _, d := range leaf.DNSNames {
		add(d)
	}
	return domains
}

// TLS converts the bundle into the form crypto/tls serves from.
func (c *Certificate) TLS() tls.Certificate {
	der := make([][]byte, 0, len(c.Chain))
	for _, cert := range c.Chain {
		der = append(der, cert.Raw)
	}
	return tls.Certificate{
		Certificate: der,
		PrivateKey:  c.PrivateKey,
		Leaf:        c.Leaf(),
	}
}
