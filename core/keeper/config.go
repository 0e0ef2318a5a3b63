package keeper

import (
	"encoding/base64"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/go-acme/lego/v4/lego"
	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/issuer"
	"github.com/dmitrymomot/certkeeper/core/ownership"
)

// Config holds keeper configuration with environment variable support.
type Config struct {
	// Domains is the exact set of names every issued certificate covers.
	Domains []string `env:"ACME_DOMAINS" envSeparator:","`

	// Email is the account contact address the CA notifies about expiring
	// certificates.
	Email string `env:"ACME_EMAIL"`

	// DirectoryURL overrides the CA directory endpoint. When empty the
	// Let's Encrypt production or staging directory is used per UseStaging.
	DirectoryURL string `env:"ACME_DIRECTORY_URL"`
	UseStaging   bool   `env:"ACME_USE_STAGING" envDefault:"false"`

	// AcceptTOS agrees to the CA's terms of service without prompting.
	AcceptTOS bool `env:"ACME_ACCEPT_TOS" envDefault:"false"`

	// KeyAlgorithm selects the certificate key algorithm.
	KeyAlgorithm issuer.KeyAlgorithm `env:"ACME_KEY_ALGORITHM" envDefault:"RS256"`

	// AllowedChallenges restricts which ownership proofs may run, in
	// preference order.
	AllowedChallenges []string `env:"ACME_ALLOWED_CHALLENGES" envSeparator:"," envDefault:"http-01,tls-alpn-01"`

	// Renewal policy. A zero lead time or check period disables automatic
	// renewal: the keeper issues once and stops.
	RenewBeforeExpiry  time.Duration `env:"ACME_RENEW_BEFORE_EXPIRY" envDefault:"720h"`
	RenewalCheckPeriod time.Duration `env:"ACME_RENEWAL_CHECK_PERIOD" envDefault:"24h"`

	// External account binding for CAs that require pre-registration.
	EABKeyID   string `env:"ACME_EAB_KEY_ID"`
	EABHMACKey string `env:"ACME_EAB_HMAC_KEY"` // base64url
}

// Validate fails fast on configuration the state machine cannot run with.
func (c Config) Validate() error {
	if len(c.Domains) == 0 {
		return ErrNoDomainsConfigured
	}
	if c.Email == "" {
		return ErrEmailRequired
	}
	if !c.KeyAlgorithm.Valid() {
		return fmt.Errorf("%w: %q", issuer.ErrUnknownKeyAlgorithm, c.KeyAlgorithm)
	}
	if c.RenewBeforeExpiry < 0 || c.RenewalCheckPeriod < 0 {
		return ErrInvalidRenewalPolicy
	}

	known := []string{ownership.TypeHTTP01, ownership.TypeDNS01, ownership.TypeTLSALPN01}
	if len(c.AllowedChallenges) == 0 {
		return ErrNoChallengesAllowed
	}
	for _, chal := range c.AllowedChallenges {
		if !slices.Contains(known, chal) {
			return fmt.Errorf("%w: %q", ErrUnknownChallengeType, chal)
		}
	}

	for _, domain := range c.Domains {
		if strings.HasPrefix(domain, "*.") && !slices.Contains(c.AllowedChallenges, ownership.TypeDNS01) {
			return fmt.Errorf("%w: %s", ErrWildcardNeedsDNS, domain)
		}
	}

	if (c.EABKeyID == "") != (c.EABHMACKey == "") {
		return ErrPartialEAB
	}

	if _, err := url.Parse(c.Directory()); err != nil {
		return fmt.Errorf("invalid directory URL: %w", err)
	}
	return nil
}

// RenewalDisabled reports whether the keeper should issue once and stop
// instead of running the renewal loop.
func (c Config) RenewalDisabled() bool {
	return c.RenewBeforeExpiry <= 0 || c.RenewalCheckPeriod <= 0
}

// Directory returns the effective CA directory URL.
func (c Config) Directory() string {
	if c.DirectoryURL != "" {
		return c.DirectoryURL
	}
	if c.UseStaging {
		return lego.LEDirectoryStaging
	}
	return lego.LEDirectoryProduction
}

// DirectoryHost returns the host component of the effective directory URL,
// used as the account storage key.
func (c Config) DirectoryHost() (string, error) {
	u, err := url.Parse(c.Directory())
	if err != nil {
		return "", fmt.Errorf("parse directory URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("directory URL %q has no host", c.Directory())
	}
	return u.Host, nil
}

// ExternalAccountBinding builds the EAB credentials, or nil when none are
// configured.
func (c Config) ExternalAccountBinding() (*acme.ExternalAccountBinding, error) {
	if c.EABKeyID == "" {
		return nil, nil
	}

	key, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.EABHMACKey, "="))
	if err != nil {
		return nil, fmt.Errorf("decode EAB HMAC key: %w", err)
	}
	return &acme.ExternalAccountBinding{KID: c.EABKeyID, Key: key}, nil
}

// HasPublicDomain reports whether at least one configured domain is
// reachable by a public CA: a dotted DNS name that is not an IP address or
// a local-only suffix.
func (c Config) HasPublicDomain() bool {
	for _, domain := range c.Domains {
		d := strings.ToLower(strings.TrimSpace(domain))
		d = strings.TrimPrefix(d, "*.")
		if d == "" || d == "localhost" || !strings.Contains(d, ".") {
			continue
		}
		if net.ParseIP(d) != nil {
			continue
		}
		if strings.HasSuffix(d, ".local") || strings.HasSuffix(d, ".localhost") || strings.HasSuffix(d, ".internal") {
			continue
		}
		return true
	}
	return false
}
