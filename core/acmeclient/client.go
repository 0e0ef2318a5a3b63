package acmeclient

import (
	"context"
	"crypto"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/acme"
)

// Client is a thin, stateless-per-call wrapper around the ACME v2 protocol
// operations this module needs. Every method is a single unretried round-trip
// to the CA; retry and backoff policy belongs to the callers (validators and
// the state machine), not here.
//
// The wrapper is constructed once per process against a directory endpoint
// and bound to an account key when the account is resolved.
type Client struct {
	mu sync.RWMutex
	ac *acme.Client
}

// New creates a Client against the given ACME directory URL. The client is
// unusable for authenticated calls until Bind attaches an account key.
func New(directoryURL string, opts ...Option) *Client {
	c := &Client{
		ac: &acme.Client{
			DirectoryURL: directoryURL,
			UserAgent:    "certkeeper",
			// A non-positive backoff aborts after the first attempt, so
			// transient CA errors surface immediately instead of being
			// retried inside the wrapper.
			RetryBackoff: func(_ int, _ *http.Request, _ *http.Response) time.Duration {
				return -1
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind attaches the ACME account key used to sign all subsequent requests.
func (c *Client) Bind(key crypto.Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ac.Key = key
}

func (c *Client) client() *acme.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ac
}

// Discover fetches the CA's directory document, including the
// terms-of-service URI.
func (c *Client) Discover(ctx context.Context) (acme.Directory, error) {
	dir, err := c.client().Discover(ctx)
	if err != nil {
		return acme.Directory{}, wrapErr("discover directory", err)
	}
	return dir, nil
}

// RegisterAccount creates an account for the bound key. The prompt is invoked
// with the terms-of-service URL and must return true to proceed. If the key
// is already registered the existing account is fetched and returned.
func (c *Client) RegisterAccount(ctx context.Context, contacts []string, eab *acme.ExternalAccountBinding, prompt func(tosURL string) bool) (*acme.Account, error) {
	acct := &acme.Account{
		Contact:                contacts,
		ExternalAccountBinding: eab,
	}

	registered, err := c.client().Register(ctx, acct, prompt)
	if errors.Is(err, acme.ErrAccountAlreadyExists) {
		return c.FetchAccount(ctx)
	}
	if err != nil {
		return nil, wrapErr("register account", err)
	}
	return registered, nil
}

// FetchAccount retrieves the account associated with the bound key.
// ErrNoAccount is returned when the CA reports the account does not exist.
func (c *Client) FetchAccount(ctx context.Context) (*acme.Account, error) {
	acct, err := c.client().GetReg(ctx, "")
	if err != nil {
		if errors.Is(err, acme.ErrNoAccount) {
			return nil, ErrNoAccount
		}
		return nil, wrapErr("fetch account", err)
	}
	return acct, nil
}

// UpdateAccount pushes changed account metadata (contacts) to the CA.
func (c *Client) UpdateAccount(ctx context.Context, acct *acme.Account) (*acme.Account, error) {
	updated, err := c.client().UpdateReg(ctx, acct)
	if err != nil {
		return nil, wrapErr("update account", err)
	}
	return updated, nil
}

// FindOrCreateOrder submits a new-order request for the domain set. RFC 8555
// CAs return an existing pending order covering the same identifier set
// instead of minting a duplicate, which gives in-flight orders from a
// previous process life a chance to be resumed.
func (c *Client) FindOrCreateOrder(ctx context.Context, domains []string) (*acme.Order, error) {
	order, err := c.client().AuthorizeOrder(ctx, acme.DomainIDs(domains...))
	if err != nil {
		return nil, wrapErr("create order", err)
	}
	return order, nil
}

// GetOrder fetches the current state of an order.
func (c *Client) GetOrder(ctx context.Context, uri string) (*acme.Order, error) {
	order, err := c.client().GetOrder(ctx, uri)
	if err != nil {
		return nil, wrapErr("get order", err)
	}
	return order, nil
}

// WaitOrder polls an order until it leaves the pending/processing states.
func (c *Client) WaitOrder(ctx context.Context, uri string) (*acme.Order, error) {
	order, err := c.client().WaitOrder(ctx, uri)
	if err != nil {
		return nil, wrapErr("wait order", err)
	}
	return order, nil
}

// GetAuthorization fetches the current state of an authorization.
func (c *Client) GetAuthorization(ctx context.Context, uri string) (*acme.Authorization, error) {
	authz, err := c.client().GetAuthorization(ctx, uri)
	if err != nil {
		return nil, wrapErr("get authorization", err)
	}
	return authz, nil
}

// AcceptChallenge tells the CA the named challenge is ready to be validated.
func (c *Client) AcceptChallenge(ctx context.Context, chal *acme.Challenge) (*acme.Challenge, error) {
	accepted, err := c.client().Accept(ctx, chal)
	if err != nil {
		return nil, wrapErr("accept challenge", err)
	}
	return accepted, nil
}

// FinalizeOrder submits the CSR and downloads the issued certificate chain
// as DER blocks, leaf first.
func (c *Client) FinalizeOrder(ctx context.Context, finalizeURL string, csr []byte) ([][]byte, error) {
	der, _, err := c.client().CreateOrderCert(ctx, finalizeURL, csr, true)
	if err != nil {
		return nil, wrapErr("finalize order", err)
	}
	return der, nil
}

// KeyAuthorization computes the key authorization for a challenge token:
// the token joined with the account key thumbprint, per RFC 8555 §8.1. The
// same value answers HTTP-01 probes and seeds the DNS-01 TXT digest.
func (c *Client) KeyAuthorization(token string) (string, error) {
	ka, err := c.client().HTTP01ChallengeResponse(token)
	if err != nil {
		return "", wrapErr("compute key authorization", err)
	}
	return ka, nil
}

// HTTP01ChallengePath returns the well-known URL path the CA will probe for
// a token.
func (c *Client) HTTP01ChallengePath(token string) string {
	return c.client().HTTP01ChallengePath(token)
}

// DNS01ChallengeRecord returns the TXT record value for a DNS-01 token.
func (c *Client) DNS01ChallengeRecord(token string) (string, error) {
	value, err := c.client().DNS01ChallengeRecord(token)
	if err != nil {
		return "", wrapErr("compute dns-01 record", err)
	}
	return value, nil
}

// TLSALPN01ChallengeCert builds the ephemeral self-signed certificate for a
// TLS-ALPN-01 validation: RSA-2048, a SAN holding exactly the domain under
// validation, and a critical acmeIdentifier extension (OID
// 1.3.6.1.5.5.7.1.31) carrying the SHA-256 digest of the key authorization,
// per RFC 8737 §3.
func (c *Client) TLSALPN01ChallengeCert(token, domain string) (tls.Certificate, error) {
	cert, err := c.client().TLSALPN01ChallengeCert(token, domain)
	if err != nil {
		return tls.Certificate{}, wrapErr("build tls-alpn-01 certificate", err)
	}
	return cert, nil
}

// wrapErr converts CA problem documents into ProtocolError and adds the
// failed operation to everything else.
func wrapErr(op string, err error) error {
	var ae *acme.Error
	if errors.As(err, &ae) {
		return &ProtocolError{
			Operation:  op,
			Type:       ae.ProblemType,
			Detail:     ae.Detail,
			StatusCode: ae.StatusCode,
			err:        err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
