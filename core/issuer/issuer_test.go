package issuer_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/core/issuer"
	"github.com/dmitrymomot/certkeeper/core/ownership"
)

// fakeCA scripts order and authorization responses and signs whatever CSR is
// finalized.
type fakeCA struct {
	mu     sync.Mutex
	order  *acme.Order
	authzs map[string]*acme.Authorization
	key    *ecdsa.PrivateKey

	finalizeErr  error
	finalizedCSR *x509.CertificateRequest
}

func newFakeCA(t *testing.T, domains ...string) *fakeCA {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	ca := &fakeCA{
		key:    key,
		authzs: map[string]*acme.Authorization{},
		order: &acme.Order{
			URI:         "https://ca.test/order/1",
			Status:      acme.StatusPending,
			FinalizeURL: "https://ca.test/order/1/finalize",
		},
	}
	for _, domain := range domains {
		uri := "https://ca.test/authz/" + domain
		ca.order.Identifiers = append(ca.order.Identifiers, acme.AuthzID{Type: "dns", Value: domain})
		ca.order.AuthzURLs = append(ca.order.AuthzURLs, uri)
		ca.authzs[uri] = &acme.Authorization{
			URI:        uri,
			Status:     acme.StatusPending,
			Identifier: acme.AuthzID{Type: "dns", Value: domain},
			Challenges: []*acme.Challenge{
				{Type: ownership.TypeHTTP01, Token: "tok-" + domain},
				{Type: ownership.TypeDNS01, Token: "dtok-" + domain},
			},
		}
	}
	return ca
}

func (c *fakeCA) FindOrCreateOrder(_ context.Context, domains []string) (*acme.Order, error) {
	return c.order, nil
}

func (c *fakeCA) GetAuthorization(_ context.Context, uri string) (*acme.Authorization, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	authz, ok := c.authzs[uri]
	if !ok {
		return nil, fmt.Errorf("unknown authorization %q", uri)
	}
	return authz, nil
}

func (c *fakeCA) WaitOrder(_ context.Context, uri string) (*acme.Order, error) {
	ready := *c.order
	ready.Status = acme.StatusReady
	return &ready, nil
}

func (c *fakeCA) FinalizeOrder(_ context.Context, finalizeURL string, csr []byte) ([][]byte, error) {
	if c.finalizeErr != nil {
		return nil, c.finalizeErr
	}

	req, err := x509.ParseCertificateRequest(csr)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.finalizedCSR = req
	c.mu.Unlock()

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	if err != nil {
		return nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      req.Subject,
		DNSNames:     req.DNSNames,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, req.PublicKey, c.key)
	if err != nil {
		return nil, err
	}
	return [][]byte{der}, nil
}

// fakeValidator records which domains it validated and whether its cleanup
// ran.
type fakeValidator struct {
	typ   string
	fail  map[string]error
	delay time.Duration

	mu        sync.Mutex
	validated []string
	cleanups  int
}

func (v *fakeValidator) ChallengeType() string { return v.typ }

func (v *fakeValidator) ValidateOwnership(ctx context.Context, authz *acme.Authorization) error {
	defer func() {
		v.mu.Lock()
		v.cleanups++
		v.mu.Unlock()
	}()

	if v.delay > 0 {
		time.Sleep(v.delay)
	}

	domain := authz.Identifier.Value
	v.mu.Lock()
	v.validated = append(v.validated, domain)
	v.mu.Unlock()

	if err, ok := v.fail[domain]; ok {
		return err
	}
	return nil
}

func TestCreateCertificate(t *testing.T) {
	t.Parallel()

	t.Run("issues for every configured domain", func(t *testing.T) {
		t.Parallel()

		domains := []string{"example.com", "www.example.com"}
		ca := newFakeCA(t, domains...)
		v := &fakeValidator{typ: ownership.TypeHTTP01}

		f := issuer.NewFactory(ca, []ownership.Validator{v}, issuer.WithKeyAlgorithm(issuer.ES256))
		bundle, err := f.CreateCertificate(context.Background(), domains)
		require.NoError(t, err)

		assert.ElementsMatch(t, domains, v.validated)
		assert.ElementsMatch(t, domains, bundle.Domains())
		assert.NotEmpty(t, bundle.Thumbprint())
		assert.IsType(t, &ecdsa.PrivateKey{}, bundle.PrivateKey)

		require.NotNil(t, ca.finalizedCSR)
		assert.Equal(t, "example.com", ca.finalizedCSR.Subject.CommonName)
		assert.ElementsMatch(t, domains, ca.finalizedCSR.DNSNames)
	})

	t.Run("generates the configured key algorithm", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			alg  issuer.KeyAlgorithm
			want any
		}{
			{issuer.RS256, &rsa.PrivateKey{}},
			{issuer.ES384, &ecdsa.PrivateKey{}},
			{issuer.ES512, &ecdsa.PrivateKey{}},
		}

		for _, tt := range tests {
			t.Run(string(tt.alg), func(t *testing.T) {
				t.Parallel()

				ca := newFakeCA(t, "example.com")
				v := &fakeValidator{typ: ownership.TypeHTTP01}

				f := issuer.NewFactory(ca, []ownership.Validator{v}, issuer.WithKeyAlgorithm(tt.alg))
				bundle, err := f.CreateCertificate(context.Background(), []string{"example.com"})
				require.NoError(t, err)
				assert.IsType(t, tt.want, bundle.PrivateKey)
			})
		}
	})

	t.Run("empty domain set", func(t *testing.T) {
		t.Parallel()

		f := issuer.NewFactory(newFakeCA(t), nil)
		_, err := f.CreateCertificate(context.Background(), nil)
		require.ErrorIs(t, err, issuer.ErrNoDomains)
	})

	t.Run("rejects an order covering different identifiers", func(t *testing.T) {
		t.Parallel()

		ca := newFakeCA(t, "other.example.com")
		f := issuer.NewFactory(ca, []ownership.Validator{&fakeValidator{typ: ownership.TypeHTTP01}})

		_, err := f.CreateCertificate(context.Background(), []string{"example.com"})
		require.ErrorIs(t, err, issuer.ErrIdentifierMismatch)
	})

	t.Run("skips already valid authorizations", func(t *testing.T) {
		t.Parallel()

		ca := newFakeCA(t, "example.com", "www.example.com")
		ca.authzs["https://ca.test/authz/example.com"].Status = acme.StatusValid
		v := &fakeValidator{typ: ownership.TypeHTTP01}

		f := issuer.NewFactory(ca, []ownership.Validator{v})
		_, err := f.CreateCertificate(context.Background(), []string{"example.com", "www.example.com"})
		require.NoError(t, err)
		assert.Equal(t, []string{"www.example.com"}, v.validated)
	})

	t.Run("unusable authorization state fails fast", func(t *testing.T) {
		t.Parallel()

		ca := newFakeCA(t, "example.com")
		ca.authzs["https://ca.test/authz/example.com"].Status = acme.StatusRevoked

		f := issuer.NewFactory(ca, []ownership.Validator{&fakeValidator{typ: ownership.TypeHTTP01}})
		_, err := f.CreateCertificate(context.Background(), []string{"example.com"})
		require.ErrorIs(t, err, issuer.ErrAuthorizationUnusable)
	})

	t.Run("no validator matches the offered challenges", func(t *testing.T) {
		t.Parallel()

		ca := newFakeCA(t, "example.com")
		f := issuer.NewFactory(ca, []ownership.Validator{&fakeValidator{typ: ownership.TypeTLSALPN01}})

		_, err := f.CreateCertificate(context.Background(), []string{"example.com"})
		require.ErrorIs(t, err, issuer.ErrNoUsableChallenge)
	})

	t.Run("wildcard authorizations only match dns-01", func(t *testing.T) {
		t.Parallel()

		ca := newFakeCA(t, "example.com")
		authz := ca.authzs["https://ca.test/authz/example.com"]
		authz.Wildcard = true

		httpV := &fakeValidator{typ: ownership.TypeHTTP01}
		dnsV := &fakeValidator{typ: ownership.TypeDNS01}

		f := issuer.NewFactory(ca, []ownership.Validator{httpV, dnsV})
		_, err := f.CreateCertificate(context.Background(), []string{"example.com"})
		require.NoError(t, err)

		assert.Empty(t, httpV.validated)
		assert.Equal(t, []string{"example.com"}, dnsV.validated)
	})

	t.Run("a failing authorization does not cancel its siblings", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("dns is down")
		ca := newFakeCA(t, "a.example.com", "b.example.com")
		v := &fakeValidator{
			typ:   ownership.TypeHTTP01,
			fail:  map[string]error{"a.example.com": wantErr},
			delay: 10 * time.Millisecond,
		}

		f := issuer.NewFactory(ca, []ownership.Validator{v})
		_, err := f.CreateCertificate(context.Background(), []string{"a.example.com", "b.example.com"})

		require.ErrorIs(t, err, wantErr)
		assert.ElementsMatch(t, []string{"a.example.com", "b.example.com"}, v.validated,
			"every authorization runs to completion")
		assert.Equal(t, 2, v.cleanups, "cleanup runs for every authorization")
	})

	t.Run("finalize failure propagates", func(t *testing.T) {
		t.Parallel()

		wantErr := errors.New("csr rejected")
		ca := newFakeCA(t, "example.com")
		ca.finalizeErr = wantErr

		f := issuer.NewFactory(ca, []ownership.Validator{&fakeValidator{typ: ownership.TypeHTTP01}})
		_, err := f.CreateCertificate(context.Background(), []string{"example.com"})
		require.ErrorIs(t, err, wantErr)
	})
}

func TestKeyAlgorithmValid(t *testing.T) {
	t.Parallel()

	for _, alg := range []issuer.KeyAlgorithm{issuer.RS256, issuer.ES256, issuer.ES384, issuer.ES512} {
		assert.True(t, alg.Valid(), alg)
	}
	assert.False(t, issuer.KeyAlgorithm("HS256").Valid())
	assert.False(t, issuer.KeyAlgorithm("").Valid())
}
