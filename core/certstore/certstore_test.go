package certstore_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certkeeper/core/certstore"
)

// issuedBundle builds a two-certificate chain (leaf signed by a throwaway CA)
// the way a real issuance produces one.
func issuedBundle(t *testing.T, notAfter time.Time, cn string, sans ...string) *certstore.Certificate {
	t.Helper()

	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test root"},
		NotBefore:             notAfter.Add(-48 * time.Hour),
		NotAfter:              notAfter.Add(24 * time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: cn},
		DNSNames:     sans,
		NotBefore:    notAfter.Add(-24 * time.Hour),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, caCert, &leafKey.PublicKey, caKey)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(leafDER)
	require.NoError(t, err)

	return &certstore.Certificate{
		PrivateKey: leafKey,
		Chain:      []*x509.Certificate{leaf, caCert},
	}
}

func TestCertificate(t *testing.T) {
	t.Parallel()

	t.Run("thumbprint is uppercase hex sha1 of the leaf", func(t *testing.T) {
		t.Parallel()

		bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com")
		tp := bundle.Thumbprint()
		assert.Regexp(t, regexp.MustCompile(`^[0-9A-F]{40}$`), tp)
		assert.Equal(t, tp, bundle.Thumbprint(), "thumbprint is stable")
	})

	t.Run("domains deduplicate CN and SANs", func(t *testing.T) {
		t.Parallel()

		bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com", "www.example.com")
		assert.Equal(t, []string{"example.com", "www.example.com"}, bundle.Domains())
	})

	t.Run("empty chain accessors", func(t *testing.T) {
		t.Parallel()

		empty := &certstore.Certificate{}
		assert.Nil(t, empty.Leaf())
		assert.Empty(t, empty.Thumbprint())
		assert.True(t, empty.NotAfter().IsZero())
		assert.Nil(t, empty.Domains())
	})

	t.Run("TLS conversion keeps the full chain and leaf", func(t *testing.T) {
		t.Parallel()

		bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com")
		tlsCert := bundle.TLS()

		require.Len(t, tlsCert.Certificate, 2)
		assert.Equal(t, bundle.Leaf().Raw, tlsCert.Certificate[0])
		assert.Same(t, bundle.Leaf(), tlsCert.Leaf)
		assert.Equal(t, bundle.PrivateKey, tlsCert.PrivateKey)
	})
}

func TestPFXRoundtrip(t *testing.T) {
	t.Parallel()

	bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com")

	data, err := certstore.EncodePFX(bundle, "changeit")
	require.NoError(t, err)

	decoded, err := certstore.DecodePFX(data, "changeit")
	require.NoError(t, err)

	require.Len(t, decoded.Chain, 2)
	assert.Equal(t, bundle.Leaf().Raw, decoded.Leaf().Raw)
	assert.Equal(t, bundle.Thumbprint(), decoded.Thumbprint())

	key, ok := decoded.PrivateKey.(*ecdsa.PrivateKey)
	require.True(t, ok)
	assert.True(t, key.Equal(bundle.PrivateKey))

	_, err = certstore.DecodePFX(data, "wrong password")
	require.Error(t, err)

	_, err = certstore.EncodePFX(&certstore.Certificate{}, "changeit")
	require.ErrorIs(t, err, certstore.ErrEmptyChain)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	t.Run("save and load roundtrip", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := certstore.NewFileStore(dir, "changeit")
		require.NoError(t, err)

		bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com")
		ctx := context.Background()
		require.NoError(t, store.SaveCertificate(ctx, bundle))

		_, err = os.Stat(filepath.Join(dir, bundle.Thumbprint()+".pfx"))
		require.NoError(t, err, "bundle is stored under its thumbprint")

		loaded, err := store.LoadCertificates(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, bundle.Thumbprint(), loaded[0].Thumbprint())
		assert.Equal(t, bundle.Domains(), loaded[0].Domains())
	})

	t.Run("corrupt bundles are skipped", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		store, err := certstore.NewFileStore(dir, "changeit")
		require.NoError(t, err)

		ctx := context.Background()
		bundle := issuedBundle(t, time.Now().Add(time.Hour), "example.com", "example.com")
		require.NoError(t, store.SaveCertificate(ctx, bundle))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.pfx"), []byte("not pkcs12"), 0o600))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o600))

		loaded, err := store.LoadCertificates(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, bundle.Thumbprint(), loaded[0].Thumbprint())
	})

	t.Run("empty directory", func(t *testing.T) {
		t.Parallel()

		store, err := certstore.NewFileStore(t.TempDir(), "changeit")
		require.NoError(t, err)

		loaded, err := store.LoadCertificates(context.Background())
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}
