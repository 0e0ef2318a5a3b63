package s3_test

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"io"
	"math/big"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/certkeeper/core/account"
	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/integration/storage/s3"
)

// mockS3 is an in-memory S3Client backed by a map.
type mockS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string][]byte{}}
}

func (m *mockS3) PutObject(_ context.Context, params *s3aws.PutObjectInput, _ ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[aws.ToString(params.Key)] = data
	return &s3aws.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(_ context.Context, params *s3aws.GetObjectInput, _ ...func(*s3aws.Options)) (*s3aws.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3aws.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) ListObjectsV2(_ context.Context, params *s3aws.ListObjectsV2Input, _ ...func(*s3aws.Options)) (*s3aws.ListObjectsV2Output, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3aws.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

func (m *mockS3) keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var keys []string
	for key := range m.objects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// testBundle builds a self-signed bundle covering the given names.
func testBundle(t *testing.T, domains ...string) *certstore.Certificate {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject:      pkix.Name{CommonName: domains[0]},
		DNSNames:     domains,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(90 * 24 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	leaf, err := x509.ParseCertificate(der)
	require.NoError(t, err)

	return &certstore.Certificate{PrivateKey: key, Chain: []*x509.Certificate{leaf}}
}

func testS3Config() s3.S3Config {
	return s3.S3Config{
		Bucket: "certkeeper-test",
		Region: "us-east-1",
		Prefix: "certkeeper",
	}
}

func TestCertificateStore(t *testing.T) {
	t.Parallel()

	t.Run("save and load roundtrip", func(t *testing.T) {
		t.Parallel()

		mock := newMockS3()
		ctx := context.Background()
		store, err := s3.NewCertificateStore(ctx, testS3Config(), "changeit", s3.WithS3Client(mock))
		require.NoError(t, err)

		bundle := testBundle(t, "example.com", "www.example.com")
		require.NoError(t, store.SaveCertificate(ctx, bundle))

		wantKey := "certkeeper/certificates/" + bundle.Thumbprint() + ".pfx"
		assert.Equal(t, []string{wantKey}, mock.keys())

		loaded, err := store.LoadCertificates(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, bundle.Thumbprint(), loaded[0].Thumbprint())
		assert.Equal(t, bundle.Domains(), loaded[0].Domains())
	})

	t.Run("corrupt objects are skipped", func(t *testing.T) {
		t.Parallel()

		mock := newMockS3()
		ctx := context.Background()
		store, err := s3.NewCertificateStore(ctx, testS3Config(), "changeit", s3.WithS3Client(mock))
		require.NoError(t, err)

		bundle := testBundle(t, "example.com")
		require.NoError(t, store.SaveCertificate(ctx, bundle))
		mock.objects["certkeeper/certificates/garbage.pfx"] = []byte("not pkcs12")
		mock.objects["certkeeper/certificates/readme.txt"] = []byte("ignore me")

		loaded, err := store.LoadCertificates(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, bundle.Thumbprint(), loaded[0].Thumbprint())
	})

	t.Run("bucket and region are required", func(t *testing.T) {
		t.Parallel()

		_, err := s3.NewCertificateStore(context.Background(), s3.S3Config{}, "changeit")
		require.ErrorIs(t, err, s3.ErrInvalidConfig)
	})
}

func TestAccountStore(t *testing.T) {
	t.Parallel()

	t.Run("save and load roundtrip", func(t *testing.T) {
		t.Parallel()

		mock := newMockS3()
		ctx := context.Background()
		store, err := s3.NewAccountStore(ctx, testS3Config(), s3.WithS3Client(mock))
		require.NoError(t, err)

		acct, err := account.New([]string{"admin@example.com"})
		require.NoError(t, err)
		acct.URI = "https://ca.test/acct/42"

		require.NoError(t, store.Save(ctx, "ca.test", acct))
		assert.Equal(t, []string{"certkeeper/accounts/ca.test.json"}, mock.keys())

		got, err := store.Load(ctx, "ca.test")
		require.NoError(t, err)
		assert.Equal(t, acct, got)
	})

	t.Run("missing account", func(t *testing.T) {
		t.Parallel()

		store, err := s3.NewAccountStore(context.Background(), testS3Config(), s3.WithS3Client(newMockS3()))
		require.NoError(t, err)

		_, err = store.Load(context.Background(), "ca.test")
		require.ErrorIs(t, err, account.ErrAccountNotFound)
	})

	t.Run("bucket and region are required", func(t *testing.T) {
		t.Parallel()

		_, err := s3.NewAccountStore(context.Background(), s3.S3Config{})
		require.ErrorIs(t, err, s3.ErrInvalidConfig)
	})
}
