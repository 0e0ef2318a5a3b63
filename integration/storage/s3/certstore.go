package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/core/logger"
)

// Compile-time checks that CertificateStore implements the storage contracts.
var (
	_ certstore.Repository = (*CertificateStore)(nil)
	_ certstore.Source     = (*CertificateStore)(nil)
)

// CertificateStore keeps certificate bundles as password-protected PKCS#12
// objects named `<prefix>certificates/<THUMBPRINT>.pfx`.
type CertificateStore struct {
	client   S3Client
	bucket   string
	prefix   string
	password string
	logger   *slog.Logger
}

// NewCertificateStore creates an S3-backed certificate repository and
// source. The password protects the PKCS#12 payloads.
func NewCertificateStore(ctx context.Context, cfg S3Config, password string, opts ...S3Option) (*CertificateStore, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	options := &s3Options{}
	for _, opt := range opts {
		opt(options)
	}

	client, err := newClient(ctx, cfg, options)
	if err != nil {
		return nil, err
	}

	return &CertificateStore{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   strings.TrimPrefix(path.Join(cfg.Prefix, "certificates")+"/", "/"),
		password: password,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// WithCertificateLogger sets the logger for storage events.
func (s *CertificateStore) WithCertificateLogger(log *slog.Logger) *CertificateStore {
	if log != nil {
		s.logger = log
	}
	return s
}

// SaveCertificate uploads the bundle as <THUMBPRINT>.pfx. S3 PUTs are atomic,
// so readers never observe a partial object.
func (s *CertificateStore) SaveCertificate(ctx context.Context, cert *certstore.Certificate) error {
	pfxData, err := certstore.EncodePFX(cert, s.password)
	if err != nil {
		return err
	}

	key := s.prefix + cert.Thumbprint() + ".pfx"
	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pfxData),
		ContentType: aws.String("application/x-pkcs12"),
	})
	if err != nil {
		return classifyS3Error(err, "upload certificate")
	}

	s.logger.InfoContext(ctx, "certificate uploaded",
		"bucket", s.bucket,
		"key", key,
		"not_after", cert.NotAfter())
	return nil
}

// LoadCertificates downloads every .pfx bundle under the prefix. Objects
// that fail to decode are skipped with a warning so one corrupt bundle does
// not block startup.
func (s *CertificateStore) LoadCertificates(ctx context.Context) ([]*certstore.Certificate, error) {
	var certs []*certstore.Certificate
	var continuation *string

	for {
		page, err := s.client.ListObjectsV2(ctx, &s3aws.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, classifyS3Error(err, "list certificates")
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, ".pfx") {
				continue
			}

			cert, err := s.loadOne(ctx, key)
			if err != nil {
				s.logger.WarnContext(ctx, "skipping certificate object", "key", key, logger.Error(err))
				continue
			}
			certs = append(certs, cert)
		}

		if !aws.ToBool(page.IsTruncated) {
			break
		}
		continuation = page.NextContinuationToken
	}

	return certs, nil
}

func (s *CertificateStore) loadOne(ctx context.Context, key string) (*certstore.Certificate, error) {
	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(err, "download certificate")
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read certificate object: %w", err)
	}
	return certstore.DecodePFX(data, s.password)
}
