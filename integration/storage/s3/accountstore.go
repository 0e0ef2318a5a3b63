package s3

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrymomot/certkeeper/core/account"
)

// Compile-time check that AccountStore implements the account contract.
var _ account.Store = (*AccountStore)(nil)

// AccountStore keeps ACME accounts as JSON objects named
// `<prefix>accounts/<directory-host>.json`.
type AccountStore struct {
	client S3Client
	bucket string
	prefix string
}

// NewAccountStore creates an S3-backed account store.
func NewAccountStore(ctx context.Context, cfg S3Config, opts ...S3Option) (*AccountStore, error) {
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

	return &AccountStore{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.TrimPrefix(path.Join(cfg.Prefix, "accounts")+"/", "/"),
	}, nil
}

func (s *AccountStore) Load(ctx context.Context, directoryHost string) (*account.Account, error) {
	out, err := s.client.GetObject(ctx, &s3aws.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(directoryHost)),
	})
	if err != nil {
		cerr := classifyS3Error(err, "download account")
		if errors.Is(cerr, ErrObjectNotFound) {
			return nil, account.ErrAccountNotFound
		}
		return nil, cerr
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read account object: %w", err)
	}

	var acct account.Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("decode account object: %w", err)
	}
	return &acct, nil
}

func (s *AccountStore) Save(ctx context.Context, directoryHost string, acct *account.Account) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(directoryHost)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return classifyS3Error(err, "upload account")
	}
	return nil
}

func (s *AccountStore) key(directoryHost string) string {
	host := strings.ToLower(strings.TrimSpace(directoryHost))
	return s.prefix + host + ".json"
}
