package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/certkeeper/core/challenge"
)

// Compile-time check that Store implements the challenge contract.
var _ challenge.ResponseStore = (*Store)(nil)

const keyPrefix = "acme:challenge:"

// DefaultTTL bounds how long an unanswered challenge response lives.
// Validations resolve within the polling budget, so an hour is generous.
const DefaultTTL = time.Hour

// Store is a Redis-backed challenge response store. It lets multiple
// instances behind a load balancer answer HTTP-01 probes regardless of
// which instance staged the token.
type Store struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a store over an established Redis client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a Store during initialization.
type Option func(*Store)

// WithTTL overrides the response expiration.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func (s *Store) AddChallengeResponse(ctx context.Context, token, response string) error {
	if err := s.client.Set(ctx, keyPrefix+token, response, s.ttl).Err(); err != nil {
		return fmt.Errorf("store challenge response: %w", err)
	}
	return nil
}

func (s *Store) TryGetResponse(ctx context.Context, token string) (string, bool, error) {
	response, err := s.client.Get(ctx, keyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("fetch challenge response: %w", err)
	}
	return response, true, nil
}

func (s *Store) RemoveChallengeResponse(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, keyPrefix+token).Err(); err != nil {
		return fmt.Errorf("remove challenge response: %w", err)
	}
	return nil
}
