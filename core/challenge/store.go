package challenge

import (
	"context"
	"sync"
)

// ResponseStore maps one-time HTTP-01 challenge tokens to the key
// authorization the CA expects to read back. Implementations must be safe for
// concurrent use: tokens are written by the background validation flow and
// read by live HTTP traffic.
type ResponseStore interface {
	// AddChallengeResponse inserts or overwrites the response for a token.
	AddChallengeResponse(ctx context.Context, token, response string) error

	// TryGetResponse reports whether a response exists for the token and
	// returns it byte-for-byte when present.
	TryGetResponse(ctx context.Context, token string) (string, bool, error)

	// RemoveChallengeResponse deletes the token. Removing an unknown token
	// is not an error.
	RemoveChallengeResponse(ctx context.Context, token string) error
}

// MemoryStore is the in-process ResponseStore. Entries are naturally
// obsoleted when the validator finishes; stale tokens pose no security risk
// since they only answer pending challenges.
type MemoryStore struct {
	responses sync.Map // token -> response
}

// NewMemoryStore creates an empty in-memory challenge response store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AddChallengeResponse(_ context.Context, token, response string) error {
	s.responses.Store(token, response)
	return nil
}

func (s *MemoryStore) TryGetResponse(_ context.Context, token string) (string, bool, error) {
	v, ok := s.responses.Load(token)
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (s *MemoryStore) RemoveChallengeResponse(_ context.Context, token string) error {
	s.responses.Delete(token)
	return nil
}
