package ownership

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/pkg/clock"
)

// Challenge type identifiers as they appear on the wire (RFC 8555 §8,
// RFC 8737).
const (
	TypeHTTP01    = "http-01"
	TypeDNS01     = "dns-01"
	TypeTLSALPN01 = "tls-alpn-01"
)

// Validator proves ownership of the domain named by an authorization. Each
// implementation prepares the challenge response for its proof mechanism,
// asks the CA to validate, and polls the authorization to resolution.
// Cleanup of challenge material runs unconditionally, including on
// cancellation.
type Validator interface {
	ValidateOwnership(ctx context.Context, authz *acme.Authorization) error

	// ChallengeType returns the wire identifier of the proof mechanism.
	ChallengeType() string
}

// ACMEClient is the slice of the protocol wrapper the validators need.
type ACMEClient interface {
	KeyAuthorization(token string) (string, error)
	TLSALPN01ChallengeCert(token, domain string) (tls.Certificate, error)
	AcceptChallenge(ctx context.Context, chal *acme.Challenge) (*acme.Challenge, error)
	GetAuthorization(ctx context.Context, uri string) (*acme.Authorization, error)
}

// Readiness reports when the host's listener is live. Validators wait on it
// before asking the CA to validate, so the CA's probe cannot arrive before
// the server can answer it.
type Readiness interface {
	AwaitReady(ctx context.Context) error
}

type options struct {
	clk       clock.Clock
	logger    *slog.Logger
	readiness Readiness
}

func newOptions(opts []Option) options {
	o := options{
		clk:    clock.System(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a validator during initialization.
type Option func(*options)

// WithClock sets the clock used for poll delays. Tests inject a manual clock.
func WithClock(clk clock.Clock) Option {
	return func(o *options) {
		if clk != nil {
			o.clk = clk
		}
	}
}

// WithLogger sets the logger for validation progress events.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithReadiness makes the validator wait for the host listener before
// triggering CA-side validation.
func WithReadiness(r Readiness) Option {
	return func(o *options) {
		o.readiness = r
	}
}

func awaitReady(ctx context.Context, r Readiness) error {
	if r == nil {
		return nil
	}
	if err := r.AwaitReady(ctx); err != nil {
		return fmt.Errorf("wait for listener readiness: %w", err)
	}
	return nil
}

// findChallenge picks the challenge of the wanted type from an
// authorization.
func findChallenge(authz *acme.Authorization, typ string) (*acme.Challenge, error) {
	for _, chal := range authz.Challenges {
		if chal.Type == typ {
			return chal, nil
		}
	}
	return nil, fmt.Errorf("%w: %s not offered for %q", ErrChallengeNotOffered, typ, authz.Identifier.Value)
}
