package ownership

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/acme"

	"github.com/dmitrymomot/certkeeper/pkg/clock"
)

const (
	// pollMaxAttempts and pollInterval bound the wait for an authorization
	// to resolve: 60 polls, 2 seconds apart, roughly a two minute budget.
	pollMaxAttempts = 60
	pollInterval    = 2 * time.Second
)

// pollAuthorization re-fetches the authorization until it resolves.
// Pending keeps polling; Valid succeeds; Invalid fails with the aggregated
// per-challenge problem details; Revoked, Expired, and Deactivated fail with
// a terminal-status error; anything else is an unexpected CA response.
// Cancellation short-circuits at every iteration boundary.
func pollAuthorization(ctx context.Context, client ACMEClient, clk clock.Clock, authzURI, domain string, logger *slog.Logger) error {
	for attempt := 1; attempt <= pollMaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		authz, err := client.GetAuthorization(ctx, authzURI)
		if err != nil {
			return fmt.Errorf("poll authorization for %q: %w", domain, err)
		}

		switch authz.Status {
		case acme.StatusValid:
			logger.InfoContext(ctx, "authorization valid", "domain", domain, "attempts", attempt)
			return nil
		case acme.StatusPending:
			logger.DebugContext(ctx, "authorization still pending", "domain", domain, "attempt", attempt)
		case acme.StatusInvalid:
			return invalidAuthorizationError(authz, domain)
		case acme.StatusRevoked, acme.StatusExpired, acme.StatusDeactivated:
			return fmt.Errorf("%w: authorization for %q is %s", ErrAuthorizationTerminal, domain, authz.Status)
		default:
			return fmt.Errorf("%w: status %q for %q", ErrUnexpectedStatus, authz.Status, domain)
		}

		if attempt < pollMaxAttempts {
			if err := clk.Sleep(ctx, pollInterval); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%w: authorization for %q unresolved after %d attempts", ErrPollTimeout, domain, pollMaxAttempts)
}

// invalidAuthorizationError aggregates the failure reason of every attempted
// challenge on an invalid authorization.
func invalidAuthorizationError(authz *acme.Authorization, domain string) error {
	reasons := make([]string, 0, len(authz.Challenges))
	for _, chal := range authz.Challenges {
		if chal.Error != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %s", chal.Type, chal.Error.Error()))
		}
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no challenge error details provided by the CA")
	}

	return &AuthorizationError{
		Domain:  domain,
		Status:  authz.Status,
		Reasons: reasons,
	}
}

// AuthorizationError reports an authorization that resolved invalid, with the
// per-challenge reasons the CA supplied.
type AuthorizationError struct {
	Domain  string
	Status  string
	Reasons []string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization for %q is %s: %s", e.Domain, e.Status, strings.Join(e.Reasons, "; "))
}
