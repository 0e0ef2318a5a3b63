package certkeeper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/certkeeper/core/account"
	"github.com/dmitrymomot/certkeeper/core/acmeclient"
	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/core/challenge"
	"github.com/dmitrymomot/certkeeper/core/issuer"
	"github.com/dmitrymomot/certkeeper/core/keeper"
	"github.com/dmitrymomot/certkeeper/core/logger"
	"github.com/dmitrymomot/certkeeper/core/ownership"
	"github.com/dmitrymomot/certkeeper/core/selector"
	"github.com/dmitrymomot/certkeeper/core/server"
	"github.com/dmitrymomot/certkeeper/pkg/async"
)

// Config aggregates everything an application needs to serve HTTPS with
// automatic certificates.
type Config struct {
	Keeper keeper.Config
	Server server.Config
	Logger logger.Config

	// Filesystem storage locations.
	AccountDir     string `env:"ACME_ACCOUNT_DIR" envDefault:"certkeeper/accounts"`
	CertificateDir string `env:"ACME_CERTIFICATE_DIR" envDefault:"certkeeper/certificates"`

	// PFXPassword protects stored PKCS#12 bundles.
	PFXPassword string `env:"ACME_PFX_PASSWORD"`
}

// LoadConfig reads the configuration from environment variables.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// App wires the certificate keeper to a dual HTTP/HTTPS server: the selector
// answers handshakes, the challenge store answers HTTP-01 probes, and the
// keeper issues and renews in the background.
type App struct {
	logger *slog.Logger
	server *server.Server
	keeper *keeper.Keeper
	certs  *selector.Selector
}

type appOptions struct {
	dnsProvider ownership.DNSProvider
	keeperOpts  []keeper.Option
	selOpts     []selector.Option
	responses   challenge.ResponseStore
}

// AppOption configures an App during initialization.
type AppOption func(*appOptions)

// WithDNSProvider enables dns-01 validation through the given provider.
func WithDNSProvider(p ownership.DNSProvider) AppOption {
	return func(o *appOptions) {
		o.dnsProvider = p
	}
}

// WithResponseStore replaces the in-memory HTTP-01 response store, typically
// with the Redis-backed one for multi-instance deployments.
func WithResponseStore(store challenge.ResponseStore) AppOption {
	return func(o *appOptions) {
		if store != nil {
			o.responses = store
		}
	}
}

// WithKeeperOptions forwards extra options to the keeper, such as additional
// repositories or a custom console.
func WithKeeperOptions(opts ...keeper.Option) AppOption {
	return func(o *appOptions) {
		o.keeperOpts = append(o.keeperOpts, opts...)
	}
}

// WithSelectorOptions forwards extra options to the selector, such as a
// fallback certificate.
func WithSelectorOptions(opts ...selector.Option) AppOption {
	return func(o *appOptions) {
		o.selOpts = append(o.selOpts, opts...)
	}
}

// New assembles an App from configuration.
func New(cfg Config, opts ...AppOption) (*App, error) {
	options := &appOptions{}
	for _, opt := range opts {
		opt(options)
	}

	log := logger.New(cfg.Logger)

	sel := selector.New(append([]selector.Option{
		selector.WithLogger(log.With(logger.Component("selector"))),
	}, options.selOpts...)...)

	responses := options.responses
	if responses == nil {
		responses = challenge.NewMemoryStore()
	}

	client := acmeclient.New(cfg.Keeper.Directory())
	responder := ownership.NewTLSALPNResponder(sel, log)

	srv, err := server.New(cfg.Server, sel,
		server.WithChallengeStore(responses),
		server.WithTLSConfigWrapper(responder),
		server.WithLogger(log.With(logger.Component("server"))),
	)
	if err != nil {
		return nil, err
	}

	validators, err := buildValidators(cfg.Keeper.AllowedChallenges, client, responses, responder, options.dnsProvider, srv, log)
	if err != nil {
		return nil, err
	}

	factory := issuer.NewFactory(client, validators,
		issuer.WithKeyAlgorithm(cfg.Keeper.KeyAlgorithm),
		issuer.WithLogger(log.With(logger.Component("issuer"))),
	)

	accounts, err := account.NewFileStore(cfg.AccountDir)
	if err != nil {
		return nil, err
	}
	certs, err := certstore.NewFileStore(cfg.CertificateDir, cfg.PFXPassword,
		certstore.WithFileStoreLogger(log))
	if err != nil {
		return nil, err
	}

	keeperOpts := append([]keeper.Option{
		keeper.WithRepositories(certs),
		keeper.WithSources(certs),
		keeper.WithLogger(log.With(logger.Component("keeper"))),
	}, options.keeperOpts...)

	kpr, err := keeper.New(cfg.Keeper, client, factory, accounts, sel, keeperOpts...)
	if err != nil {
		return nil, err
	}

	return &App{
		logger: log,
		server: srv,
		keeper: kpr,
		certs:  sel,
	}, nil
}

// Selector exposes the certificate selector, for callers that build their
// own tls.Config.
func (a *App) Selector() *selector.Selector {
	return a.certs
}

// Run serves the handler and drives the certificate lifecycle until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context, handler http.Handler) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serverFut := async.Exec(runCtx, handler, func(ctx context.Context, h http.Handler) error {
		return a.server.Run(ctx, h)
	})
	keeperFut := async.Exec(runCtx, struct{}{}, func(ctx context.Context, _ struct{}) error {
		return a.keeper.Run(ctx)
	})

	idx, err := async.JoinAny(keeperFut, serverFut)
	if idx == 0 {
		// The keeper finished or failed; either way the server keeps
		// serving whatever certificates it already holds.
		if err != nil {
			a.logger.ErrorContext(ctx, "certificate keeper failed, continuing to serve", logger.Error(err))
		} else {
			a.logger.InfoContext(ctx, "certificate keeper finished, continuing to serve")
		}
		return serverFut.Await()
	}

	cancel()
	if joinErr := async.JoinAll(keeperFut, serverFut); joinErr != nil && err == nil {
		err = joinErr
	}
	return err
}

// buildValidators creates one validator per allowed challenge type, in the
// configured preference order.
func buildValidators(
	allowed []string,
	client *acmeclient.Client,
	responses challenge.ResponseStore,
	responder *ownership.TLSALPNResponder,
	dns ownership.DNSProvider,
	readiness ownership.Readiness,
	log *slog.Logger,
) ([]ownership.Validator, error) {
	shared := []ownership.Option{
		ownership.WithLogger(log),
		ownership.WithReadiness(readiness),
	}

	var validators []ownership.Validator
	for _, typ := range allowed {
		switch typ {
		case ownership.TypeHTTP01:
			validators = append(validators, ownership.NewHTTP01Validator(client, responses, shared...))
		case ownership.TypeTLSALPN01:
			validators = append(validators, ownership.NewTLSALPN01Validator(client, responder, shared...))
		case ownership.TypeDNS01:
			if dns == nil {
				if slices.Contains(allowed, ownership.TypeHTTP01) || slices.Contains(allowed, ownership.TypeTLSALPN01) {
					log.Warn("dns-01 allowed but no DNS provider configured, skipping")
					continue
				}
				return nil, fmt.Errorf("dns-01 validation requires a DNS provider")
			}
			validators = append(validators, ownership.NewDNS01Validator(client, dns, shared...))
		}
	}
	if len(validators) == 0 {
		return nil, keeper.ErrNoChallengesAllowed
	}
	return validators, nil
}
