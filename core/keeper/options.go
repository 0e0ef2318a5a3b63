package keeper

import (
	"log/slog"

	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/pkg/clock"
	"github.com/dmitrymomot/certkeeper/pkg/console"
)

// Option configures a Keeper during initialization.
type Option func(*Keeper)

// WithRepositories adds destinations every issued certificate is persisted
// to.
func WithRepositories(repos ...certstore.Repository) Option {
	return func(k *Keeper) {
		k.repos = append(k.repos, repos...)
	}
}

// WithSources adds origins stored certificates are loaded from at startup.
func WithSources(sources ...certstore.Source) Option {
	return func(k *Keeper) {
		k.sources = append(k.sources, sources...)
	}
}

// WithConsole sets the prompt used for terms-of-service confirmation.
// Defaults to stdin/stdout.
func WithConsole(c console.Console) Option {
	return func(k *Keeper) {
		if c != nil {
			k.prompt = c
		}
	}
}

// WithClock sets the clock for the renewal loop. Tests inject a manual
// clock.
func WithClock(clk clock.Clock) Option {
	return func(k *Keeper) {
		if clk != nil {
			k.clk = clk
		}
	}
}

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Keeper) {
		if logger != nil {
			k.logger = logger
		}
	}
}
