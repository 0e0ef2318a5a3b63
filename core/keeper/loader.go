package keeper

import (
	"context"
	"sort"

	"github.com/dmitrymomot/certkeeper/core/certstore"
	"github.com/dmitrymomot/certkeeper/core/logger"
)

// loadStoredCertificates seeds the selector with every bundle the sources
// hold, longest-lived first, and remembers the freshest bundle covering the
// full configured domain set. Load failures are logged and skipped: startup
// must not depend on storage health.
func (k *Keeper) loadStoredCertificates(ctx context.Context) {
	var all []*certstore.Certificate
	for _, source := range k.sources {
		certs, err := source.LoadCertificates(ctx)
		if err != nil {
			k.logger.ErrorContext(ctx, "failed to load certificates from source", logger.Error(err))
			continue
		}
		all = append(all, certs...)
	}
	if len(all) == 0 {
		return
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].NotAfter().After(all[j].NotAfter())
	})

	for _, cert := range all {
		tlsCert := cert.TLS()
		if err := k.sink.Add(&tlsCert); err != nil {
			k.logger.WarnContext(ctx, "skipping stored certificate", logger.Error(err))
			continue
		}

		if k.current == nil && k.coversAllDomains(cert) {
			k.current = cert
			k.logger.InfoContext(ctx, "resuming stored certificate",
				"thumbprint", cert.Thumbprint(),
				"not_after", cert.NotAfter())
		}
	}
}

func (k *Keeper) coversAllDomains(cert *certstore.Certificate) bool {
	covered := cert.Domains()
	for _, domain := range k.cfg.Domains {
		if !domainCovered(domain, covered) {
			return false
		}
	}
	return true
}
