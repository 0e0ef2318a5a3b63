package certstore

import "context"

// Repository persists issued certificate bundles.
type Repository interface {
	SaveCertificate(ctx context.Context, cert *Certificate) error
}

// Source loads previously issued certificate bundles, typically at startup.
type Source interface {
	LoadCertificates(ctx context.Context) ([]*Certificate, error)
}
