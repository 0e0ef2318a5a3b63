// Package s3 provides S3-backed account and certificate storage.
//
// CertificateStore implements certstore.Repository and certstore.Source
// over password-protected PKCS#12 objects; AccountStore implements
// account.Store over JSON objects keyed by CA directory host. Both work
// with Amazon S3 and S3-compatible services such as MinIO, DigitalOcean
// Spaces, and Wasabi.
//
// Basic usage:
//
//	cfg := s3.S3Config{
//		Bucket: "my-certificates",
//		Region: "us-east-1",
//		Prefix: "acme",
//	}
//
//	certs, err := s3.NewCertificateStore(ctx, cfg, pfxPassword)
//	if err != nil {
//		panic(err)
//	}
//	accounts, err := s3.NewAccountStore(ctx, cfg)
//	if err != nil {
//		panic(err)
//	}
//
//	keeper, err := keeper.New(keeperCfg, client, factory, accounts, sel,
//		keeper.WithRepositories(certs),
//		keeper.WithSources(certs),
//	)
//
// MinIO and other S3-compatible services need an endpoint and path-style
// addressing:
//
//	cfg := s3.S3Config{
//		Bucket:         "my-bucket",
//		Region:         "us-east-1",
//		AccessKeyID:    "minioadmin",
//		SecretKey:      "minioadmin",
//		Endpoint:       "http://localhost:9000",
//		ForcePathStyle: true,
//	}
package s3
