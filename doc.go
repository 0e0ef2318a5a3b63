// Package certkeeper provides in-process ACME certificate automation for Go
// HTTPS servers: issuance, domain-ownership validation, renewal, and
// handshake-time certificate selection, without interrupting live traffic.
//
// The top-level App wires the pieces together:
//
//	cfg, err := certkeeper.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	app, err := certkeeper.New(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if err := app.Run(ctx, mux); err != nil {
//		log.Fatal(err)
//	}
//
// Each concern is an independent package under core/ for applications that
// want to assemble their own topology: selector (handshake-time certificate
// lookup), challenge (HTTP-01 token store and handler), acmeclient (thin
// RFC 8555 wrapper), ownership (http-01, dns-01, tls-alpn-01 validators),
// issuer (order to certificate bundle), account and certstore (persistence
// contracts and filesystem implementations), keeper (lifecycle state
// machine), and server (dual HTTP/HTTPS glue). S3 and Redis backed
// implementations live under integration/.
package certkeeper
