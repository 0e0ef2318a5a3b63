// Package server runs the HTTP and HTTPS listeners around the certificate
// keeper.
//
// The HTTP listener answers /.well-known/acme-challenge/ probes from the
// challenge response store and redirects everything else to HTTPS. The
// HTTPS listener resolves its certificate per handshake through the
// selector and lets the TLS-ALPN responder take over handshakes that
// negotiate acme-tls/1.
//
// AwaitReady signals once both listeners are bound, which ownership
// validators use to hold off CA-side validation until a probe can be
// answered.
package server
