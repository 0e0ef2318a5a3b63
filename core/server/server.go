package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/dmitrymomot/certkeeper/core/challenge"
	"github.com/dmitrymomot/certkeeper/core/logger"
)

// CertificateSource resolves the certificate to serve for a handshake. The
// certificate selector implements it.
type CertificateSource interface {
	GetCertificate(hello *tls.ClientHelloInfo) (*tls.Certificate, error)
}

// TLSConfigWrapper lets the TLS-ALPN responder hook handshake-time protocol
// advertisement into the HTTPS listener's config.
type TLSConfigWrapper interface {
	WrapTLSConfig(base *tls.Config) *tls.Config
}

// Server runs the paired HTTP and HTTPS listeners a certificate keeper
// needs: port 80 answers ACME HTTP-01 probes and redirects everything else
// to HTTPS, port 443 serves the application with certificates resolved per
// handshake. Safe for concurrent use.
type Server struct {
	mu          sync.RWMutex
	cfg         Config
	certs       CertificateSource
	wrapper     TLSConfigWrapper
	challenges  challenge.ResponseStore
	logger      *slog.Logger
	httpServer  *http.Server
	httpsServer *http.Server
	ready       chan struct{}
	running     bool
}

// New creates a server from configuration. A certificate source is required;
// the challenge store and TLS wrapper are optional.
func New(cfg Config, certs CertificateSource, opts ...Option) (*Server, error) {
	if certs == nil {
		return nil, ErrCertificateSourceRequired
	}

	s := &Server{
		cfg:    cfg,
		certs:  certs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run starts both listeners and blocks until the context is canceled or a
// listener fails. Shutdown is graceful within the configured timeout.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrServerAlreadyRunning
	}
	s.running = true

	s.httpServer = &http.Server{
		Addr:           s.cfg.HTTPAddr,
		Handler:        s.httpHandler(),
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}

	tlsConfig := &tls.Config{
		GetCertificate: s.certs.GetCertificate,
		MinVersion:     tls.VersionTLS12,
		NextProtos:     []string{"h2", "http/1.1"},
	}
	if s.wrapper != nil {
		tlsConfig = s.wrapper.WrapTLSConfig(tlsConfig)
	}

	s.httpsServer = &http.Server{
		Addr:           s.cfg.HTTPSAddr,
		Handler:        handler,
		TLSConfig:      tlsConfig,
		ReadTimeout:    s.cfg.ReadTimeout,
		WriteTimeout:   s.cfg.WriteTimeout,
		IdleTimeout:    s.cfg.IdleTimeout,
		MaxHeaderBytes: s.cfg.MaxHeaderBytes,
	}
	s.mu.Unlock()

	httpLn, err := net.Listen("tcp", s.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPAddr, err)
	}
	httpsLn, err := net.Listen("tcp", s.cfg.HTTPSAddr)
	if err != nil {
		_ = httpLn.Close()
		return fmt.Errorf("listen on %s: %w", s.cfg.HTTPSAddr, err)
	}

	// Both listeners are bound: validators waiting on AwaitReady may let the
	// CA probe now.
	close(s.ready)

	errCh := make(chan error, 2)
	go func() {
		s.logger.InfoContext(ctx, "starting HTTP server", "addr", httpLn.Addr().String())
		if err := s.httpServer.Serve(httpLn); err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		s.logger.InfoContext(ctx, "starting HTTPS server", "addr", httpsLn.Addr().String())
		if err := s.httpsServer.ServeTLS(httpsLn, "", ""); err != http.ErrServerClosed {
			errCh <- fmt.Errorf("https server: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		_ = s.Shutdown(context.WithoutCancel(ctx))
		return err
	case <-ctx.Done():
		return s.Shutdown(context.WithoutCancel(ctx))
	}
}

// AwaitReady blocks until both listeners are bound or the context ends.
func (s *Server) AwaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HTTPAddr returns the configured HTTP listen address.
func (s *Server) HTTPAddr() string {
	return s.cfg.HTTPAddr
}

// HTTPSAddr returns the configured HTTPS listen address.
func (s *Server) HTTPSAddr() string {
	return s.cfg.HTTPSAddr
}

// httpHandler answers ACME challenge probes and redirects everything else
// to HTTPS.
func (s *Server) httpHandler() http.Handler {
	redirect := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := "https://" + r.Host + r.URL.RequestURI()
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})

	if s.challenges == nil {
		return redirect
	}
	return challenge.Middleware(s.challenges, s.logger)(redirect)
}

// Shutdown gracefully shuts down both listeners.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.logger.InfoContext(ctx, "shutting down servers", "timeout", s.cfg.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	var httpErr, httpsErr error
	if s.httpServer != nil {
		httpErr = s.httpServer.Shutdown(shutdownCtx)
	}
	if s.httpsServer != nil {
		httpsErr = s.httpsServer.Shutdown(shutdownCtx)
	}
	s.running = false

	if httpErr != nil || httpsErr != nil {
		s.logger.ErrorContext(ctx, "servers shutdown incomplete", logger.Errors(httpErr, httpsErr))
	}
	if httpErr != nil {
		return fmt.Errorf("http shutdown: %w", httpErr)
	}
	if httpsErr != nil {
		return fmt.Errorf("https shutdown: %w", httpsErr)
	}

	s.logger.InfoContext(ctx, "servers shutdown complete")
	return nil
}
