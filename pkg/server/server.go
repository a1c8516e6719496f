// Package server implements the searchd connection lifecycle engine: the
// TCP listener, the optional mutual-TLS upgrade, the per-session protocol
// loop, and the registry used for coordinated shutdown.
package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/getsearchd/searchd/pkg/config"
	"github.com/getsearchd/searchd/pkg/logging"
	"github.com/getsearchd/searchd/pkg/metrics"
	"github.com/getsearchd/searchd/pkg/search"
	searchdtls "github.com/getsearchd/searchd/pkg/tls"
)

// handshakeTimeout bounds the TLS handshake of a freshly accepted
// connection so a silent peer cannot pin an accept slot.
const handshakeTimeout = 10 * time.Second

// Server accepts client connections and runs one session per connection.
// Per-connection failures never terminate the accept loop.
type Server struct {
	cfg      *config.ServerConfig
	log      *slog.Logger
	metrics  *metrics.Metrics
	factory  *searchdtls.ChannelFactory
	registry *Registry

	mu      sync.Mutex
	ln      net.Listener
	running bool

	wg  sync.WaitGroup
	sem chan struct{} // admission slots; nil = unbounded

	metricsServer *http.Server
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithChannelFactory injects a prebuilt secure channel factory, overriding
// the one built from configuration file paths.
func WithChannelFactory(f *searchdtls.ChannelFactory) Option {
	return func(s *Server) {
		s.factory = f
	}
}

// New creates a Server from the given configuration.
func New(cfg *config.ServerConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		log:      logging.Nop(),
		metrics:  metrics.New(),
		registry: NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.factory == nil && cfg.TLSEnabled() {
		factory, err := searchdtls.NewChannelFactory(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to build secure channel factory: %w", err)
		}
		s.factory = factory
	}

	if cfg.MaxConnections > 0 {
		s.sem = make(chan struct{}, cfg.MaxConnections)
	}

	return s, nil
}

// Start binds the port and launches the accept loop. It returns once the
// listener is bound; serving continues in the background until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to bind port %d: %w", s.cfg.Port, err)
	}
	s.ln = ln
	s.running = true

	s.log.Info("server started",
		"port", s.cfg.Port,
		"tls", s.factory != nil,
		"algorithm", s.cfg.Algorithm,
		"reread_on_query", s.cfg.RereadOnQuery,
		"file", s.cfg.FilePath)

	s.wg.Add(1)
	go s.acceptLoop(ln)

	if s.cfg.Metrics != nil && s.cfg.Metrics.Enabled {
		s.startMetricsServer()
	}

	return nil
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	return s.registry.Len()
}

// Stop closes the listener, force-closes every registered session, and
// waits for session workers to finish.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	ln := s.ln
	s.mu.Unlock()

	s.log.Info("shutting down server")

	var errs []error
	if err := ln.Close(); err != nil {
		errs = append(errs, fmt.Errorf("listener close: %w", err))
	}

	// Sessions may still have a search in flight; closing the socket makes
	// the in-flight write fail, which is logged and not retried.
	s.registry.CloseAll(s.log)
	s.wg.Wait()

	if s.metricsServer != nil {
		if err := s.metricsServer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metrics server close: %w", err))
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// acceptLoop accepts connections until the listener is closed. A failed
// accept of one connection never stops the loop.
func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.log.Error("accept failed", "error", err)
			continue
		}

		if s.sem != nil {
			s.sem <- struct{}{}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				if s.sem != nil {
					<-s.sem
				}
			}()
			s.handle(conn)
		}()
	}
}

// handle upgrades, registers, and runs one accepted connection.
func (s *Server) handle(conn net.Conn) {
	if s.factory != nil {
		tlsConn := tls.Server(conn, s.factory.Server())
		_ = tlsConn.SetDeadline(time.Now().Add(handshakeTimeout))
		if err := tlsConn.Handshake(); err != nil {
			s.log.Error("TLS handshake failed", "peer", conn.RemoteAddr(), "error", err)
			s.metrics.HandshakeFailuresTotal.Inc()
			_ = tlsConn.Close()
			return
		}
		_ = tlsConn.SetDeadline(time.Time{})
		conn = tlsConn
	}

	searcher, err := search.New(s.cfg.Algorithm)
	if err != nil {
		// Config validation makes this unreachable in practice; drop the
		// connection rather than serve with an unintended strategy.
		s.log.Error("failed to construct searcher", "error", err)
		_ = conn.Close()
		return
	}

	id := uuid.NewString()
	s.registry.Add(id, conn)
	s.metrics.ActiveSessions.Inc()

	sess := &session{
		id:          id,
		conn:        conn,
		searcher:    searcher,
		filePath:    s.cfg.FilePath,
		reread:      s.cfg.RereadOnQuery,
		algorithm:   s.cfg.Algorithm,
		idleTimeout: time.Duration(s.cfg.IdleTimeout) * time.Second,
		registry:    s.registry,
		log:         s.log,
		metrics:     s.metrics,
	}
	sess.run()
}

// startMetricsServer exposes /metrics on the configured HTTP port.
func (s *Server) startMetricsServer() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.metrics.Handler())
	s.metricsServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Metrics.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.log.Info("metrics exposition started", "port", s.cfg.Metrics.Port)
	go func() {
		if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("metrics server error", "error", err)
		}
	}()
}
