package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string
	TLSCertFile  string
	TLSKeyFile   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger

	// GetCertificate, when set, supplies the serving certificate instead of
	// reading TLSCertFile and TLSKeyFile once at startup.
	GetCertificate func(*tls.ClientHelloInfo) (*tls.Certificate, error)
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	tlsCert    string
	tlsKey     string
	logger     *slog.Logger
}

// New creates a new HTTP server.
func New(cfg ServerConfig, handler http.Handler) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	srv := &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       2 * time.Minute,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
		handler: handler,
		tlsCert: cfg.TLSCertFile,
		tlsKey:  cfg.TLSKeyFile,
		logger:  log,
	}
	if cfg.GetCertificate != nil {
		srv.httpServer.TLSConfig = &tls.Config{
			GetCertificate: cfg.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		}
	}
	return srv
}

// TLSEnabled reports whether the server terminates TLS.
func (s *Server) TLSEnabled() bool {
	return s.dynamicTLS() || (s.tlsCert != "" && s.tlsKey != "")
}

func (s *Server) dynamicTLS() bool {
	return s.httpServer.TLSConfig != nil && s.httpServer.TLSConfig.GetCertificate != nil
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. A clean shutdown returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln, with TLS when configured.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("http server listening",
		"addr", ln.Addr().String(),
		"tls", s.TLSEnabled(),
	)

	var err error
	switch {
	case s.dynamicTLS():
		err = s.httpServer.ServeTLS(ln, "", "")
	case s.TLSEnabled():
		err = s.httpServer.ServeTLS(ln, s.tlsCert, s.tlsKey)
	default:
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
