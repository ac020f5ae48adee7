package exporter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/smartac/internal/logging"
	"github.com/muurk/smartac/internal/metrics"
)

// DefaultListen is the address the exporter binds when none is configured.
const DefaultListen = ":9864"

// shutdownTimeout bounds how long in-flight scrapes may take on shutdown.
const shutdownTimeout = 10 * time.Second

// Config holds the exporter configuration
type Config struct {
	Listen        string
	MetricsPath   string        // Defaults to /metrics
	CertPath      string        // TLS certificate, optional
	KeyPath       string        // TLS private key, required with CertPath
	ScrapeTimeout time.Duration // Per-scrape device listing timeout
}

// Server serves the pod and request metrics over HTTP.
type Server struct {
	config     Config
	registry   *prometheus.Registry
	tlsConfig  *tls.Config
	listener   net.Listener
	httpServer *http.Server
}

// New creates a Server exporting the pods listed by client. requests may be
// nil; when set it must be the observer the client was built with.
func New(config Config, client metrics.Lister, requests *metrics.RequestMetrics) (*Server, error) {
	if config.Listen == "" {
		config.Listen = DefaultListen
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if (config.CertPath == "") != (config.KeyPath == "") {
		return nil, fmt.Errorf("both the certificate and the key must be provided together, or neither")
	}

	var tlsConfig *tls.Config
	if config.CertPath != "" {
		var err error
		tlsConfig, err = NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
	}

	pods := metrics.NewPodCollector(client)
	if config.ScrapeTimeout > 0 {
		pods.WithTimeout(config.ScrapeTimeout)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		pods,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if requests != nil {
		registry.MustRegister(requests)
	}

	s := &Server{
		config:    config,
		registry:  registry,
		tlsConfig: tlsConfig,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig:         tlsConfig,
	}
	return s, nil
}

// Handler returns the exporter's HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(s.config.MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		ErrorLog: zap.NewStdLog(logging.GetLogger()),
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><head><title>smartac exporter</title></head><body><h1>smartac exporter</h1><p><a href=%q>Metrics</a></p></body></html>\n", s.config.MetricsPath)
	})
	return mux
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.config.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Listen, err)
	}
	if s.tlsConfig != nil {
		listener = tls.NewListener(listener, s.tlsConfig)
	}
	s.listener = listener

	logging.Info("Exporter listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("path", s.config.MetricsPath),
		zap.Any("tls_info", GetTLSInfo(s.tlsConfig)),
	)
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start listens and serves until ctx is done, SIGINT/SIGTERM is received or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve serves on the bound listener until ctx is done, a shutdown signal
// arrives or the server fails.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("exporter is not listening")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping exporter...")
	case <-ctx.Done():
		logging.Info("Context done, stopping exporter...")
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down exporter...")
	err := s.httpServer.Shutdown(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		logging.Warn("Shutdown timeout, forcing close")
		err = s.httpServer.Close()
	}
	logging.Sync()
	return err
}
