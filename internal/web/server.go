// Package web serves freshly built market reports over HTTP.
package web

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme/autocert"

	"github.com/vadiminshakov/marketfeed/internal/domain"
	"github.com/vadiminshakov/marketfeed/internal/services/market/collector"
	"github.com/vadiminshakov/marketfeed/internal/services/report"
)

// ReportDefaults supplies report parameters for requests that omit them.
type ReportDefaults struct {
	Pair        domain.Pair
	Limit       int
	Klines      []string
	StochRSI    []string
	Bollinger   []string
	BollingerMA []string
}

// Server exposes HTTP endpoints that build a report per request. Nothing is
// cached, every request fetches fresh data from the exchange.
type Server struct {
	Addr     string
	Provider collector.KlineProvider
	Defaults ReportDefaults
	logger   *zap.Logger
}

// NewServer creates a new report server instance.
func NewServer(addr string, provider collector.KlineProvider, defaults ReportDefaults, logger *zap.Logger) *Server {
	return &Server{Addr: addr, Provider: provider, Defaults: defaults, logger: logger}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartWithAutoTLS runs an HTTPS server with automatic TLS certificates via ACME.
// It also starts an HTTP server on port 80 to handle ACME HTTP-01 challenges.
func (s *Server) StartWithAutoTLS(ctx context.Context, domains []string, cacheDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(domains) == 0 {
		return fmt.Errorf("no domains provided for automatic TLS")
	}
	if cacheDir == "" {
		cacheDir = "cert-cache"
	}

	manager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(domains...),
		Cache:      autocert.DirCache(cacheDir),
	}

	// HTTP server on port 80 for ACME challenges and HTTP->HTTPS redirects.
	httpSrv := &http.Server{
		Addr:              ":80",
		Handler:           manager.HTTPHandler(nil),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tlsConfig := manager.TLSConfig()
	tlsConfig.MinVersion = tls.VersionTLS12

	httpsSrv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         tlsConfig,
	}

	// shutdown both servers when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server shutdown error", zap.Error(err))
		}
		if err := httpsSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("https server shutdown error", zap.Error(err))
		}
	}()

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http (acme) server error", zap.Error(err))
		}
	}()

	if err := httpsSrv.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/healthz", s.handleHealthz)
	return mux
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	buildID := uuid.NewString()
	logger := s.logger.With(zap.String("build_id", buildID))

	q := r.URL.Query()

	pair := s.Defaults.Pair
	if raw := q.Get("pair"); raw != "" {
		parsed, err := domain.ParsePair(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		pair = parsed
	}

	limit := s.Defaults.Limit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	start := time.Now()
	reportText, err := report.NewBuilder(s.Provider, pair, limit, logger).
		WithKlines(sectionSpecs(q, "intervals", s.Defaults.Klines)...).
		WithStochRSI(sectionSpecs(q, "stoch_rsi", s.Defaults.StochRSI)...).
		WithBollinger(sectionSpecs(q, "bb", s.Defaults.Bollinger)...).
		WithBollingerMA(sectionSpecs(q, "bb_ma", s.Defaults.BollingerMA)...).
		Build(r.Context())
	if err != nil {
		logger.Error("report build failed",
			zap.String("pair", pair.String()),
			zap.Error(err))
		http.Error(w, "failed to build report", http.StatusBadGateway)
		return
	}

	logger.Info("report built",
		zap.String("pair", pair.String()),
		zap.Duration("took", time.Since(start)))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, reportText)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "ok")
}

// sectionSpecs returns the interval specs for one section. A missing query
// parameter keeps the configured defaults, a present but empty one disables
// the section.
func sectionSpecs(q url.Values, key string, defaults []string) []string {
	if !q.Has(key) {
		return defaults
	}

	var specs []string
	for _, item := range strings.Split(q.Get(key), ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			specs = append(specs, item)
		}
	}
	return specs
}
