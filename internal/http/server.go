package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"plata/internal/cache"
	"plata/internal/core"
	"plata/internal/format"
	"plata/internal/session"
)

// Generator runs the recurring engine for one user.
type Generator interface {
	GeneratePending(ctx context.Context, userID int64, now time.Time) (int, error)
}

// RuleLister reads a user's recurring rules.
type RuleLister interface {
	ListRules(ctx context.Context, userID int64) ([]core.RecurringRule, error)
}

// RuleCreator persists a new recurring rule.
type RuleCreator interface {
	CreateRule(ctx context.Context, rule core.RecurringRule) (int64, error)
}

// NetWorthReader computes a user's net worth in a base currency.
type NetWorthReader interface {
	NetWorth(ctx context.Context, userID int64, baseCurrency string) (core.NetWorth, error)
}

// NotificationLister reads a user's notifications.
type NotificationLister interface {
	ListNotifications(ctx context.Context, userID int64, opts core.NotificationListOptions) ([]core.Notification, error)
}

// Pinger reports storage liveness for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerConfig wires the server's dependencies.
type ServerConfig struct {
	Port          string
	Sessions      session.Store
	Generator     Generator
	Rules         RuleLister
	RuleWriter    RuleCreator
	NetWorth      NetWorthReader
	Notifications NotificationLister
	DB            Pinger
	Formats       *format.Cache
	DefaultLocale string

	// NetWorthCacheTTL caps how stale the cached net-worth figure may be.
	// Zero disables caching.
	NetWorthCacheTTL time.Duration
}

type Server struct {
	httpServer *http.Server

	sessions      session.Store
	generator     Generator
	rules         RuleLister
	ruleWriter    RuleCreator
	netWorth      NetWorthReader
	notifications NotificationLister
	db            Pinger
	formats       *format.Cache
	defaultLocale string

	netWorthCache *cache.TTLCache[core.NetWorth]
}

func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		sessions:      cfg.Sessions,
		generator:     cfg.Generator,
		rules:         cfg.Rules,
		ruleWriter:    cfg.RuleWriter,
		netWorth:      cfg.NetWorth,
		notifications: cfg.Notifications,
		db:            cfg.DB,
		formats:       cfg.Formats,
		defaultLocale: cfg.DefaultLocale,
	}
	if s.formats == nil {
		s.formats = format.NewCache()
	}
	if s.defaultLocale == "" {
		s.defaultLocale = "es-MX"
	}
	if cfg.NetWorthCacheTTL > 0 {
		s.netWorthCache = cache.New[core.NetWorth](1024, cfg.NetWorthCacheTTL)
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.Handle("POST /api/recurring/generate", s.requireSession(http.HandlerFunc(s.handleGenerate)))
	mux.Handle("GET /api/recurring", s.requireSession(http.HandlerFunc(s.handleListRules)))
	mux.Handle("POST /api/recurring", s.requireSession(http.HandlerFunc(s.handleCreateRule)))
	mux.Handle("GET /api/networth", s.requireSession(http.HandlerFunc(s.handleNetWorth)))
	mux.Handle("GET /api/notifications", s.requireSession(http.HandlerFunc(s.handleListNotifications)))

	return withRequestID(withSecurityHeaders(mux))
}

// Handler exposes the full middleware chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	slog.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.InfoContext(ctx, "HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	if err := s.db.Ping(r.Context()); err != nil {
		slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
