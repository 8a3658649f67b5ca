// Package api serves the read-only catalog HTTP API.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/fuel"
)

// DefaultAuditCapacity is the number of requests kept by the audit ring.
const DefaultAuditCapacity = 200

// DefaultLimit caps GET /catalog when no limit is given.
const DefaultLimit = 200

// Version is reported by GET /config.
var Version = "dev"

// Catalog yields the current catalog snapshot.
type Catalog interface {
	Get(ctx context.Context) (*catalog.Snapshot, error)
}

// PriceSource yields resolved fuel prices.
type PriceSource interface {
	Prices(ctx context.Context) fuel.Prices
}

// Options configures a Server.
type Options struct {
	Catalog       Catalog
	Prices        PriceSource
	CatalogPath   string
	AllowedYears  []int
	CORSOrigins   []string
	AuditCapacity int
	Timeout       time.Duration
}

// Server holds the dependencies shared by the handlers.
type Server struct {
	catalog      Catalog
	prices       PriceSource
	catalogPath  string
	allowedYears []int
	audit        *AuditLog
	now          func() time.Time
}

// NewServer creates a Server.
func NewServer(opts Options) *Server {
	if opts.AuditCapacity <= 0 {
		opts.AuditCapacity = DefaultAuditCapacity
	}
	return &Server{
		catalog:      opts.Catalog,
		prices:       opts.Prices,
		catalogPath:  opts.CatalogPath,
		allowedYears: opts.AllowedYears,
		audit:        NewAuditLog(opts.AuditCapacity),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Audit returns the request ring.
func (s *Server) Audit() *AuditLog { return s.audit }

// NewRouter builds the HTTP handler with all routes configured.
func NewRouter(s *Server, opts Options) http.Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.audit.Middleware)
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/health", s.Health)
	r.Get("/config", s.Config)
	r.Get("/options", s.Options)
	r.Get("/catalog", s.Catalog)
	r.Get("/dashboard", s.Dashboard)
	r.Get("/version_diffs", s.VersionDiffs)
	r.Get("/audit", s.AuditEntries)
	r.Post("/compare", s.Compare)
	r.Post("/auto_competitors", s.AutoCompetitors)

	return r
}
