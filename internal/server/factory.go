// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/gorilla/mux"

	"housegate/internal/accesscache"
	"housegate/internal/arbiter"
	"housegate/internal/assignment"
	"housegate/internal/config"
	"housegate/internal/identity"
	"housegate/internal/observability"
	"housegate/internal/observability/logging"
	"housegate/internal/routes"
	"housegate/internal/scope"
	tlsconfig "housegate/internal/tls"
)

// NewFromConfig wires the full gate from configuration: observability,
// assignment store, access cache, session resolver, route registry, arbiter
// and the upstream proxy the arbiter fronts.
func NewFromConfig(cfg *config.Config) (*Server, error) {
	// Initialize observability
	obs, err := observability.NewProvider(cfg.Observability.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	// Initialize TLS configuration
	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		setup := &tlsconfig.Config{
			Logger:   logger,
			CertPath: cfg.TLS.CertPath,
			KeyPath:  cfg.TLS.KeyPath,
		}
		tlsCfg, err = setup.GetTLSConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	// Initialize the assignment store
	db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open assignment database: %w", err)
	}
	store, err := assignment.NewPostgresStore(db, cfg.Store.QueryTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment store: %w", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("assignment store unreachable: %w", err)
	}
	logger.Info("Assignment store connected", "dsn", logging.RedactDSN(cfg.Store.DatabaseURL))

	// Initialize the access cache
	cache, err := newCacheFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create access cache: %w", err)
	}

	// Initialize the session resolver
	resolver, err := identity.NewTokenResolver([]byte(cfg.Session.Secret), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create session resolver: %w", err)
	}

	// Build and validate the route registry; a malformed table fails here,
	// before the server accepts a single request
	registry, err := routes.NewRegistry(convertRoutes(cfg.Routes))
	if err != nil {
		return nil, fmt.Errorf("invalid route table: %w", err)
	}

	// Initialize the scope checker and the arbiter
	checker := scope.NewChecker(store, cache, logger, obs.Metrics)
	arb := arbiter.New(arbiter.Config{
		SkipPrefixes:    cfg.Gate.SkipPrefixes,
		APIPassthroughs: cfg.Gate.APIPassthroughs,
		SessionCookie:   cfg.Session.CookieName,
	}, registry, resolver, checker, store, logger, obs.Metrics)

	// The gate fronts the upstream application server
	proxy := newUpstreamProxy(cfg.Upstream.URL, cfg.Upstream.Timeout)
	logger.Info("Upstream configured", "url", logging.RedactURL(cfg.Upstream.URL))

	outer := mux.NewRouter()
	outer.Path("/healthz").Methods("GET").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	outer.PathPrefix("/").Handler(arb.Middleware(proxy))

	handler := obs.Middleware(outer)

	serverConfig := Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLSConfig:       tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	return New(serverConfig, handler, obs.MetricsHandler(), logger), nil
}

// newCacheFromConfig selects the access cache backend
func newCacheFromConfig(cfg *config.Config) (accesscache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return accesscache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.TTL)
	default:
		return accesscache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL), nil
	}
}

// convertRoutes converts config.Route to routes.Pattern
func convertRoutes(configRoutes []config.Route) []routes.Pattern {
	patterns := make([]routes.Pattern, len(configRoutes))
	for i, r := range configRoutes {
		patterns[i] = routes.Pattern{
			Name:           r.Name,
			Template:       r.Template,
			Public:         r.Public,
			MinRole:        identity.ParseRole(r.MinRole),
			ResourceScoped: r.ResourceScoped,
			Fallback:       r.Fallback,
		}
	}
	return patterns
}

// newUpstreamProxy builds the reverse proxy to the application server with
// bounded timeouts
func newUpstreamProxy(upstreamURL *url.URL, timeout time.Duration) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(upstreamURL)
	proxy.Transport = &http.Transport{
		ResponseHeaderTimeout: timeout,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return proxy
}
