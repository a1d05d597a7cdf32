// internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"housegate/internal/identity"
)

// Load loads the configuration from all sources and returns the merged result
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	Settings.PopulateViperDefaults(v)

	// Set up environment variable handling
	v.SetEnvPrefix("HOUSEGATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	// Load from config file if specified
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	config := &Config{}

	// Populate server configuration
	config.Server.Address = v.GetString("SERVER_ADDR")
	shutdownTimeout, err := time.ParseDuration(v.GetString("SHUTDOWN_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	config.Server.ShutdownTimeout = shutdownTimeout

	// Populate metrics configuration
	config.Metrics.Address = v.GetString("METRICS_ADDR")

	// Populate TLS configuration
	config.TLS.Enabled = v.GetBool("TLS_ENABLED")
	config.TLS.CertPath = v.GetString("TLS_CERT_PATH")
	config.TLS.KeyPath = v.GetString("TLS_KEY_PATH")

	// Populate upstream configuration
	upstreamURL, err := url.Parse(v.GetString("UPSTREAM_URL"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	config.Upstream.URL = upstreamURL

	upstreamTimeout, err := time.ParseDuration(v.GetString("UPSTREAM_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid upstream timeout: %w", err)
	}
	config.Upstream.Timeout = upstreamTimeout

	// Populate session configuration
	config.Session.Secret = v.GetString("SESSION_SECRET")
	config.Session.CookieName = v.GetString("SESSION_COOKIE")

	// Populate assignment store configuration
	config.Store.DatabaseURL = v.GetString("DATABASE_URL")
	queryTimeout, err := time.ParseDuration(v.GetString("STORE_QUERY_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid store query timeout: %w", err)
	}
	config.Store.QueryTimeout = queryTimeout

	// Populate access cache configuration
	config.Cache.Backend = v.GetString("CACHE_BACKEND")
	cacheTTL, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid cache TTL: %w", err)
	}
	config.Cache.TTL = cacheTTL
	config.Cache.MaxEntries = v.GetInt("CACHE_MAX_ENTRIES")
	config.Cache.RedisAddr = v.GetString("CACHE_REDIS_ADDR")
	config.Cache.RedisPassword = v.GetString("CACHE_REDIS_PASSWORD")

	// Populate gate configuration
	config.Gate.RoutesPath = v.GetString("ROUTES_PATH")
	config.Gate.SkipPrefixes = v.GetStringSlice("SKIP_PREFIXES")
	config.Gate.APIPassthroughs = v.GetStringSlice("API_PASSTHROUGHS")

	// Populate observability configuration
	config.Observability.LogLevel = v.GetString("LOG_LEVEL")

	// Load the route table
	routes, err := LoadRoutes(config.Gate.RoutesPath)
	if err != nil {
		return nil, err
	}
	config.Routes = routes

	// Validate the configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadRoutes loads the route table from a file. The table is validated
// here for role tokens; template shape is validated by the route registry.
func LoadRoutes(routesPath string) ([]Route, error) {
	if routesPath == "" {
		return nil, fmt.Errorf("routes path is required")
	}
	if _, err := os.Stat(routesPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("routes file not found: %s", routesPath)
	}

	v := viper.New()
	v.SetConfigFile(routesPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read routes file: %w", err)
	}

	var routes []Route
	if err := v.UnmarshalKey("routes", &routes); err != nil {
		return nil, fmt.Errorf("failed to parse routes file: %w", err)
	}
	if len(routes) == 0 {
		return nil, fmt.Errorf("routes file %s defines no routes", routesPath)
	}

	for _, r := range routes {
		if r.MinRole != "" && !identity.ValidRole(r.MinRole) {
			return nil, fmt.Errorf("route %q: unknown min_role %q", r.Name, r.MinRole)
		}
	}

	return routes, nil
}

// validateConfig performs validation on the loaded configuration
func validateConfig(cfg *Config) error {
	if cfg.Session.Secret == "" {
		return fmt.Errorf("session secret is required")
	}

	if cfg.Store.DatabaseURL == "" {
		return fmt.Errorf("database URL is required")
	}

	if cfg.Upstream.URL == nil || cfg.Upstream.URL.String() == "" {
		return fmt.Errorf("upstream URL is required")
	}

	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertPath == "" {
			return fmt.Errorf("TLS certificate path is required when TLS is enabled")
		}
		if cfg.TLS.KeyPath == "" {
			return fmt.Errorf("TLS key path is required when TLS is enabled")
		}
		if _, err := os.Stat(cfg.TLS.CertPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", cfg.TLS.CertPath)
		}
		if _, err := os.Stat(cfg.TLS.KeyPath); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", cfg.TLS.KeyPath)
		}
	}

	return nil
}
