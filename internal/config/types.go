// internal/config/types.go
package config

import (
	"net/url"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
	}

	// Upstream holds configuration for the application server behind the gate
	Upstream struct {
		// URL is the URL of the upstream application server
		URL *url.URL
		// Timeout is the maximum time to wait for upstream responses
		Timeout time.Duration
	}

	// Session holds session token configuration
	Session struct {
		// Secret is the HMAC secret used to verify session tokens
		Secret string
		// CookieName is the name of the session cookie
		CookieName string
	}

	// Store holds assignment store configuration
	Store struct {
		// DatabaseURL is the PostgreSQL DSN
		DatabaseURL string
		// QueryTimeout bounds every store query
		QueryTimeout time.Duration
	}

	// Cache holds access cache configuration
	Cache struct {
		// Backend selects the cache backend (memory, redis)
		Backend string
		// TTL is the staleness window for cached positive decisions
		TTL time.Duration
		// MaxEntries bounds the in-memory backend
		MaxEntries int
		// RedisAddr is the Redis address for the redis backend
		RedisAddr string
		// RedisPassword is the Redis password for the redis backend
		RedisPassword string
	}

	// Gate holds arbitration configuration
	Gate struct {
		// RoutesPath is the path to the route table file
		RoutesPath string
		// SkipPrefixes bypass the authorization pipeline
		SkipPrefixes []string
		// APIPassthroughs are declared API passthrough prefixes
		APIPassthroughs []string
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
	}

	// Routes holds the route table, loaded from the routes file
	Routes []Route
}

// Route is one externally-editable route table entry. The table is the only
// configuration artifact the UI team edits; it is validated at startup and
// a malformed entry fails the process before it serves a single request.
type Route struct {
	// Name is a unique identifier for the route
	Name string `mapstructure:"name" yaml:"name"`

	// Template is the path template, with {houseId}-style placeholders
	Template string `mapstructure:"template" yaml:"template"`

	// Public marks the route as requiring no authentication
	Public bool `mapstructure:"public" yaml:"public"`

	// MinRole is the minimum role token (resident, admin, superadmin).
	// Empty admits every authenticated subject.
	MinRole string `mapstructure:"min_role" yaml:"min_role"`

	// ResourceScoped requires assignment to the house named in the path
	ResourceScoped bool `mapstructure:"resource_scoped" yaml:"resource_scoped"`

	// Fallback is the redirect target for denied requests; empty means the
	// generic authenticated home
	Fallback string `mapstructure:"fallback" yaml:"fallback"`
}
