// internal/config/settings.go
package config

import "github.com/spf13/viper"

// SettingType represents the type of a setting
type SettingType string

const (
	// String type for string settings
	String SettingType = "string"
	// Bool type for boolean settings
	Bool SettingType = "bool"
	// Int type for integer settings
	Int SettingType = "int"
	// StringSlice type for string slice settings
	StringSlice SettingType = "stringSlice"
)

// Setting defines a configuration setting
type Setting struct {
	// Name is the name of the setting
	Name string
	// Short is a short description of the setting
	Short string
	// Type is the type of the setting
	Type SettingType
	// Default is the default value of the setting
	Default interface{}
	// Env is the environment variable name for the setting
	Env string
	// Required indicates whether the setting is required
	Required bool
}

// SettingList is a list of settings
type SettingList []Setting

// PopulateViperDefaults sets default values for all settings in Viper
func (sl SettingList) PopulateViperDefaults(v *viper.Viper) {
	for _, s := range sl {
		v.SetDefault(s.Name, s.Default)
	}
}

// Settings defines all application settings
var Settings = SettingList{
	// Server settings
	{
		Name:    "SERVER_ADDR",
		Short:   "Address on which the server listens",
		Type:    String,
		Default: ":8000",
		Env:     "SERVER_ADDR",
	},
	{
		Name:    "METRICS_ADDR",
		Short:   "Address on which the metrics server listens",
		Type:    String,
		Default: ":9090",
		Env:     "METRICS_ADDR",
	},
	{
		Name:    "SHUTDOWN_TIMEOUT",
		Short:   "Maximum time to wait for graceful shutdown",
		Type:    String,
		Default: "30s",
		Env:     "SHUTDOWN_TIMEOUT",
	},

	// TLS settings
	{
		Name:    "TLS_ENABLED",
		Short:   "Enable TLS for the server",
		Type:    Bool,
		Default: false,
		Env:     "TLS_ENABLED",
	},
	{
		Name:    "TLS_CERT_PATH",
		Short:   "Path to the TLS certificate",
		Type:    String,
		Default: "",
		Env:     "TLS_CERT_PATH",
	},
	{
		Name:    "TLS_KEY_PATH",
		Short:   "Path to the TLS key",
		Type:    String,
		Default: "",
		Env:     "TLS_KEY_PATH",
	},

	// Upstream settings
	{
		Name:    "UPSTREAM_URL",
		Short:   "URL of the upstream application server",
		Type:    String,
		Default: "http://localhost:3000",
		Env:     "UPSTREAM_URL",
	},
	{
		Name:    "UPSTREAM_TIMEOUT",
		Short:   "Maximum time to wait for upstream responses",
		Type:    String,
		Default: "30s",
		Env:     "UPSTREAM_TIMEOUT",
	},

	// Session settings
	{
		Name:     "SESSION_SECRET",
		Short:    "HMAC secret used to verify session tokens",
		Type:     String,
		Default:  "",
		Env:      "SESSION_SECRET",
		Required: true,
	},
	{
		Name:    "SESSION_COOKIE",
		Short:   "Name of the session cookie",
		Type:    String,
		Default: "hg_session",
		Env:     "SESSION_COOKIE",
	},

	// Assignment store settings
	{
		Name:     "DATABASE_URL",
		Short:    "PostgreSQL DSN for the assignment store",
		Type:     String,
		Default:  "",
		Env:      "DATABASE_URL",
		Required: true,
	},
	{
		Name:    "STORE_QUERY_TIMEOUT",
		Short:   "Bounded timeout for assignment store queries",
		Type:    String,
		Default: "2s",
		Env:     "STORE_QUERY_TIMEOUT",
	},

	// Access cache settings
	{
		Name:    "CACHE_BACKEND",
		Short:   "Access cache backend (memory, redis)",
		Type:    String,
		Default: "memory",
		Env:     "CACHE_BACKEND",
	},
	{
		Name:    "CACHE_TTL",
		Short:   "TTL for cached positive access decisions",
		Type:    String,
		Default: "300s",
		Env:     "CACHE_TTL",
	},
	{
		Name:    "CACHE_MAX_ENTRIES",
		Short:   "Capacity of the in-memory access cache",
		Type:    Int,
		Default: 16384,
		Env:     "CACHE_MAX_ENTRIES",
	},
	{
		Name:    "CACHE_REDIS_ADDR",
		Short:   "Redis address for the redis cache backend",
		Type:    String,
		Default: "localhost:6379",
		Env:     "CACHE_REDIS_ADDR",
	},
	{
		Name:    "CACHE_REDIS_PASSWORD",
		Short:   "Redis password for the redis cache backend",
		Type:    String,
		Default: "",
		Env:     "CACHE_REDIS_PASSWORD",
	},

	// Gate settings
	{
		Name:    "ROUTES_PATH",
		Short:   "Path to the route table file",
		Type:    String,
		Default: "routes.yaml",
		Env:     "ROUTES_PATH",
	},
	{
		Name:    "SKIP_PREFIXES",
		Short:   "Path prefixes that bypass the authorization pipeline",
		Type:    StringSlice,
		Default: []string{"/static/", "/assets/", "/_build/"},
		Env:     "SKIP_PREFIXES",
	},
	{
		Name:    "API_PASSTHROUGHS",
		Short:   "API path prefixes declared as passthroughs",
		Type:    StringSlice,
		Default: []string{},
		Env:     "API_PASSTHROUGHS",
	},

	// Observability settings
	{
		Name:    "LOG_LEVEL",
		Short:   "Minimum log level to emit",
		Type:    String,
		Default: "info",
		Env:     "LOG_LEVEL",
	},
}
