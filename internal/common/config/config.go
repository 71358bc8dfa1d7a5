package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// IsDevelopment reports whether error responses may expose stack traces.
func (a AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// GatewayConfig holds the dispatch engine settings. It is read-only after Load.
type GatewayConfig struct {
	ListenAddress string `mapstructure:"listen_address"`
	ContextPath   string `mapstructure:"context_path"`
	APIPath       string `mapstructure:"api_path"`
	APIVersion    string `mapstructure:"api_version"`

	// DefaultTimeout is the per-request budget in milliseconds. Zero disables
	// the timeout guard. Mappings may override it individually.
	DefaultTimeout int `mapstructure:"default_timeout"`

	// ServiceResolver names the registry entry consulted before local lookup.
	ServiceResolver string `mapstructure:"service_resolver"`

	// ResolverBaseURL, when set, registers the built-in HTTP resolver under
	// ServiceResolver so that unresolved services are proxied to a backend.
	ResolverBaseURL string `mapstructure:"resolver_base_url"`

	// MappingStore maps bundle names to locations. A location is either the
	// name of an in-code registered bundle or a path to a json/yaml file.
	MappingStore map[string]string `mapstructure:"mapping_store"`

	RequestOptions   map[string]RequestOptionConfig  `mapstructure:"request_options"`
	ResponseOptions  map[string]ResponseOptionConfig `mapstructure:"response_options"`
	UserAgentEnabled bool                            `mapstructure:"user_agent_enabled"`

	// ErrorPolicy selects how mapping error transforms interact with the
	// built-in classification: "standard" or "legacy".
	ErrorPolicy string `mapstructure:"error_policy"`

	// DefaultErrorSource names the taxonomy used when a mapping declares none.
	DefaultErrorSource string `mapstructure:"default_error_source"`
}

// RequestOptionConfig describes one header-derived request attribute.
type RequestOptionConfig struct {
	HeaderName string `mapstructure:"header_name"`
	OptionName string `mapstructure:"option_name"`
	Required   bool   `mapstructure:"required"`
}

// ResponseOptionConfig maps a taxonomy field onto a response header.
type ResponseOptionConfig struct {
	HeaderName string `mapstructure:"header_name"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
