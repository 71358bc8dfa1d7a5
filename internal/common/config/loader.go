package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like GATEWAY_LISTEN_ADDRESS
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	if cfg.App.Environment == "" {
		cfg.App.Environment = env
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile() {
	candidates := []string{".env", "../.env", "../../.env"}
	for _, candidate := range candidates {
		if abs, err := filepath.Abs(candidate); err == nil {
			if _, err := os.Stat(abs); err == nil {
				_ = godotenv.Load(abs)
				return
			}
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Gateway.ListenAddress == "" {
		cfg.Gateway.ListenAddress = ":8080"
	}
	if cfg.Gateway.ContextPath == "" {
		cfg.Gateway.ContextPath = "/restfront"
	}
	if cfg.Gateway.APIPath == "" {
		cfg.Gateway.APIPath = "rest"
	}
	if cfg.Gateway.DefaultTimeout == 0 {
		cfg.Gateway.DefaultTimeout = 30000
	}
	if cfg.Gateway.ErrorPolicy == "" {
		cfg.Gateway.ErrorPolicy = "standard"
	}
	if cfg.Gateway.DefaultErrorSource == "" {
		cfg.Gateway.DefaultErrorSource = "application"
	}
	if cfg.Gateway.MappingStore == nil {
		cfg.Gateway.MappingStore = map[string]string{"example": "example-bundle"}
	}
	if cfg.Gateway.RequestOptions == nil {
		cfg.Gateway.RequestOptions = DefaultRequestOptions()
	}
	if cfg.Gateway.ResponseOptions == nil {
		cfg.Gateway.ResponseOptions = DefaultResponseOptions()
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if !strings.HasPrefix(cfg.Gateway.ContextPath, "/") {
		return fmt.Errorf("gateway.context_path must start with a slash")
	}
	if cfg.Gateway.DefaultTimeout < 0 {
		return fmt.Errorf("gateway.default_timeout must not be negative")
	}
	switch cfg.Gateway.ErrorPolicy {
	case "standard", "legacy":
	default:
		return fmt.Errorf("gateway.error_policy must be %q or %q", "standard", "legacy")
	}
	return nil
}

// DefaultRequestOptions returns the standard header table consumed by the
// request-option extractor. None of the headers is required by default;
// mappings opt in per option. A missing requestId is backfilled with a
// generated one at dispatch time.
func DefaultRequestOptions() map[string]RequestOptionConfig {
	return map[string]RequestOptionConfig{
		"requestId":     {HeaderName: "X-Request-Id"},
		"segmentId":     {HeaderName: "X-Segment-Id"},
		"platformApp":   {HeaderName: "X-Platform-App"},
		"schemaVersion": {HeaderName: "X-Schema-Version"},
		"clientType":    {HeaderName: "X-App-Type"},
		"clientVersion": {HeaderName: "X-App-Version"},
		"languageCode":  {HeaderName: "X-Lang-Code"},
		"appTierType":   {HeaderName: "X-Tier-Type"},
		"appUserType":   {HeaderName: "X-User-Type"},
		"mockSuite":     {HeaderName: "X-Mock-Suite"},
		"mockState":     {HeaderName: "X-Mock-State"},
	}
}

// DefaultResponseOptions returns the standard response header table.
func DefaultResponseOptions() map[string]ResponseOptionConfig {
	return map[string]ResponseOptionConfig{
		"returnCode": {HeaderName: "X-Return-Code"},
		"packageRef": {HeaderName: "X-Package-Ref"},
	}
}
