package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a configuration, reading the first config.yaml found in the
// search path. A missing file leaves the defaults in place.
func New() (*Config, error) {
	return NewWithFile("")
}

// NewWithFile creates a configuration from an explicit file, or from the
// search path when path is empty
func NewWithFile(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/fraud-detector/")
		v.AddConfigPath("$HOME/.fraud-detector")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("FRAUD_DETECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	// URL analyzer
	v.SetDefault("url.classifier.backend", "forest")
	v.SetDefault("url.classifier.model_path", "models/phishing_model.json")
	v.SetDefault("url.typo.threshold", 0.8)
	v.SetDefault("url.typo.popular_domains", []string{})
	v.SetDefault("url.allow_list.extra_domains", []string{})
	v.SetDefault("url.network.enabled", true)
	v.SetDefault("url.network.lookup_timeout", "5s")
	v.SetDefault("url.reputation.type", "file")
	v.SetDefault("url.reputation.file_path", "data/reported_urls.json")

	// Phone analyzer
	v.SetDefault("phone.reputation.type", "memory")
	v.SetDefault("phone.reputation.file_path", "data/scam_numbers.json")

	// Email analyzer
	v.SetDefault("email.providers", []string{})

	// Shared reputation backends
	v.SetDefault("reputation.sqlite_path", "data/reputation.db")
	v.SetDefault("reputation.mysql_dsn", "user:password@tcp(localhost:3306)/fraud_detector")
	v.SetDefault("reputation.redis_addr", "localhost:6379")
	v.SetDefault("reputation.redis_password", "")
	v.SetDefault("reputation.redis_db", 0)
	v.SetDefault("reputation.redis_prefix", "fraud")

	// WHOIS
	v.SetDefault("whois.port", "43")
	v.SetDefault("whois.servers", map[string]string{})

	// Remote classifier
	v.SetDefault("remote.endpoint", "http://localhost:8000")
	v.SetDefault("remote.api_key", "")
	v.SetDefault("remote.timeout", "15s")

	// SMTP filter
	v.SetDefault("server.filter_type", "smtp")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.forward_address", "localhost:10026")
	v.SetDefault("server.block_spam", false)
	v.SetDefault("server.check_links", true)
	v.SetDefault("server.max_links", 5)
	v.SetDefault("server.subject_prefix", "")
	v.SetDefault("server.headers.status", "X-Fraud-Status")
	v.SetDefault("server.headers.score", "X-Fraud-Score")
	v.SetDefault("server.headers.level", "X-Fraud-Level")
	v.SetDefault("server.headers.reason", "X-Fraud-Reason")
	v.SetDefault("server.headers.links", "X-Fraud-Phishing-Links")
	v.SetDefault("server.headers.id", "X-Fraud-ID")
	v.SetDefault("server.max_message_bytes", 10*1024*1024)

	// Bedrock
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 300)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_url_size", 2048)

	// Gemini
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 300)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_url_size", 2048)

	// OpenAI
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 300)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_url_size", 2048)

	// Domain age cache
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_frequency", "1h")
	v.SetDefault("cache.sqlite_path", "data/domain_age_cache.db")
	v.SetDefault("cache.mysql_dsn", "user:password@tcp(localhost:3306)/fraud_detector")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Set overrides a value, taking precedence over file and environment
func (c *Config) Set(key string, value any) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetStringMapString gets a string map from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetDuration parses a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d, err := time.ParseDuration(c.GetString(key))
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
