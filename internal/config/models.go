package config

import "time"

// URLConfig configures the phishing URL analyzer
type URLConfig struct {
	Backend        string
	ModelPath      string
	TypoThreshold  float64
	PopularDomains []string
	ExtraAllowed   []string
	NetworkEnabled bool
	LookupTimeout  time.Duration
}

// PhoneConfig configures the phone analyzer
type PhoneConfig struct {
	Reputation ReputationConfig
}

// ReputationConfig selects a reputation store backend for one scope
type ReputationConfig struct {
	Scope         string
	Type          string
	FilePath      string
	SQLitePath    string
	MySQLDSN      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// ServerConfig configures the SMTP screening filter
type ServerConfig struct {
	FilterType      string
	ListenAddress   string
	ForwardAddress  string
	BlockSpam       bool
	CheckLinks      bool
	MaxLinks        int
	SubjectPrefix   string
	MaxMessageBytes int64
	Headers         HeaderNames
}

// HeaderNames are the headers the filter adds to screened mail
type HeaderNames struct {
	Status string
	Score  string
	Level  string
	Reason string
	Links  string
	ID     string
}

// CacheConfig configures the domain age cache
type CacheConfig struct {
	Type             string
	Enabled          bool
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
}

// WhoisConfig configures the WHOIS client
type WhoisConfig struct {
	Port    string
	Servers map[string]string
}

// RemoteConfig configures the HTTP inference classifier
type RemoteConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxURLSize  int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxURLSize  int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxURLSize  int
}

// durationOr parses key, returning def when the value is missing or invalid
func (c *Config) durationOr(key string, def time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil {
		return def
	}
	return d
}

// GetURL returns the URL analyzer configuration
func (c *Config) GetURL() URLConfig {
	return URLConfig{
		Backend:        c.GetString("url.classifier.backend"),
		ModelPath:      c.GetString("url.classifier.model_path"),
		TypoThreshold:  c.GetFloat64("url.typo.threshold"),
		PopularDomains: c.GetStringSlice("url.typo.popular_domains"),
		ExtraAllowed:   c.GetStringSlice("url.allow_list.extra_domains"),
		NetworkEnabled: c.GetBool("url.network.enabled"),
		LookupTimeout:  c.durationOr("url.network.lookup_timeout", 5*time.Second),
	}
}

// GetPhone returns the phone analyzer configuration
func (c *Config) GetPhone() PhoneConfig {
	return PhoneConfig{
		Reputation: c.GetReputation("phone"),
	}
}

// GetReputation returns the reputation store configuration for scope ("url" or "phone")
func (c *Config) GetReputation(scope string) ReputationConfig {
	return ReputationConfig{
		Scope:         scope,
		Type:          c.GetString(scope + ".reputation.type"),
		FilePath:      c.GetString(scope + ".reputation.file_path"),
		SQLitePath:    c.GetString("reputation.sqlite_path"),
		MySQLDSN:      c.GetString("reputation.mysql_dsn"),
		RedisAddr:     c.GetString("reputation.redis_addr"),
		RedisPassword: c.GetString("reputation.redis_password"),
		RedisDB:       c.GetInt("reputation.redis_db"),
		RedisPrefix:   c.GetString("reputation.redis_prefix"),
	}
}

// GetServer returns the SMTP filter configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:      c.GetString("server.filter_type"),
		ListenAddress:   c.GetString("server.listen_address"),
		ForwardAddress:  c.GetString("server.forward_address"),
		BlockSpam:       c.GetBool("server.block_spam"),
		CheckLinks:      c.GetBool("server.check_links"),
		MaxLinks:        c.GetInt("server.max_links"),
		SubjectPrefix:   c.GetString("server.subject_prefix"),
		MaxMessageBytes: int64(c.GetInt("server.max_message_bytes")),
		Headers: HeaderNames{
			Status: c.GetString("server.headers.status"),
			Score:  c.GetString("server.headers.score"),
			Level:  c.GetString("server.headers.level"),
			Reason: c.GetString("server.headers.reason"),
			Links:  c.GetString("server.headers.links"),
			ID:     c.GetString("server.headers.id"),
		},
	}
}

// GetCache returns the domain age cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Type:             c.GetString("cache.type"),
		Enabled:          c.GetBool("cache.enabled"),
		TTL:              c.durationOr("cache.ttl", 24*time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", time.Hour),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
	}
}

// GetWhois returns the WHOIS client configuration
func (c *Config) GetWhois() WhoisConfig {
	return WhoisConfig{
		Port:    c.GetString("whois.port"),
		Servers: c.GetStringMapString("whois.servers"),
	}
}

// GetRemote returns the remote classifier configuration
func (c *Config) GetRemote() RemoteConfig {
	return RemoteConfig{
		Endpoint: c.GetString("remote.endpoint"),
		APIKey:   c.GetString("remote.api_key"),
		Timeout:  c.durationOr("remote.timeout", 15*time.Second),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxURLSize:  c.GetInt("bedrock.max_url_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxURLSize:  c.GetInt("gemini.max_url_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxURLSize:  c.GetInt("openai.max_url_size"),
	}
}
