package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Deployment DeploymentConfig `mapstructure:"deployment"`
	API        APIConfig        `mapstructure:"api"`
	Rankings   RankingsConfig   `mapstructure:"rankings"`
	Chains     ChainsConfig     `mapstructure:"chains"`
	Session    SessionConfig    `mapstructure:"session"`
	Feed       FeedConfig       `mapstructure:"feed"`
	HTTPCache  HTTPCacheConfig  `mapstructure:"http_cache"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

// DeploymentConfig decides which network set this instance serves.
type DeploymentConfig struct {
	HostURL      string   `mapstructure:"host_url"`
	MainnetHosts []string `mapstructure:"mainnet_hosts"`
	TestnetHost  string   `mapstructure:"testnet_host"`
}

// APIConfig holds settings for the NFT market data API.
type APIConfig struct {
	Key                string        `mapstructure:"key"`
	Timeout            time.Duration `mapstructure:"timeout"`
	RateLimit          float64       `mapstructure:"rate_limit"`
	Burst              int           `mapstructure:"burst"`
	NormalizeRoyalties bool          `mapstructure:"normalize_royalties"`
}

// RankingsConfig holds the fixed parameters of the prefetched ranking queries.
type RankingsConfig struct {
	TrendingSetID string `mapstructure:"trending_set_id"`
	FeaturedSetID string `mapstructure:"featured_set_id"`
	Limit         int    `mapstructure:"limit"`
	FeaturedLimit int    `mapstructure:"featured_limit"`
	MintsLimit    int    `mapstructure:"mints_limit"`
}

// ChainsConfig holds chain registry settings.
type ChainsConfig struct {
	DefaultRoutePrefix string `mapstructure:"default_route_prefix"`
	NetworksFile       string `mapstructure:"networks_file"`
}

// SessionConfig holds settings for per-visitor chain selection.
type SessionConfig struct {
	CookieName      string        `mapstructure:"cookie_name"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// FeedConfig holds settings for the websocket ranking feed.
type FeedConfig struct {
	DefaultPollInterval time.Duration `mapstructure:"default_poll_interval"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	MaxMessageSize      int64         `mapstructure:"max_message_size"`
}

// HTTPCacheConfig holds the shared-cache directives for rendered pages.
type HTTPCacheConfig struct {
	SMaxAge              time.Duration `mapstructure:"s_maxage"`
	StaleWhileRevalidate time.Duration `mapstructure:"stale_while_revalidate"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("app.name", "nft-storefront")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("deployment.host_url", "")
	v.SetDefault("deployment.mainnet_hosts", []string{
		"https://explorer.reservoir.tools",
		"https://explorer-dev.reservoir.tools",
		"https://explorer-privy.reservoir.tools",
	})
	v.SetDefault("deployment.testnet_host", "https://testnets.reservoir.tools")
	v.SetDefault("api.key", "")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate_limit", 10.0)
	v.SetDefault("api.burst", 5)
	v.SetDefault("api.normalize_royalties", false)
	v.SetDefault("rankings.trending_set_id", "cc15657521c22b8b6e7b836819ea02b1fb4cfce319334a90b1d1a5d076ac641b")
	v.SetDefault("rankings.featured_set_id", "457f6988eece41fcc90894c3bdb7490bfb7888fe5a34367c91a9f6e7e6f1cf3a")
	v.SetDefault("rankings.limit", 20)
	v.SetDefault("rankings.featured_limit", 20)
	v.SetDefault("rankings.mints_limit", 20)
	v.SetDefault("chains.default_route_prefix", "pulsechain")
	v.SetDefault("chains.networks_file", "")
	v.SetDefault("session.cookie_name", "storefront_sid")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cleanup_interval", "1h")
	v.SetDefault("feed.default_poll_interval", "10s")
	v.SetDefault("feed.write_timeout", "10s")
	v.SetDefault("feed.max_message_size", 4096)
	v.SetDefault("http_cache.s_maxage", "120s")
	v.SetDefault("http_cache.stale_while_revalidate", "180s")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Conventional names shared with the frontend deployment.
	_ = v.BindEnv("deployment.host_url", "STOREFRONT_DEPLOYMENT_HOST_URL", "HOST_URL")
	_ = v.BindEnv("api.key", "STOREFRONT_API_KEY", "RESERVOIR_API_KEY")
	_ = v.BindEnv("api.normalize_royalties", "STOREFRONT_API_NORMALIZE_ROYALTIES", "NORMALIZE_ROYALTIES")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return ":" + c.Port
}

func (c APIConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 15 * time.Second
	}
	return c.Timeout
}

func (c SessionConfig) GetTTL() time.Duration {
	return c.TTL
}

func (c SessionConfig) GetCleanupInterval() time.Duration {
	return c.CleanupInterval
}

func (c FeedConfig) GetDefaultPollInterval() time.Duration {
	if c.DefaultPollInterval <= 0 {
		return 10 * time.Second
	}
	return c.DefaultPollInterval
}

// CacheControl renders the Cache-Control value for server-rendered ranking pages.
func (c HTTPCacheConfig) CacheControl() string {
	return fmt.Sprintf("public, s-maxage=%d, stale-while-revalidate=%d",
		int(c.SMaxAge/time.Second), int(c.StaleWhileRevalidate/time.Second),
	)
}
