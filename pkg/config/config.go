package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address         string        `yaml:"address"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Auth struct {
		JWTSecret      string   `yaml:"jwt_secret"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"auth"`

	Signing struct {
		BindingSecret      string        `yaml:"binding_secret"`
		VideoPrivateKey    string        `yaml:"video_private_key_path"`
		TTLFloor           time.Duration `yaml:"ttl_floor"`
		TTLCeiling         time.Duration `yaml:"ttl_ceiling"`
		TTLDefault         time.Duration `yaml:"ttl_default"`
		RefreshBuffer      time.Duration `yaml:"refresh_buffer"`
		RevalidateInterval time.Duration `yaml:"revalidate_interval"`
	} `yaml:"signing"`

	Storage struct {
		Endpoint  string        `yaml:"endpoint"`
		Region    string        `yaml:"region"`
		Bucket    string        `yaml:"bucket"`
		AccessKey string        `yaml:"access_key"`
		SecretKey string        `yaml:"secret_key"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"storage"`

	StreamCDN struct {
		TokenEndpoint string        `yaml:"token_endpoint"`
		APIKey        string        `yaml:"api_key"`
		Timeout       time.Duration `yaml:"timeout"`
	} `yaml:"stream_cdn"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		PoolSize int    `yaml:"pool_size"`
	} `yaml:"redis"`

	Notify struct {
		Enabled      bool          `yaml:"enabled"`
		PingInterval time.Duration `yaml:"ping_interval"`
		PongTimeout  time.Duration `yaml:"pong_timeout"`
	} `yaml:"notify"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Tracing struct {
		Enabled     bool    `yaml:"enabled"`
		ServiceName string  `yaml:"service_name"`
		JaegerURL   string  `yaml:"jaeger_url"`
		SampleRate  float64 `yaml:"sample_rate"`
	} `yaml:"tracing"`

	RateLimiting struct {
		Enabled bool `yaml:"enabled"`

		HTTP struct {
			RequestsPerSecond float64 `yaml:"requests_per_second"`
			Burst             int     `yaml:"burst"`
			MaxConcurrent     int     `yaml:"max_concurrent"`
		} `yaml:"http"`
	} `yaml:"rate_limiting"`
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	// Server
	if c.Server.Address == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be > 0")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be > 0")
	}

	// Auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}

	// Signing
	if c.Signing.BindingSecret == "" {
		return fmt.Errorf("signing.binding_secret must not be empty")
	}
	if c.Signing.TTLFloor <= 0 {
		return fmt.Errorf("signing.ttl_floor must be > 0")
	}
	if c.Signing.TTLCeiling < c.Signing.TTLFloor {
		return fmt.Errorf("signing.ttl_ceiling must be >= ttl_floor")
	}
	if c.Signing.TTLDefault < c.Signing.TTLFloor || c.Signing.TTLDefault > c.Signing.TTLCeiling {
		return fmt.Errorf("signing.ttl_default must be within [ttl_floor, ttl_ceiling]")
	}
	if c.Signing.RefreshBuffer <= 0 || c.Signing.RefreshBuffer >= c.Signing.TTLFloor {
		return fmt.Errorf("signing.refresh_buffer must be > 0 and < ttl_floor")
	}
	if c.Signing.RevalidateInterval <= 0 {
		return fmt.Errorf("signing.revalidate_interval must be > 0")
	}

	// Storage
	if c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket must not be empty")
	}
	if c.Storage.Timeout <= 0 {
		return fmt.Errorf("storage.timeout must be > 0")
	}

	// Stream CDN: either a local video key or a provider token endpoint
	// must be configured, otherwise video issuance has no signer.
	if c.Signing.VideoPrivateKey == "" && c.StreamCDN.TokenEndpoint == "" {
		return fmt.Errorf("either signing.video_private_key_path or stream_cdn.token_endpoint must be set")
	}
	if c.StreamCDN.TokenEndpoint != "" && c.StreamCDN.Timeout <= 0 {
		return fmt.Errorf("stream_cdn.timeout must be > 0 when token_endpoint is set")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Address == "" {
			return fmt.Errorf("redis.address must not be empty when redis.enabled=true")
		}
		if c.Redis.PoolSize <= 0 {
			return fmt.Errorf("redis.pool_size must be > 0 when redis.enabled=true")
		}
	}

	// Notify
	if c.Notify.Enabled {
		if c.Notify.PingInterval <= 0 {
			return fmt.Errorf("notify.ping_interval must be > 0 when notify.enabled=true")
		}
		if c.Notify.PongTimeout <= 0 {
			return fmt.Errorf("notify.pong_timeout must be > 0 when notify.enabled=true")
		}
	}

	// Monitoring
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort <= 0 {
		return fmt.Errorf("monitoring.prometheus_port must be > 0 when prometheus_enabled=true")
	}

	// Logging
	if c.Logging.Level == "" {
		return fmt.Errorf("logging.level must not be empty")
	}

	// Rate limiting
	if c.RateLimiting.Enabled {
		if c.RateLimiting.HTTP.RequestsPerSecond <= 0 {
			return fmt.Errorf("rate_limiting.http.requests_per_second must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.Burst <= 0 {
			return fmt.Errorf("rate_limiting.http.burst must be > 0 when rate limiting is enabled")
		}
		if c.RateLimiting.HTTP.MaxConcurrent < 0 {
			return fmt.Errorf("rate_limiting.http.max_concurrent must be >= 0 when rate limiting is enabled")
		}
	}

	return nil
}

// Load reads configuration from YAML file, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	// If file does not exist, fall back to defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultConfig returns configuration with sane defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8080"
	cfg.Server.ReadTimeout = 30 * time.Second
	cfg.Server.WriteTimeout = 30 * time.Second
	cfg.Server.ShutdownTimeout = 30 * time.Second

	cfg.Auth.JWTSecret = "change-me-in-production"
	cfg.Auth.AllowedOrigins = []string{"*"}

	cfg.Signing.BindingSecret = "change-me-in-production"
	cfg.Signing.TTLFloor = 15 * time.Minute
	cfg.Signing.TTLCeiling = 60 * time.Minute
	cfg.Signing.TTLDefault = 30 * time.Minute
	cfg.Signing.RefreshBuffer = 60 * time.Second
	cfg.Signing.RevalidateInterval = 45 * time.Second

	cfg.Storage.Region = "us-east-1"
	cfg.Storage.Bucket = "media"
	cfg.Storage.Timeout = 5 * time.Second

	cfg.StreamCDN.TokenEndpoint = "http://localhost:9000/tokens"
	cfg.StreamCDN.Timeout = 5 * time.Second

	cfg.Redis.Enabled = false
	cfg.Redis.Address = "localhost:6379"
	cfg.Redis.DB = 0
	cfg.Redis.PoolSize = 10

	cfg.Notify.Enabled = true
	cfg.Notify.PingInterval = 30 * time.Second
	cfg.Notify.PongTimeout = 60 * time.Second

	cfg.Monitoring.PrometheusEnabled = true
	cfg.Monitoring.PrometheusPort = 9090

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	cfg.Tracing.Enabled = false
	cfg.Tracing.ServiceName = "mediagate"
	cfg.Tracing.JaegerURL = "http://localhost:14268/api/traces"
	cfg.Tracing.SampleRate = 1.0

	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 50
	cfg.RateLimiting.HTTP.Burst = 100
	cfg.RateLimiting.HTTP.MaxConcurrent = 0

	return cfg
}

func (c *Config) applyEnvOverrides() {
	// Apply environment variable overrides
	if addr := os.Getenv("MEDIAGATE_SERVER_ADDRESS"); addr != "" {
		c.Server.Address = addr
	}
	if level := os.Getenv("MEDIAGATE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if secret := os.Getenv("MEDIAGATE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if secret := os.Getenv("MEDIAGATE_BINDING_SECRET"); secret != "" {
		c.Signing.BindingSecret = secret
	}
	if key := os.Getenv("MEDIAGATE_STORAGE_ACCESS_KEY"); key != "" {
		c.Storage.AccessKey = key
	}
	if key := os.Getenv("MEDIAGATE_STORAGE_SECRET_KEY"); key != "" {
		c.Storage.SecretKey = key
	}
	if key := os.Getenv("MEDIAGATE_CDN_API_KEY"); key != "" {
		c.StreamCDN.APIKey = key
	}
}
