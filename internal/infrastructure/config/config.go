package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Scheduler SchedulerConfig
	Sources   SourcesConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string

	// RequestTimeout bounds non-run requests; 0 disables it
	RequestTimeout       time.Duration
	RateLimitEnabled     bool
	RateLimitRequests    int
	RateLimitWindow      time.Duration
	// RunRateLimit* bound how often one client may start enrichment runs
	RunRateLimitRequests int
	RunRateLimitWindow   time.Duration
}

// SchedulerConfig holds the enrichment cron configuration
type SchedulerConfig struct {
	Enabled         bool
	NewProductsCron string
	UpdateCron      string
	JobTimeout      time.Duration
}

// SourcesConfig holds external lookup service settings
type SourcesConfig struct {
	BarcodeLookup BarcodeLookupConfig
	Icecat        IcecatConfig
	Image         ImageConfig
	Retry         RetryConfig
	Cache         LookupCacheConfig
}

// BarcodeLookupConfig holds BarcodeLookup API credentials and limits
type BarcodeLookupConfig struct {
	APIKey    string
	APIURL    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
}

// IcecatConfig holds Icecat API credentials and limits
type IcecatConfig struct {
	Username  string
	Password  string
	APIURL    string
	Timeout   time.Duration
	RateLimit float64 // requests per second, 0 disables
}

// ImageConfig holds image download and resize settings
type ImageConfig struct {
	Timeout      time.Duration
	MaxDimension int
	JPEGQuality  int
	MaxBytes     int64
	MaxPixels    int64
}

// RetryConfig holds the bounded retry around connector calls
type RetryConfig struct {
	MaxAttempts     int // includes the first call; 1 disables retries
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// LookupCacheConfig holds the lookup result cache settings
type LookupCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// StorageConfig holds S3-compatible object storage settings for product images
type StorageConfig struct {
	Enabled           bool
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
	KeyPrefix         string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration
	LogsEnabled       bool // Bridge zap logs to the collector
	// Database tracing options
	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)

	Profiling ProfilingConfig
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string // defaults to the telemetry service name
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []string // e.g. ["cpu", "alloc_space"]
	SpanProfiles      bool     // link CPU profiles to trace spans
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with ENRICH_ prefix (e.g., ENRICH_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			SQLitePath:      v.GetString("database.sqlite_path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),

			RequestTimeout:       v.GetDuration("http.request_timeout"),
			RateLimitEnabled:     v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests:    v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:      v.GetDuration("http.rate_limit_window"),
			RunRateLimitRequests: v.GetInt("http.run_rate_limit_requests"),
			RunRateLimitWindow:   v.GetDuration("http.run_rate_limit_window"),
		},
		Scheduler: SchedulerConfig{
			Enabled:         v.GetBool("scheduler.enabled"),
			NewProductsCron: v.GetString("scheduler.new_products_cron"),
			UpdateCron:      v.GetString("scheduler.update_cron"),
			JobTimeout:      v.GetDuration("scheduler.job_timeout"),
		},
		Sources: SourcesConfig{
			BarcodeLookup: BarcodeLookupConfig{
				APIKey:    v.GetString("sources.barcodelookup.api_key"),
				APIURL:    v.GetString("sources.barcodelookup.api_url"),
				Timeout:   v.GetDuration("sources.barcodelookup.timeout"),
				RateLimit: v.GetFloat64("sources.barcodelookup.rate_limit"),
			},
			Icecat: IcecatConfig{
				Username:  v.GetString("sources.icecat.username"),
				Password:  v.GetString("sources.icecat.password"),
				APIURL:    v.GetString("sources.icecat.api_url"),
				Timeout:   v.GetDuration("sources.icecat.timeout"),
				RateLimit: v.GetFloat64("sources.icecat.rate_limit"),
			},
			Image: ImageConfig{
				Timeout:      v.GetDuration("sources.image.timeout"),
				MaxDimension: v.GetInt("sources.image.max_dimension"),
				JPEGQuality:  v.GetInt("sources.image.jpeg_quality"),
				MaxBytes:     v.GetInt64("sources.image.max_bytes"),
				MaxPixels:    v.GetInt64("sources.image.max_pixels"),
			},
			Retry: RetryConfig{
				MaxAttempts:     v.GetInt("sources.retry.max_attempts"),
				InitialInterval: v.GetDuration("sources.retry.initial_interval"),
				MaxInterval:     v.GetDuration("sources.retry.max_interval"),
			},
			Cache: LookupCacheConfig{
				Enabled: v.GetBool("sources.cache.enabled"),
				TTL:     v.GetDuration("sources.cache.ttl"),
			},
		},
		Storage: StorageConfig{
			Enabled:           v.GetBool("storage.enabled"),
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
			KeyPrefix:         v.GetString("storage.key_prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			Profiling: ProfilingConfig{
				Enabled:           v.GetBool("telemetry.profiling.enabled"),
				ServerAddress:     v.GetString("telemetry.profiling.server_address"),
				ApplicationName:   v.GetString("telemetry.profiling.application_name"),
				BasicAuthUser:     v.GetString("telemetry.profiling.basic_auth_user"),
				BasicAuthPassword: v.GetString("telemetry.profiling.basic_auth_password"),
				ProfileTypes:      v.GetStringSlice("telemetry.profiling.profile_types"),
				SpanProfiles:      v.GetBool("telemetry.profiling.span_profiles"),
			},
		},
	}

	// scheduler.enabled defaults to true, so presence is checked instead of the zero value
	if !v.IsSet("scheduler.enabled") {
		cfg.Scheduler.Enabled = true
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "enrichment-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "enrichment"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "enrichment.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// manual runs are synchronous, so writes get a long deadline
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if cfg.HTTP.RunRateLimitRequests == 0 {
		cfg.HTTP.RunRateLimitRequests = 5
	}
	if cfg.HTTP.RunRateLimitWindow == 0 {
		cfg.HTTP.RunRateLimitWindow = time.Minute
	}
	if cfg.Scheduler.NewProductsCron == "" {
		cfg.Scheduler.NewProductsCron = "@every 1h"
	}
	if cfg.Scheduler.UpdateCron == "" {
		cfg.Scheduler.UpdateCron = "0 2 * * *"
	}
	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 2 * time.Hour
	}

	if cfg.Sources.BarcodeLookup.APIURL == "" {
		cfg.Sources.BarcodeLookup.APIURL = "https://api.barcodelookup.com/v3/products"
	}
	if cfg.Sources.BarcodeLookup.Timeout == 0 {
		cfg.Sources.BarcodeLookup.Timeout = 30 * time.Second
	}
	if cfg.Sources.BarcodeLookup.RateLimit == 0 {
		cfg.Sources.BarcodeLookup.RateLimit = 1
	}
	if cfg.Sources.Icecat.APIURL == "" {
		cfg.Sources.Icecat.APIURL = "https://live.icecat.biz/api"
	}
	if cfg.Sources.Icecat.Timeout == 0 {
		cfg.Sources.Icecat.Timeout = 30 * time.Second
	}
	if cfg.Sources.Icecat.RateLimit == 0 {
		cfg.Sources.Icecat.RateLimit = 2
	}
	if cfg.Sources.Image.Timeout == 0 {
		cfg.Sources.Image.Timeout = 15 * time.Second
	}
	if cfg.Sources.Image.MaxDimension == 0 {
		cfg.Sources.Image.MaxDimension = 2000
	}
	if cfg.Sources.Image.JPEGQuality == 0 {
		cfg.Sources.Image.JPEGQuality = 85
	}
	if cfg.Sources.Image.MaxBytes == 0 {
		cfg.Sources.Image.MaxBytes = 25 << 20 // 25MB
	}
	if cfg.Sources.Image.MaxPixels == 0 {
		cfg.Sources.Image.MaxPixels = 50_000_000
	}
	if cfg.Sources.Retry.MaxAttempts == 0 {
		cfg.Sources.Retry.MaxAttempts = 1
	}
	if cfg.Sources.Retry.InitialInterval == 0 {
		cfg.Sources.Retry.InitialInterval = 500 * time.Millisecond
	}
	if cfg.Sources.Retry.MaxInterval == 0 {
		cfg.Sources.Retry.MaxInterval = 5 * time.Second
	}
	if cfg.Sources.Cache.TTL == 0 {
		cfg.Sources.Cache.TTL = 24 * time.Hour
	}

	if cfg.Storage.Endpoint == "" {
		cfg.Storage.Endpoint = "http://localhost:9000"
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.Bucket == "" {
		cfg.Storage.Bucket = "product-images"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Storage.KeyPrefix == "" {
		cfg.Storage.KeyPrefix = "products"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "enrichment-backend"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.Profiling.ServerAddress == "" {
		cfg.Telemetry.Profiling.ServerAddress = "http://localhost:4040"
	}
	if cfg.Telemetry.Profiling.ApplicationName == "" {
		cfg.Telemetry.Profiling.ApplicationName = cfg.Telemetry.ServiceName
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Sources.Retry.MaxAttempts < 1 {
		return fmt.Errorf("sources.retry.max_attempts must be at least 1")
	}
	if c.Sources.Image.JPEGQuality < 1 || c.Sources.Image.JPEGQuality > 100 {
		return fmt.Errorf("sources.image.jpeg_quality must be between 1 and 100, got %d", c.Sources.Image.JPEGQuality)
	}

	if c.App.Env == "production" {
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// IsProduction reports whether the app runs in the production environment
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}
