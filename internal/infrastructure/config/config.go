package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Stripe    StripeConfig
	Shipping  ShippingConfig
	POS       POSConfig
	Sweeper   SweeperConfig
	Telemetry TelemetryConfig
	Profiling ProfilingConfig
	Metrics   MetricsConfig
	Storage   StorageConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name      string
	Env       string
	Port      string
	ClientURL string // storefront base URL used for checkout redirects
	SeedDemo  bool   // create the demo product on startup
}

// IsProduction reports whether the app runs in production
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	Path            string // sqlite file path
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AutoMigrate     bool
}

// RedisConfig holds Redis connection settings.
// Redis is optional: without it the server falls back to in-memory stores.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                 string
	RefreshSecret          string
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration
	Issuer                 string
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodySize       int64
	RateLimitEnabled  bool
	RateLimitRPS      float64
	RateLimitBurst    int
	CORSAllowOrigins  []string
	CORSAllowMethods  []string
	CORSAllowHeaders  []string
	TrustedProxies    []string
	WebhookMaxPayload int64
}

// StripeConfig holds the payment provider settings
type StripeConfig struct {
	SecretKey       string
	PublishableKey  string
	WebhookSecret   string
	Currency        string
	SessionTTL      time.Duration // checkout session lifetime (Stripe allows 30m to 24h)
	APIMaxRetries   int64
	IdempotencyTTL  time.Duration // how long processed webhook events are remembered
	AllowUnsigned   bool          // accept webhooks without a signature (non-production only)
	ShippingLabel   string
	PaymentMethods  []string
	MetadataMaxSize int
}

// IsTestMode reports whether a test secret key is configured
func (s StripeConfig) IsTestMode() bool {
	return strings.HasPrefix(s.SecretKey, "sk_test_") || strings.HasPrefix(s.SecretKey, "rk_test_")
}

// ShippingConfig holds the delivery rates
type ShippingConfig struct {
	FreeThreshold   string
	LocalRate       string
	StandardRate    string
	LocalCityMarker string
	LocalZipPrefix  string
	TotalTolerance  string
}

// POSConfig holds point-of-sale settings
type POSConfig struct {
	APIKey string // optional shared key expected in X-POS-Key
}

// SweeperConfig controls expiry of abandoned checkouts
type SweeperConfig struct {
	Enabled    bool
	Interval   time.Duration
	PendingTTL time.Duration
	BatchSize  int
	LockTTL    time.Duration
	// RetryDelay is how long an order the sweeper could not settle is
	// left alone before the next attempt
	RetryDelay time.Duration
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	ServiceName       string
	Insecure          bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	DBSlowQueryThresh time.Duration
	ExportMetrics     bool // push business metrics over OTLP
	ExportLogs        bool // mirror zap logs over OTLP
}

// ProfilingConfig holds Pyroscope continuous profiling settings
type ProfilingConfig struct {
	Enabled           bool
	ServerAddress     string
	BasicAuthUser     string
	BasicAuthPassword string
	SpanProfiles      bool // label CPU samples with the active span id
	MutexProfileRate  int
	BlockProfileRate  int
}

// StorageConfig holds the S3-compatible bucket used for product images
type StorageConfig struct {
	Enabled       bool
	Endpoint      string // empty means AWS itself
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	UsePathStyle  bool   // required by MinIO and most self-hosted stores
	PublicBaseURL string // prefix of the URLs stored on products
	MaxImageSize  int64
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled   bool
	Path      string
	Namespace string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with AQUAPET_ prefix (e.g., AQUAPET_STRIPE_SECRET_KEY)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("AQUAPET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:      v.GetString("app.name"),
			Env:       v.GetString("app.env"),
			Port:      v.GetString("app.port"),
			ClientURL: v.GetString("app.client_url"),
			SeedDemo:  v.GetBool("app.seed_demo"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("database.driver"),
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			Path:            v.GetString("database.path"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			AutoMigrate:     v.GetBool("database.auto_migrate"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                 v.GetString("jwt.secret"),
			RefreshSecret:          v.GetString("jwt.refresh_secret"),
			AccessTokenExpiration:  v.GetDuration("jwt.access_token_expiration"),
			RefreshTokenExpiration: v.GetDuration("jwt.refresh_token_expiration"),
			Issuer:                 v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRPS:      v.GetFloat64("http.rate_limit_rps"),
			RateLimitBurst:    v.GetInt("http.rate_limit_burst"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
			WebhookMaxPayload: v.GetInt64("http.webhook_max_payload"),
		},
		Stripe: StripeConfig{
			SecretKey:       v.GetString("stripe.secret_key"),
			PublishableKey:  v.GetString("stripe.publishable_key"),
			WebhookSecret:   v.GetString("stripe.webhook_secret"),
			Currency:        v.GetString("stripe.currency"),
			SessionTTL:      v.GetDuration("stripe.session_ttl"),
			APIMaxRetries:   v.GetInt64("stripe.api_max_retries"),
			IdempotencyTTL:  v.GetDuration("stripe.idempotency_ttl"),
			AllowUnsigned:   v.GetBool("stripe.allow_unsigned"),
			ShippingLabel:   v.GetString("stripe.shipping_label"),
			PaymentMethods:  v.GetStringSlice("stripe.payment_methods"),
			MetadataMaxSize: v.GetInt("stripe.metadata_max_size"),
		},
		Shipping: ShippingConfig{
			FreeThreshold:   v.GetString("shipping.free_threshold"),
			LocalRate:       v.GetString("shipping.local_rate"),
			StandardRate:    v.GetString("shipping.standard_rate"),
			LocalCityMarker: v.GetString("shipping.local_city_marker"),
			LocalZipPrefix:  v.GetString("shipping.local_zip_prefix"),
			TotalTolerance:  v.GetString("shipping.total_tolerance"),
		},
		POS: POSConfig{
			APIKey: v.GetString("pos.api_key"),
		},
		Sweeper: SweeperConfig{
			Enabled:    v.GetBool("sweeper.enabled"),
			Interval:   v.GetDuration("sweeper.interval"),
			PendingTTL: v.GetDuration("sweeper.pending_ttl"),
			BatchSize:  v.GetInt("sweeper.batch_size"),
			LockTTL:    v.GetDuration("sweeper.lock_ttl"),
			RetryDelay: v.GetDuration("sweeper.retry_delay"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			ExportMetrics:     v.GetBool("telemetry.export_metrics"),
			ExportLogs:        v.GetBool("telemetry.export_logs"),
		},
		Profiling: ProfilingConfig{
			Enabled:           v.GetBool("profiling.enabled"),
			ServerAddress:     v.GetString("profiling.server_address"),
			BasicAuthUser:     v.GetString("profiling.basic_auth_user"),
			BasicAuthPassword: v.GetString("profiling.basic_auth_password"),
			SpanProfiles:      v.GetBool("profiling.span_profiles"),
			MutexProfileRate:  v.GetInt("profiling.mutex_profile_rate"),
			BlockProfileRate:  v.GetInt("profiling.block_profile_rate"),
		},
		Metrics: MetricsConfig{
			Enabled:   v.GetBool("metrics.enabled"),
			Path:      v.GetString("metrics.path"),
			Namespace: v.GetString("metrics.namespace"),
		},
		Storage: StorageConfig{
			Enabled:       v.GetBool("storage.enabled"),
			Endpoint:      v.GetString("storage.endpoint"),
			Region:        v.GetString("storage.region"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			MaxImageSize:  v.GetInt64("storage.max_image_size"),
		},
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
		cfg.App.Name = "aquapet-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.App.ClientURL == "" {
		cfg.App.ClientURL = "http://localhost:5173"
	}
	cfg.App.ClientURL = strings.TrimRight(cfg.App.ClientURL, "/")

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
		cfg.Database.DBName = "aquapet"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "aquapet.db"
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

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 2 * time.Hour
	}
	if cfg.JWT.RefreshTokenExpiration == 0 {
		cfg.JWT.RefreshTokenExpiration = 30 * 24 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "aquapet-backend"
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
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = 10
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 30
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-POS-Key"}
	}
	if cfg.HTTP.WebhookMaxPayload == 0 {
		cfg.HTTP.WebhookMaxPayload = 65536
	}

	if cfg.Stripe.Currency == "" {
		cfg.Stripe.Currency = "eur"
	}
	cfg.Stripe.Currency = strings.ToLower(cfg.Stripe.Currency)
	if cfg.Stripe.SessionTTL == 0 {
		cfg.Stripe.SessionTTL = 24 * time.Hour
	}
	if cfg.Stripe.APIMaxRetries == 0 {
		cfg.Stripe.APIMaxRetries = 2
	}
	if cfg.Stripe.IdempotencyTTL == 0 {
		cfg.Stripe.IdempotencyTTL = 72 * time.Hour
	}
	if cfg.Stripe.ShippingLabel == "" {
		cfg.Stripe.ShippingLabel = "Spedizione"
	}
	if len(cfg.Stripe.PaymentMethods) == 0 {
		cfg.Stripe.PaymentMethods = []string{"card"}
	}
	if cfg.Stripe.MetadataMaxSize == 0 {
		cfg.Stripe.MetadataMaxSize = 500
	}

	if cfg.Shipping.FreeThreshold == "" {
		cfg.Shipping.FreeThreshold = "99"
	}
	if cfg.Shipping.LocalRate == "" {
		cfg.Shipping.LocalRate = "4.99"
	}
	if cfg.Shipping.StandardRate == "" {
		cfg.Shipping.StandardRate = "9.90"
	}
	if cfg.Shipping.LocalCityMarker == "" {
		cfg.Shipping.LocalCityMarker = "teramo"
	}
	if cfg.Shipping.LocalZipPrefix == "" {
		cfg.Shipping.LocalZipPrefix = "64"
	}
	if cfg.Shipping.TotalTolerance == "" {
		cfg.Shipping.TotalTolerance = "0.01"
	}

	if cfg.Sweeper.Interval == 0 {
		cfg.Sweeper.Interval = 15 * time.Minute
	}
	if cfg.Sweeper.PendingTTL == 0 {
		cfg.Sweeper.PendingTTL = 24 * time.Hour
	}
	if cfg.Sweeper.BatchSize == 0 {
		cfg.Sweeper.BatchSize = 50
	}
	if cfg.Sweeper.LockTTL == 0 {
		cfg.Sweeper.LockTTL = 5 * time.Minute
	}
	if cfg.Sweeper.RetryDelay == 0 {
		cfg.Sweeper.RetryDelay = time.Hour
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}

	if cfg.Profiling.MutexProfileRate == 0 {
		cfg.Profiling.MutexProfileRate = 5
	}
	if cfg.Profiling.BlockProfileRate == 0 {
		cfg.Profiling.BlockProfileRate = 5
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxImageSize == 0 {
		cfg.Storage.MaxImageSize = 5 << 20
	}
	cfg.Storage.PublicBaseURL = strings.TrimRight(cfg.Storage.PublicBaseURL, "/")

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = "aquapet"
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

	if _, err := url.ParseRequestURI(c.App.ClientURL); err != nil {
		return fmt.Errorf("app.client_url is not a valid URL: %w", err)
	}

	if c.Stripe.SessionTTL < 30*time.Minute || c.Stripe.SessionTTL > 24*time.Hour {
		return fmt.Errorf("stripe.session_ttl must be between 30m and 24h, got %s", c.Stripe.SessionTTL)
	}
	if c.Stripe.SecretKey != "" &&
		!strings.HasPrefix(c.Stripe.SecretKey, "sk_") && !strings.HasPrefix(c.Stripe.SecretKey, "rk_") {
		return fmt.Errorf("stripe.secret_key must start with sk_ or rk_")
	}
	if c.Stripe.WebhookSecret != "" && !strings.HasPrefix(c.Stripe.WebhookSecret, "whsec_") {
		return fmt.Errorf("stripe.webhook_secret must start with whsec_")
	}

	for key, amount := range map[string]string{
		"shipping.free_threshold":  c.Shipping.FreeThreshold,
		"shipping.local_rate":      c.Shipping.LocalRate,
		"shipping.standard_rate":   c.Shipping.StandardRate,
		"shipping.total_tolerance": c.Shipping.TotalTolerance,
	} {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return fmt.Errorf("%s must be a decimal amount, got %q", key, amount)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s cannot be negative", key)
		}
	}

	if c.App.IsProduction() {
		if c.JWT.Secret == "" {
			return fmt.Errorf("jwt.secret is required in production")
		}
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			return fmt.Errorf("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Stripe.SecretKey == "" {
			return fmt.Errorf("stripe.secret_key is required in production")
		}
		if c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe.webhook_secret is required in production")
		}
		if c.Stripe.AllowUnsigned {
			return fmt.Errorf("stripe.allow_unsigned cannot be enabled in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.Storage.Enabled {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when storage is enabled")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when storage is enabled")
		}
		if c.Storage.MaxImageSize < 0 {
			return fmt.Errorf("storage.max_image_size cannot be negative")
		}
	}

	if c.Profiling.Enabled && c.Profiling.ServerAddress == "" {
		return fmt.Errorf("profiling.server_address is required when profiling is enabled")
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
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
