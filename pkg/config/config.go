package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Pricing      PricingConfig
	Quotes       QuotesConfig
	Shopify      ShopifyConfig
	Facebook     FacebookConfig
	Sync         SyncConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string   `envconfig:"COGSDESK_APP_ENV" required:"true"`
	Port           string   `envconfig:"COGSDESK_APP_PORT" required:"true"`
	LogLevel       string   `envconfig:"COGSDESK_LOG_LEVEL" default:"info"`
	LogFormat      string   `envconfig:"COGSDESK_LOG_FORMAT" default:"json"`
	LogWarnStack   bool     `envconfig:"COGSDESK_LOG_WARN_STACK" default:"false"`
	AllowedOrigins []string `envconfig:"COGSDESK_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"COGSDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"COGSDESK_DB_DSN"`
	Driver string `envconfig:"COGSDESK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"COGSDESK_DB_HOST"`
	LegacyPort     int    `envconfig:"COGSDESK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"COGSDESK_DB_USER"`
	LegacyPassword string `envconfig:"COGSDESK_DB_PASSWORD"`
	LegacyName     string `envconfig:"COGSDESK_DB_NAME"`
	LegacySSLMode  string `envconfig:"COGSDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"COGSDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"COGSDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"COGSDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"COGSDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"COGSDESK_DB_SLOW_QUERY_THRESHOLD" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"COGSDESK_REDIS_URL"`
	Address      string        `envconfig:"COGSDESK_REDIS_ADDR"`
	Password     string        `envconfig:"COGSDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"COGSDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"COGSDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"COGSDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"COGSDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"COGSDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"COGSDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"COGSDESK_REDIS_KEY_PREFIX" default:"cogs"`
}

type JWTConfig struct {
	Secret            string `envconfig:"COGSDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"COGSDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"COGSDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"COGSDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"COGSDESK_AUTO_MIGRATE" default:"false"`
}

// PricingConfig carries the explicit default selector handed to the quote
// service. The engine itself never fills in a country or carrier.
type PricingConfig struct {
	DefaultCountry   string        `envconfig:"COGSDESK_PRICING_DEFAULT_COUNTRY"`
	DefaultCarrier   string        `envconfig:"COGSDESK_PRICING_DEFAULT_CARRIER"`
	StrictShipping   bool          `envconfig:"COGSDESK_PRICING_STRICT_SHIPPING" default:"false"`
	SnapshotCacheTTL time.Duration `envconfig:"COGSDESK_PRICING_SNAPSHOT_CACHE_TTL" default:"0s"` // 0 disables caching
}

// HasDefaultSelector reports whether both halves of the default selector are set.
func (p PricingConfig) HasDefaultSelector() bool {
	return strings.TrimSpace(p.DefaultCountry) != "" && strings.TrimSpace(p.DefaultCarrier) != ""
}

// MaxSnapshotCacheTTL bounds how long a reader can serve a stale snapshot
// when a writer commits but fails to bump the snapshot version.
const MaxSnapshotCacheTTL = 10 * time.Minute

func (p PricingConfig) validate() error {
	country := strings.TrimSpace(p.DefaultCountry)
	carrier := strings.TrimSpace(p.DefaultCarrier)
	if (country == "") != (carrier == "") {
		return fmt.Errorf("%s and %s must be set together", EnvPricingDefaultCountry, EnvPricingDefaultCarrier)
	}
	if p.SnapshotCacheTTL < 0 || p.SnapshotCacheTTL > MaxSnapshotCacheTTL {
		return fmt.Errorf("%s must be between 0 and %s", EnvPricingSnapshotTTL, MaxSnapshotCacheTTL)
	}
	return nil
}

type QuotesConfig struct {
	BatchWorkers    int           `envconfig:"COGSDESK_QUOTES_BATCH_WORKERS" default:"8"`
	MaxBatchSize    int           `envconfig:"COGSDESK_QUOTES_MAX_BATCH_SIZE" default:"500"`
	RateLimit       int           `envconfig:"COGSDESK_QUOTES_RATE_LIMIT" default:"0"`
	RateLimitWindow time.Duration `envconfig:"COGSDESK_QUOTES_RATE_LIMIT_WINDOW" default:"1m"`
}

// RateLimited reports whether quote endpoints are throttled per tenant.
func (q QuotesConfig) RateLimited() bool {
	return q.RateLimit > 0 && q.RateLimitWindow > 0
}

type ShopifyConfig struct {
	ShopDomain  string `envconfig:"COGSDESK_SHOPIFY_SHOP_DOMAIN"`
	AccessToken string `envconfig:"COGSDESK_SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string `envconfig:"COGSDESK_SHOPIFY_API_VERSION" default:"2024-10"`
	PageSize    int    `envconfig:"COGSDESK_SHOPIFY_PAGE_SIZE" default:"250"`
	TenantID    string `envconfig:"COGSDESK_SHOPIFY_TENANT_ID"`
}

// Enabled reports whether enough Shopify settings exist to run the sync jobs.
func (s ShopifyConfig) Enabled() bool {
	return s.ShopDomain != "" && s.AccessToken != "" && s.TenantID != ""
}

type FacebookConfig struct {
	GraphBaseURL string `envconfig:"COGSDESK_FACEBOOK_GRAPH_BASE_URL" default:"https://graph.facebook.com"`
	APIVersion   string `envconfig:"COGSDESK_FACEBOOK_API_VERSION" default:"v19.0"`
	AdAccountID  string `envconfig:"COGSDESK_FACEBOOK_AD_ACCOUNT_ID"`
	AccessToken  string `envconfig:"COGSDESK_FACEBOOK_ACCESS_TOKEN"`
	TenantID     string `envconfig:"COGSDESK_FACEBOOK_TENANT_ID"`
}

// Enabled reports whether the ad spend sync can run.
func (f FacebookConfig) Enabled() bool {
	return f.AdAccountID != "" && f.AccessToken != "" && f.TenantID != ""
}

type SyncConfig struct {
	Interval     time.Duration `envconfig:"COGSDESK_SYNC_INTERVAL" default:"1h"`
	LookbackDays int           `envconfig:"COGSDESK_SYNC_LOOKBACK_DAYS" default:"7"`
	LockTTL      time.Duration `envconfig:"COGSDESK_SYNC_LOCK_TTL" default:"55m"`
	JobTimeout   time.Duration `envconfig:"COGSDESK_SYNC_JOB_TIMEOUT" default:"20m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = DBDriverSQLite
	}
	if db.DSN != "" {
		return nil
	}
	if useSQLite {
		db.DSN = "file:cogsdesk.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
