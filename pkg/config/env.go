package config

// EnvPrefix is handed to envconfig; every field carries its full name in the
// struct tag so the prefix only matters for untagged fields.
const EnvPrefix = "COGSDESK"

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "COGSDESK_APP_ENV"
	EnvPort     = "COGSDESK_APP_PORT"
	EnvLogLevel = "COGSDESK_LOG_LEVEL"

	EnvDBDSN  = "COGSDESK_DB_DSN"
	EnvDBHost = "COGSDESK_DB_HOST"
	EnvDBUser = "COGSDESK_DB_USER"
	EnvDBName = "COGSDESK_DB_NAME"

	EnvRedisURL = "COGSDESK_REDIS_URL"

	EnvJWTSecret = "COGSDESK_JWT_SECRET"
	EnvJWTIssuer = "COGSDESK_JWT_ISSUER"

	EnvUseSQLite = "COGSDESK_USE_SQLITE"

	EnvPricingDefaultCountry = "COGSDESK_PRICING_DEFAULT_COUNTRY"
	EnvPricingDefaultCarrier = "COGSDESK_PRICING_DEFAULT_CARRIER"
	EnvPricingStrictShipping = "COGSDESK_PRICING_STRICT_SHIPPING"
	EnvPricingSnapshotTTL    = "COGSDESK_PRICING_SNAPSHOT_CACHE_TTL"

	EnvQuotesBatchWorkers = "COGSDESK_QUOTES_BATCH_WORKERS"

	EnvShopifyShopDomain  = "COGSDESK_SHOPIFY_SHOP_DOMAIN"
	EnvShopifyAccessToken = "COGSDESK_SHOPIFY_ACCESS_TOKEN"
	EnvShopifyTenantID    = "COGSDESK_SHOPIFY_TENANT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
