package config

// EnvPrefix namespaces every environment variable this service reads.
const EnvPrefix = "STQ_ORDERS"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv       = "STQ_ORDERS_APP_ENV"
	EnvListenHost   = "STQ_ORDERS_LISTEN_HOST"
	EnvListenPort   = "STQ_ORDERS_LISTEN_PORT"
	EnvLogLevel     = "STQ_ORDERS_LOG_LEVEL"
	EnvLogWarnStack = "STQ_ORDERS_LOG_WARN_STACK"

	EnvDBDSN         = "STQ_ORDERS_DB_DSN"
	EnvDBHost        = "STQ_ORDERS_DB_HOST"
	EnvDBPort        = "STQ_ORDERS_DB_PORT"
	EnvDBUser        = "STQ_ORDERS_DB_USER"
	EnvDBPassword    = "STQ_ORDERS_DB_PASSWORD"
	EnvDBName        = "STQ_ORDERS_DB_NAME"
	EnvDBSSLMode     = "STQ_ORDERS_DB_SSLMODE"
	EnvDBAutoMigrate = "STQ_ORDERS_DB_AUTO_MIGRATE"

	EnvRedisURL = "STQ_ORDERS_REDIS_URL"

	EnvSentOrdersIntervalS  = "STQ_ORDERS_SENT_ORDERS_INTERVAL_S"
	EnvSentStateDurationD   = "STQ_ORDERS_SENT_ORDERS_SENT_STATE_DURATION_DAYS"
	EnvUPSAPIURL            = "STQ_ORDERS_SENT_ORDERS_UPS_API_URL"
	EnvUPSAPILicenseNumber  = "STQ_ORDERS_SENT_ORDERS_UPS_API_ACCESS_LICENSE_NUMBER"
	EnvDeliveredIntervalS   = "STQ_ORDERS_DELIVERED_ORDERS_INTERVAL_S"
	EnvDeliveryStateD       = "STQ_ORDERS_DELIVERED_ORDERS_DELIVERY_STATE_DURATION_DAYS"
	EnvSagaURL              = "STQ_ORDERS_DELIVERED_ORDERS_SAGA_URL"
	EnvReportIntervalS      = "STQ_ORDERS_PAID_DELIVERED_REPORT_INTERVAL_S"
	EnvLoadersDBMaxIdle     = "STQ_ORDERS_LOADERS_DB_MAX_IDLE_CONNS"
	EnvOutcallTimeoutS      = "STQ_ORDERS_OUTCALL_TIMEOUT_S"
	EnvOutcallMaxRetries    = "STQ_ORDERS_OUTCALL_MAX_RETRIES"

	EnvS3Region = "STQ_ORDERS_S3_REGION"
	EnvS3Bucket = "STQ_ORDERS_S3_BUCKET"
	EnvS3ACL    = "STQ_ORDERS_S3_ACL"
	EnvS3Key    = "STQ_ORDERS_S3_KEY"
	EnvS3Secret = "STQ_ORDERS_S3_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
