package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App             AppConfig
	Listen          ListenConfig
	DB              DBConfig
	Redis           RedisConfig
	SentOrders      SentOrdersConfig
	DeliveredOrders DeliveredOrdersConfig
	Report          ReportConfig
	S3              S3Config
	Loaders         LoadersConfig
	Outcall         OutcallConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STQ_ORDERS_APP_ENV" default:"development"`
	ServiceName  string `envconfig:"STQ_ORDERS_SERVICE_NAME" default:"stq-orders"`
	LogLevel     string `envconfig:"STQ_ORDERS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STQ_ORDERS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ListenConfig struct {
	Host string `envconfig:"STQ_ORDERS_LISTEN_HOST" default:"0.0.0.0"`
	Port int    `envconfig:"STQ_ORDERS_LISTEN_PORT" default:"8000"`
}

// Addr returns the host:port pair the HTTP server binds.
func (l ListenConfig) Addr() string {
	return fmt.Sprintf("%s:%d", l.Host, l.Port)
}

type DBConfig struct {
	DSN string `envconfig:"STQ_ORDERS_DB_DSN"`

	LegacyHost     string `envconfig:"STQ_ORDERS_DB_HOST"`
	LegacyPort     int    `envconfig:"STQ_ORDERS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STQ_ORDERS_DB_USER"`
	LegacyPassword string `envconfig:"STQ_ORDERS_DB_PASSWORD"`
	LegacyName     string `envconfig:"STQ_ORDERS_DB_NAME"`
	LegacySSLMode  string `envconfig:"STQ_ORDERS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STQ_ORDERS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STQ_ORDERS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STQ_ORDERS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STQ_ORDERS_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	AutoMigrate bool `envconfig:"STQ_ORDERS_DB_AUTO_MIGRATE" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STQ_ORDERS_REDIS_URL"`
	PoolSize     int           `envconfig:"STQ_ORDERS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STQ_ORDERS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STQ_ORDERS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STQ_ORDERS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STQ_ORDERS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint is configured at all.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type SentOrdersConfig struct {
	IntervalS              int    `envconfig:"STQ_ORDERS_SENT_ORDERS_INTERVAL_S" default:"3600"`
	SentStateDurationDays  int    `envconfig:"STQ_ORDERS_SENT_ORDERS_SENT_STATE_DURATION_DAYS" default:"7"`
	UPSAPIURL              string `envconfig:"STQ_ORDERS_SENT_ORDERS_UPS_API_URL"`
	UPSAPIAccessLicenseNum string `envconfig:"STQ_ORDERS_SENT_ORDERS_UPS_API_ACCESS_LICENSE_NUMBER"`
}

// Interval returns the tick interval for the shipping tracker loader.
func (s SentOrdersConfig) Interval() time.Duration {
	return time.Duration(s.IntervalS) * time.Second
}

// SentStateDuration returns the minimum age an order must sit in the sent
// state before the tracker polls the carrier for it.
func (s SentOrdersConfig) SentStateDuration() time.Duration {
	return time.Duration(s.SentStateDurationDays) * 24 * time.Hour
}

type DeliveredOrdersConfig struct {
	IntervalS                 int    `envconfig:"STQ_ORDERS_DELIVERED_ORDERS_INTERVAL_S" default:"3600"`
	DeliveryStateDurationDays int    `envconfig:"STQ_ORDERS_DELIVERED_ORDERS_DELIVERY_STATE_DURATION_DAYS" default:"14"`
	SagaURL                   string `envconfig:"STQ_ORDERS_DELIVERED_ORDERS_SAGA_URL"`
}

// Interval returns the tick interval for the delivery completion loader.
func (d DeliveredOrdersConfig) Interval() time.Duration {
	return time.Duration(d.IntervalS) * time.Second
}

// DeliveryStateDuration returns how long an order may stay delivered before
// the saga is notified.
func (d DeliveredOrdersConfig) DeliveryStateDuration() time.Duration {
	return time.Duration(d.DeliveryStateDurationDays) * 24 * time.Hour
}

type ReportConfig struct {
	IntervalS int `envconfig:"STQ_ORDERS_PAID_DELIVERED_REPORT_INTERVAL_S" default:"3600"`
}

// Interval returns the tick interval for the report loader.
func (r ReportConfig) Interval() time.Duration {
	return time.Duration(r.IntervalS) * time.Second
}

type S3Config struct {
	Region string `envconfig:"STQ_ORDERS_S3_REGION"`
	Bucket string `envconfig:"STQ_ORDERS_S3_BUCKET"`
	ACL    string `envconfig:"STQ_ORDERS_S3_ACL" default:"public-read"`
	Key    string `envconfig:"STQ_ORDERS_S3_KEY"`
	Secret string `envconfig:"STQ_ORDERS_S3_SECRET"`
}

type LoadersConfig struct {
	DBMaxIdleConns int `envconfig:"STQ_ORDERS_LOADERS_DB_MAX_IDLE_CONNS" default:"1"`
	ListenPort     int `envconfig:"STQ_ORDERS_LOADERS_LISTEN_PORT" default:"8001"`
}

type OutcallConfig struct {
	TimeoutS   int `envconfig:"STQ_ORDERS_OUTCALL_TIMEOUT_S" default:"5"`
	MaxRetries int `envconfig:"STQ_ORDERS_OUTCALL_MAX_RETRIES" default:"3"`
}

// Timeout returns the per-request deadline for carrier and saga calls.
func (o OutcallConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutS) * time.Second
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
