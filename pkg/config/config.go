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
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Mail         MailConfig
	Dispatch     DispatchConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.App.validateHost(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NOTIFY_APP_ENV" required:"true"`
	Port         string `envconfig:"NOTIFY_APP_PORT" default:"8080"`
	Host         string `envconfig:"NOTIFY_APP_HOST" required:"true"`
	LogLevel     string `envconfig:"NOTIFY_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"NOTIFY_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"NOTIFY_LOG_WARN_STACK" default:"false"`

	CORSAllowedOrigins []string `envconfig:"NOTIFY_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BaseURL returns the public host without a trailing slash.
func (a AppConfig) BaseURL() string {
	return strings.TrimRight(strings.TrimSpace(a.Host), "/")
}

// Domain returns the hostname portion of the public host, used for mail message ids.
func (a AppConfig) Domain() string {
	u, err := url.Parse(a.BaseURL())
	if err != nil || u.Hostname() == "" {
		return "localhost"
	}
	return u.Hostname()
}

func (a AppConfig) validateHost() error {
	u, err := url.Parse(a.BaseURL())
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAppHost, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) url, got %q", EnvAppHost, a.Host)
	}
	return nil
}

type ServiceConfig struct {
	Kind string `envconfig:"NOTIFY_SERVICE_KIND" default:"api"`
	// MetricsAddr is where cmd/worker serves /metrics; empty disables the listener.
	MetricsAddr string `envconfig:"NOTIFY_WORKER_METRICS_ADDR" default:":9090"`
}

type DBConfig struct {
	DSN    string `envconfig:"NOTIFY_DB_DSN"`
	Driver string `envconfig:"NOTIFY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"NOTIFY_DB_HOST"`
	Port     int    `envconfig:"NOTIFY_DB_PORT" default:"5432"`
	User     string `envconfig:"NOTIFY_DB_USER"`
	Password string `envconfig:"NOTIFY_DB_PASSWORD"`
	Name     string `envconfig:"NOTIFY_DB_NAME"`
	SSLMode  string `envconfig:"NOTIFY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NOTIFY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NOTIFY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NOTIFY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NOTIFY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NOTIFY_REDIS_URL"`
	Address      string        `envconfig:"NOTIFY_REDIS_ADDR"`
	Password     string        `envconfig:"NOTIFY_REDIS_PASSWORD"`
	DB           int           `envconfig:"NOTIFY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NOTIFY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NOTIFY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NOTIFY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NOTIFY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NOTIFY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret string `envconfig:"NOTIFY_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"NOTIFY_JWT_ISSUER" required:"true"`

	// ExpirationMinutes only applies to tokens minted by this service (cmd/api -mint-service-token).
	ExpirationMinutes int `envconfig:"NOTIFY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NOTIFY_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"NOTIFY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"NOTIFY_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	EventsSubscription string `envconfig:"NOTIFY_PUBSUB_EVENTS_SUBSCRIPTION"`
	MailTopic          string `envconfig:"NOTIFY_PUBSUB_MAIL_TOPIC"`
}

type MailConfig struct {
	FromAddress string `envconfig:"NOTIFY_MAIL_FROM" default:"no-reply@localhost"`
	FromName    string `envconfig:"NOTIFY_MAIL_FROM_NAME" default:"BlueDoc"`
}

type DispatchConfig struct {
	MailWorkers   int           `envconfig:"NOTIFY_MAIL_WORKERS" default:"4"`
	MailQueueSize int           `envconfig:"NOTIFY_MAIL_QUEUE_SIZE" default:"256"`
	MailTimeout   time.Duration `envconfig:"NOTIFY_MAIL_TIMEOUT" default:"10s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
