package config

// EnvPrefix is handed to envconfig; every field carries an explicit key so it only matters for defaults.
const EnvPrefix = "NOTIFY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "NOTIFY_APP_ENV"
	EnvAppHost      = "NOTIFY_APP_HOST"
	EnvDBDSN        = "NOTIFY_DB_DSN"
	EnvDBHost       = "NOTIFY_DB_HOST"
	EnvDBUser       = "NOTIFY_DB_USER"
	EnvDBName       = "NOTIFY_DB_NAME"
	EnvJWTSecret    = "NOTIFY_JWT_SECRET"
	EnvJWTIssuer    = "NOTIFY_JWT_ISSUER"
	EnvMailWorkers  = "NOTIFY_MAIL_WORKERS"
	EnvPubSubMail   = "NOTIFY_PUBSUB_MAIL_TOPIC"
	EnvPubSubEvents = "NOTIFY_PUBSUB_EVENTS_SUBSCRIPTION"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
