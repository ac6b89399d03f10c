package config

// EnvPrefix is empty because every field tag already carries the ORDERS_ prefix.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	NotifierDriverLog      = "log"
	NotifierDriverPubSub   = "pubsub"
	NotifierDriverRabbitMQ = "rabbitmq"
	NotifierDriverKafka    = "kafka"
)

const (
	EnvAppEnv   = "ORDERS_APP_ENV"
	EnvAppPort  = "ORDERS_APP_PORT"
	EnvLogLevel = "ORDERS_LOG_LEVEL"

	EnvDBDSN  = "ORDERS_DB_DSN"
	EnvDBHost = "ORDERS_DB_HOST"
	EnvDBUser = "ORDERS_DB_USER"
	EnvDBName = "ORDERS_DB_NAME"

	EnvRedisURL = "ORDERS_REDIS_URL"

	EnvJWTSecret = "ORDERS_JWT_SECRET"
	EnvJWTIssuer = "ORDERS_JWT_ISSUER"

	EnvCartLockTTL  = "ORDERS_CART_LOCK_TTL"
	EnvCartLockWait = "ORDERS_CART_LOCK_WAIT"

	EnvNotifierDriver = "ORDERS_NOTIFIER_DRIVER"

	EnvGCPProjectID            = "ORDERS_GCP_PROJECT_ID"
	EnvPubSubNotificationTopic = "ORDERS_PUBSUB_NOTIFICATION_TOPIC"
	EnvPubSubOrdersTopic       = "ORDERS_PUBSUB_ORDERS_TOPIC"

	EnvRabbitMQURL  = "ORDERS_RABBITMQ_URL"
	EnvKafkaBrokers = "ORDERS_KAFKA_BROKERS"

	EnvOutboxBatchSize = "ORDERS_OUTBOX_PUBLISH_BATCH_SIZE"
)

var dsnPartEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
