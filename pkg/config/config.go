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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Notifier     NotifierConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	RabbitMQ     RabbitMQConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	Metrics      MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Notifier.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERS_APP_ENV" required:"true"`
	Port         string `envconfig:"ORDERS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"ORDERS_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"ORDERS_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"ORDERS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"ORDERS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	return splitCSV(a.CORSOrigins)
}

type DBConfig struct {
	DSN    string `envconfig:"ORDERS_DB_DSN"`
	Driver string `envconfig:"ORDERS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ORDERS_DB_HOST"`
	Port     int    `envconfig:"ORDERS_DB_PORT" default:"5432"`
	User     string `envconfig:"ORDERS_DB_USER"`
	Password string `envconfig:"ORDERS_DB_PASSWORD"`
	Name     string `envconfig:"ORDERS_DB_NAME"`
	SSLMode  string `envconfig:"ORDERS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ORDERS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ORDERS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERS_REDIS_URL"`
	Address      string        `envconfig:"ORDERS_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"ORDERS_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERS_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"ORDERS_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// JWTConfig describes how access tokens issued by the identity provider are verified.
type JWTConfig struct {
	Secret            string `envconfig:"ORDERS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ORDERS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ORDERS_JWT_EXPIRATION_MINUTES" default:"60"`
	RequireSession    bool   `envconfig:"ORDERS_JWT_REQUIRE_SESSION" default:"true"`
}

func (j JWTConfig) Expiration() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERS_AUTO_MIGRATE" default:"false"`
}

// CartConfig tunes the per-user cart lock.
type CartConfig struct {
	LockTTL       time.Duration `envconfig:"ORDERS_CART_LOCK_TTL" default:"10s"`
	LockWait      time.Duration `envconfig:"ORDERS_CART_LOCK_WAIT" default:"2s"`
	LockRetryStep time.Duration `envconfig:"ORDERS_CART_LOCK_RETRY" default:"50ms"`
}

type NotifierConfig struct {
	Driver         string        `envconfig:"ORDERS_NOTIFIER_DRIVER" default:"log"`
	Timeout        time.Duration `envconfig:"ORDERS_NOTIFIER_TIMEOUT" default:"10s"`
	IdempotencyTTL time.Duration `envconfig:"ORDERS_NOTIFIER_IDEMPOTENCY_TTL" default:"720h"`
	SenderEmail    string        `envconfig:"ORDERS_NOTIFIER_SENDER_EMAIL" default:"orders@example.com"`
}

func (n NotifierConfig) validate(cfg Config) error {
	switch strings.ToLower(n.Driver) {
	case NotifierDriverLog:
		return nil
	case NotifierDriverPubSub:
		if cfg.GCP.ProjectID == "" || cfg.PubSub.NotificationTopic == "" {
			return fmt.Errorf("%s and %s are required for the pubsub notifier", EnvGCPProjectID, EnvPubSubNotificationTopic)
		}
	case NotifierDriverRabbitMQ:
		if cfg.RabbitMQ.URL == "" {
			return fmt.Errorf("%s is required for the rabbitmq notifier", EnvRabbitMQURL)
		}
	case NotifierDriverKafka:
		if len(cfg.Kafka.BrokerList()) == 0 {
			return fmt.Errorf("%s is required for the kafka notifier", EnvKafkaBrokers)
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvNotifierDriver, n.Driver)
	}
	return nil
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ORDERS_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"ORDERS_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic string `envconfig:"ORDERS_PUBSUB_NOTIFICATION_TOPIC" default:"orders-notifications"`
	OrdersTopic       string `envconfig:"ORDERS_PUBSUB_ORDERS_TOPIC" default:"orders-events"`
}

type RabbitMQConfig struct {
	URL        string `envconfig:"ORDERS_RABBITMQ_URL"`
	Exchange   string `envconfig:"ORDERS_RABBITMQ_EXCHANGE" default:"orders.notifications"`
	RoutingKey string `envconfig:"ORDERS_RABBITMQ_ROUTING_PREFIX" default:"notify"`
}

type KafkaConfig struct {
	Brokers string `envconfig:"ORDERS_KAFKA_BROKERS"`
	Topic   string `envconfig:"ORDERS_KAFKA_NOTIFICATION_TOPIC" default:"orders.notifications"`
}

func (k KafkaConfig) BrokerList() []string {
	return splitCSV(k.Brokers)
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ORDERS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ORDERS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ORDERS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"ORDERS_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"ORDERS_METRICS_PATH" default:"/metrics"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	missing := []string{}
	for _, env := range dsnPartEnvVars {
		if parts[env] == "" {
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

func splitCSV(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
