package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"flowradar/pkg/errors"
)

type Config struct {
	App           AppConfig
	Engine        EngineConfig
	Detectors     DetectorConfig
	Alerts        AlertConfig
	Dispatch      DispatchConfig
	ClickHouse    ClickHouseConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Feed          FeedConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"flowradar"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
}

type EngineConfig struct {
	Shards          int           `envconfig:"ENGINE_SHARDS" default:"8"`
	SqueezeCooldown time.Duration `envconfig:"ENGINE_SQUEEZE_COOLDOWN" default:"15m"`
}

type DetectorConfig struct {
	SweepWindow       time.Duration `envconfig:"DETECTOR_SWEEP_WINDOW" default:"2s"`
	SweepMinLegs      int           `envconfig:"DETECTOR_SWEEP_MIN_LEGS" default:"4"`
	SweepMinExchanges int           `envconfig:"DETECTOR_SWEEP_MIN_EXCHANGES" default:"2"`

	BlockMinContracts int     `envconfig:"DETECTOR_BLOCK_MIN_CONTRACTS" default:"100"`
	BlockMinPremium   float64 `envconfig:"DETECTOR_BLOCK_MIN_PREMIUM" default:"100000"`
	BlockSizeMultiple float64 `envconfig:"DETECTOR_BLOCK_SIZE_MULTIPLE" default:"10"`

	DarkPoolVenues       []string      `envconfig:"DETECTOR_DARKPOOL_VENUES" default:"DARK,ADF,TRF,OTC"`
	DarkPoolMinDelay     time.Duration `envconfig:"DETECTOR_DARKPOOL_MIN_DELAY" default:"30s"`
	DarkPoolMinContracts int           `envconfig:"DETECTOR_DARKPOOL_MIN_CONTRACTS" default:"50"`

	FlowWindow             time.Duration `envconfig:"DETECTOR_FLOW_WINDOW" default:"15m"`
	FlowInstitutionalFloor float64       `envconfig:"DETECTOR_FLOW_INSTITUTIONAL_FLOOR" default:"250000"`
	FlowCooldown           time.Duration `envconfig:"DETECTOR_FLOW_COOLDOWN" default:"1m"`
}

type AlertConfig struct {
	TTL time.Duration `envconfig:"ALERT_TTL" default:"24h"`
}

type DispatchConfig struct {
	QueueSize   int      `envconfig:"DISPATCH_QUEUE_SIZE" default:"1024"`
	Workers     int      `envconfig:"DISPATCH_WORKERS" default:"4"`
	MinSeverity string   `envconfig:"DISPATCH_MIN_SEVERITY"`
	WebhookURLs []string `envconfig:"DISPATCH_WEBHOOK_URLS"`
	WebhookRate float64  `envconfig:"DISPATCH_WEBHOOK_RATE" default:"5"`
	RedisTopic  string   `envconfig:"DISPATCH_REDIS_TOPIC" default:"flowradar.alerts"`
	KafkaTopic  string   `envconfig:"DISPATCH_KAFKA_TOPIC" default:"flowradar.alerts"`
}

type ClickHouseConfig struct {
	Enabled  bool   `envconfig:"CLICKHOUSE_ENABLED" default:"false"`
	Host     string `envconfig:"CLICKHOUSE_HOST" default:"localhost"`
	Port     int    `envconfig:"CLICKHOUSE_PORT" default:"9000"`
	User     string `envconfig:"CLICKHOUSE_USER" default:"default"`
	Password string `envconfig:"CLICKHOUSE_PASSWORD"`
	Database string `envconfig:"CLICKHOUSE_DB" default:"flowradar"`
}

type PostgresConfig struct {
	Enabled  bool   `envconfig:"POSTGRES_ENABLED" default:"false"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"flowradar"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Database string `envconfig:"POSTGRES_DB" default:"flowradar"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled    bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers    []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID    string   `envconfig:"KAFKA_GROUP_ID" default:"flowradar"`
	TradeTopic string   `envconfig:"KAFKA_TRADE_TOPIC" default:"options.trades"`
}

type FeedConfig struct {
	Enabled bool          `envconfig:"FEED_ENABLED" default:"false"`
	URL     string        `envconfig:"FEED_WS_URL"`
	Symbols []string      `envconfig:"FEED_SYMBOLS"`
	Timeout time.Duration `envconfig:"FEED_TIMEOUT" default:"30s"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig holds background housekeeping intervals
type WorkerConfig struct {
	AlertJanitorInterval     time.Duration `envconfig:"WORKER_ALERT_JANITOR_INTERVAL" default:"5m"`
	PositionSnapshotInterval time.Duration `envconfig:"WORKER_POSITION_SNAPSHOT_INTERVAL" default:"1m"`
	// SnapshotSymbols are underlyings whose dealer positioning is
	// persisted every snapshot interval
	SnapshotSymbols []string `envconfig:"WORKER_SNAPSHOT_SYMBOLS"`
}

// Load reads configuration from the environment, first applying any
// local .env file
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}
	return &cfg, nil
}
