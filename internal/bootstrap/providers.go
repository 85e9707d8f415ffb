package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	chclient "flowradar/internal/adapters/clickhouse"
	"flowradar/internal/adapters/config"
	errnoop "flowradar/internal/adapters/errors/noop"
	"flowradar/internal/adapters/errors/sentry"
	kafkaadapter "flowradar/internal/adapters/kafka"
	pgclient "flowradar/internal/adapters/postgres"
	redisclient "flowradar/internal/adapters/redis"
	"flowradar/internal/adapters/websocket"
	"flowradar/internal/api/health"
	"flowradar/internal/consumers"
	"flowradar/internal/dispatch"
	"flowradar/internal/domain/flow"
	"flowradar/internal/engine"
	"flowradar/internal/metrics"
	chrepo "flowradar/internal/repository/clickhouse"
	pgrepo "flowradar/internal/repository/postgres"
	"flowradar/internal/workers"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Version is stamped by the build
var Version = "dev"

// ========================================
// Phase 1: Configuration & Logging
// ========================================

// MustInitConfig loads configuration and initializes logger
func (c *Container) MustInitConfig() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	c.Config = cfg

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}

	c.Log = logger.Get()
	c.Log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	c.ErrorTracker = provideErrorTracker(cfg, c.Log)
	logger.SetErrorTracker(c.ErrorTracker)
}

// provideErrorTracker initializes error tracking (Sentry or no-op)
func provideErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return errnoop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return errnoop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// ========================================
// Phase 2: Infrastructure Layer
// ========================================

// MustInitInfrastructure connects the enabled data stores
func (c *Container) MustInitInfrastructure() {
	var err error

	if c.Config.ClickHouse.Enabled {
		c.Log.Info("Connecting to ClickHouse...")
		c.CH, err = chclient.NewClient(c.Config.ClickHouse)
		if err != nil {
			c.Log.Fatalf("failed to connect clickhouse: %v", err)
		}
		c.Log.Info("✓ ClickHouse connected")
	}

	if c.Config.Postgres.Enabled {
		c.Log.Info("Connecting to PostgreSQL...")
		c.PG, err = pgclient.NewClient(c.Config.Postgres)
		if err != nil {
			c.Log.Fatalf("failed to connect postgres: %v", err)
		}
		c.Log.Info("✓ PostgreSQL connected")
	}

	if c.Config.Redis.Enabled {
		c.Log.Info("Connecting to Redis...")
		c.Redis, err = redisclient.NewClient(c.Config.Redis)
		if err != nil {
			c.Log.Fatalf("failed to connect redis: %v", err)
		}
		c.Log.Info("✓ Redis connected")
	}
}

// ========================================
// Phase 3: Persistence sinks
// ========================================

// MustInitRepositories initializes the persistence sinks backed by
// connected stores
func (c *Container) MustInitRepositories() {
	if c.CH != nil {
		c.FlowRepo = chrepo.NewFlowRepository(c.CH.Conn())
	}
	if c.PG != nil {
		c.AlertRepo = pgrepo.NewAlertRepository(c.PG.DB())
	}
}

// ========================================
// Phase 4: Engine
// ========================================

// MustInitEngine assembles the detection engine
func (c *Container) MustInitEngine() {
	c.Registry = prometheus.NewRegistry()
	c.Metrics = metrics.New(c.Registry)

	deps := engine.Deps{Metrics: c.Metrics}
	if c.FlowRepo != nil {
		deps.TradeSink = c.FlowRepo
		deps.PatternSink = c.FlowRepo
		deps.PositionSink = c.FlowRepo
	}
	if c.AlertRepo != nil {
		deps.AlertSink = c.AlertRepo
	}

	c.Engine = engine.New(engineConfig(c.Config), deps)
	c.Log.Infow("✓ Engine assembled", "shards", c.Config.Engine.Shards)
}

// engineConfig maps environment settings onto the engine defaults
func engineConfig(cfg *config.Config) engine.Config {
	ec := engine.DefaultConfig()

	ec.Shards = cfg.Engine.Shards
	ec.SqueezeCooldown = cfg.Engine.SqueezeCooldown

	ec.Sweep.Window = cfg.Detectors.SweepWindow
	ec.Sweep.MinLegs = cfg.Detectors.SweepMinLegs
	ec.Sweep.MinExchanges = cfg.Detectors.SweepMinExchanges

	ec.Block.MinContracts = cfg.Detectors.BlockMinContracts
	ec.Block.MinPremium = cfg.Detectors.BlockMinPremium
	ec.Block.SizeMultiple = cfg.Detectors.BlockSizeMultiple

	ec.DarkPool.Venues = cfg.Detectors.DarkPoolVenues
	ec.DarkPool.MinDelay = cfg.Detectors.DarkPoolMinDelay
	ec.DarkPool.MinContracts = cfg.Detectors.DarkPoolMinContracts

	ec.FlowAnalyzer.Window = cfg.Detectors.FlowWindow
	ec.FlowAnalyzer.InstitutionalFloor = cfg.Detectors.FlowInstitutionalFloor
	ec.FlowAnalyzer.Cooldown = cfg.Detectors.FlowCooldown

	ec.Alerts.TTL = cfg.Alerts.TTL

	ec.Dispatch.QueueSize = cfg.Dispatch.QueueSize
	ec.Dispatch.Workers = cfg.Dispatch.Workers
	ec.Dispatch.MinSeverity = flow.Severity(cfg.Dispatch.MinSeverity)

	return ec
}

// ========================================
// Phase 5: Delivery channels
// ========================================

// MustInitChannels registers the configured outbound delivery channels
func (c *Container) MustInitChannels() {
	dispatcher := c.Engine.Dispatcher()

	for i, url := range c.Config.Dispatch.WebhookURLs {
		dispatcher.Register(dispatch.NewWebhookChannel(dispatch.WebhookConfig{
			Name:          fmt.Sprintf("webhook_%d", i+1),
			URL:           url,
			RatePerSecond: c.Config.Dispatch.WebhookRate,
		}))
	}

	if c.Config.Telegram.Enabled {
		tg, err := dispatch.NewTelegramChannel(c.Config.Telegram.BotToken, c.Config.Telegram.ChatID)
		if err != nil {
			c.Log.Fatalf("failed to init telegram channel: %v", err)
		}
		dispatcher.Register(tg)
		c.Log.Info("✓ Telegram channel registered")
	}

	if c.Config.Kafka.Enabled {
		c.KafkaProducer = kafkaadapter.NewProducer(kafkaadapter.ProducerConfig{
			Brokers: c.Config.Kafka.Brokers,
		})
		dispatcher.Register(dispatch.NewKafkaChannel(
			c.KafkaProducer.Writer(c.Config.Dispatch.KafkaTopic),
		))
		c.Log.Info("✓ Kafka channel registered")
	}

	if c.Redis != nil {
		dispatcher.Register(dispatch.NewRedisChannel(
			c.Redis.Client(), c.Config.Dispatch.RedisTopic,
		))
		c.Log.Info("✓ Redis channel registered")
	}

	c.Log.Infow("Delivery channels ready", "channels", dispatcher.Channels())
}

// ========================================
// Phase 6: Ingestion
// ========================================

// MustInitIngestion wires the trade sources onto the engine
func (c *Container) MustInitIngestion() {
	if c.Config.Kafka.Enabled {
		consumer := kafkaadapter.NewConsumer(kafkaadapter.ConsumerConfig{
			Brokers: c.Config.Kafka.Brokers,
			GroupID: c.Config.Kafka.GroupID,
			Topic:   c.Config.Kafka.TradeTopic,
		})
		c.TradeConsumer = consumers.NewTradeConsumer(consumer, c.Engine)
	}

	if c.Config.Feed.Enabled {
		c.Feed = websocket.NewFeedClient(c.Config.Feed, func(ctx context.Context, trade *flow.Trade) error {
			_, err := c.Engine.ProcessTrade(ctx, trade)
			if errors.Is(err, errors.ErrInvalidTrade) {
				return nil
			}
			return err
		})
	}
}

// ========================================
// Phase 7: Background workers
// ========================================

// MustInitWorkers registers the housekeeping workers
func (c *Container) MustInitWorkers() {
	c.Scheduler = workers.NewScheduler()

	c.Scheduler.RegisterWorker(workers.NewAlertJanitorWorker(
		c.Engine.Alerts(), c.Config.Workers.AlertJanitorInterval,
	))
	c.Scheduler.RegisterWorker(workers.NewPositionSnapshotWorker(
		c.Engine, c.Config.Workers.SnapshotSymbols, c.Config.Workers.PositionSnapshotInterval,
	))
}

// ========================================
// Phase 8: HTTP surface
// ========================================

// MustInitHTTP assembles the health and metrics endpoints
func (c *Container) MustInitHTTP() {
	c.Health = health.New(c.Config.App.Name, Version)

	if c.CH != nil {
		c.Health.Register("clickhouse", c.CH.Health)
	}
	if c.PG != nil {
		c.Health.Register("postgres", c.PG.Health)
	}
	if c.Redis != nil {
		c.Health.Register("redis", c.Redis.Health)
	}
	if c.Feed != nil {
		c.Health.Register("feed", func(ctx context.Context) error {
			if !c.Feed.Healthy() {
				return errors.ErrFeedDisconnected
			}
			return nil
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.Health.HandleHealth)
	mux.HandleFunc("/ready", c.Health.HandleReadiness)
	mux.HandleFunc("/live", c.Health.HandleLiveness)
	mux.Handle("/metrics", promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"service":%q,"version":%q,"status":"running"}`, c.Config.App.Name, Version)
	})

	c.HTTPServer = &http.Server{
		Addr:         c.Config.App.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	c.Log.Infof("HTTP server configured on %s", c.Config.App.HTTPAddr)
}
