package bootstrap

import (
	"context"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	chclient "flowradar/internal/adapters/clickhouse"
	"flowradar/internal/adapters/config"
	kafkaadapter "flowradar/internal/adapters/kafka"
	pgclient "flowradar/internal/adapters/postgres"
	redisclient "flowradar/internal/adapters/redis"
	"flowradar/internal/adapters/websocket"
	"flowradar/internal/api/health"
	"flowradar/internal/consumers"
	"flowradar/internal/engine"
	"flowradar/internal/metrics"
	chrepo "flowradar/internal/repository/clickhouse"
	pgrepo "flowradar/internal/repository/postgres"
	"flowradar/internal/workers"
	"flowradar/pkg/errors"
	"flowradar/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	// Core configuration & logging
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure Layer (all optional, gated by config)
	CH    *chclient.Client
	PG    *pgclient.Client
	Redis *redisclient.Client

	// Persistence sinks
	FlowRepo  *chrepo.FlowRepository
	AlertRepo *pgrepo.AlertRepository

	// Observability
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics

	// Core pipeline
	Engine *engine.Engine

	// Ingestion
	KafkaProducer *kafkaadapter.Producer
	TradeConsumer *consumers.TradeConsumer
	Feed          *websocket.FeedClient

	// Application layer
	Health     *health.Handler
	HTTPServer *http.Server

	// Background processing
	Scheduler *workers.Scheduler

	// Lifecycle management
	Lifecycle *Lifecycle
	WG        *sync.WaitGroup
	Context   context.Context
	Cancel    context.CancelFunc
}

// NewContainer creates a new dependency container
func NewContainer() *Container {
	ctx, cancel := context.WithCancel(context.Background())

	return &Container{
		Lifecycle: NewLifecycle(),
		WG:        &sync.WaitGroup{},
		Context:   ctx,
		Cancel:    cancel,
	}
}

// MustInit initializes all components in the correct order.
// Panics on any initialization error (fail-fast at startup).
func (c *Container) MustInit() {
	c.MustInitConfig()
	c.MustInitInfrastructure()
	c.MustInitRepositories()
	c.MustInitEngine()
	c.MustInitChannels()
	c.MustInitIngestion()
	c.MustInitWorkers()
	c.MustInitHTTP()
}

// Start starts all background components
func (c *Container) Start() error {
	c.Log.Info("Starting all systems...")

	if c.FlowRepo != nil {
		c.FlowRepo.Start(c.Context)
	}

	c.Engine.Start(c.Context)

	if err := c.Scheduler.Start(c.Context); err != nil {
		return errors.Wrap(err, "failed to start workers")
	}

	if c.TradeConsumer != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := c.TradeConsumer.Start(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Errorw("trade consumer failed", "error", err)
			}
		}()
		c.Log.Info("✓ Trade consumer started")
	}

	if c.Feed != nil {
		c.WG.Add(1)
		go func() {
			defer c.WG.Done()
			if err := c.Feed.Run(c.Context); err != nil && c.Context.Err() == nil {
				c.Log.Errorw("feed client failed", "error", err)
				c.Cancel()
			}
		}()
		c.Log.Info("✓ Feed client started")
	}

	c.WG.Add(1)
	go func() {
		defer c.WG.Done()
		if err := c.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.Log.Errorf("HTTP server failed: %v", err)
			c.Cancel()
		}
	}()

	c.Log.Info("✓ All systems operational")
	return nil
}

// Shutdown performs graceful shutdown in the correct order
func (c *Container) Shutdown() {
	c.Log.Info("Initiating graceful shutdown...")

	c.Cancel()

	c.Lifecycle.Shutdown(c)
}
