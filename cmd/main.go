package main

import (
	"os"
	"os/signal"
	"syscall"

	"flowradar/internal/bootstrap"
	"flowradar/pkg/logger"
)

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()
	defer logger.Sync()

	log := container.Log

	if err := container.Start(); err != nil {
		log.Fatalf("Startup failed: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until a termination signal arrives or a fatal
// component failure cancels the application context
func waitForShutdown(container *bootstrap.Container) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		container.Log.Infow("Shutdown signal received", "signal", sig.String())
	case <-container.Context.Done():
		container.Log.Warn("Application context cancelled, shutting down")
	}

	container.Shutdown()
}
