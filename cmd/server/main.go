package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/launchpad-api/internal/api"
	"github.com/rxtech-lab/launchpad-api/internal/config"
	"github.com/rxtech-lab/launchpad-api/internal/database"
	"github.com/rxtech-lab/launchpad-api/internal/server"
	"go.uber.org/zap"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var devLogging = flag.Bool("dev", false, "Use human-readable development logging")
	flag.Parse()

	if *showVersion {
		log.Printf("Launchpad API\nVersion: %s\nCommit: %s\n", Version, CommitHash)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger, err := newLogger(*devLogging)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	svcs, err := server.InitializeServices(cfg, db.DB, logger)
	if err != nil {
		logger.Fatal("failed to initialize services", zap.Error(err))
	}

	// Background drain loop for queued deployments
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svcs.Queue.Start(ctx)

	apiServer := api.NewAPIServer(cfg, svcs.Validation, svcs.Network, svcs.Pipeline, svcs.Queue, svcs.Transaction, logger)
	if err := apiServer.Start(); err != nil {
		logger.Fatal("failed to start API server", zap.Error(err))
	}
	logger.Info("API server started", zap.Int("port", apiServer.GetPort()), zap.String("network", cfg.Network))

	// Set up graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	logger.Info("shutting down")
	svcs.Queue.Stop()
	if err := apiServer.Shutdown(); err != nil {
		logger.Error("error shutting down API server", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
