package api

import (
	"fmt"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rxtech-lab/launchpad-api/internal/config"
	"github.com/rxtech-lab/launchpad-api/internal/services"
	"go.uber.org/zap"
)

type APIServer struct {
	app        *fiber.App
	cfg        *config.Config
	validation services.ValidationService
	network    services.NetworkService
	pipeline   services.PipelineService
	queue      services.QueueService
	txService  services.TransactionService
	logger     *zap.Logger
	port       int
}

func NewAPIServer(cfg *config.Config, validation services.ValidationService, network services.NetworkService, pipeline services.PipelineService, queue services.QueueService, txService services.TransactionService, logger *zap.Logger) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             12 << 20, // request cap above the 10 MiB image bound
	})

	// Add middleware
	app.Use(corsMiddleware(cfg.AllowedOrigins))
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:        app,
		cfg:        cfg,
		validation: validation,
		network:    network,
		pipeline:   pipeline,
		queue:      queue,
		txService:  txService,
		logger:     logger.Named("api"),
	}
	server.setupRoutes()
	return server
}

// corsMiddleware echoes Access-Control-Allow-Origin only for configured
// origins. "*" applies only when explicitly configured; an empty allow-list
// means no cross-origin access at all.
func corsMiddleware(allowedOrigins []string) fiber.Handler {
	for _, origin := range allowedOrigins {
		if origin == "*" {
			return cors.New(cors.Config{
				AllowOrigins: "*",
				AllowMethods: "GET,POST,OPTIONS",
			})
		}
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return allowed[origin]
		},
		AllowMethods: "GET,POST,OPTIONS",
	})
}

func (s *APIServer) setupRoutes() {
	// Token deployment; OPTIONS preflight is answered by the CORS
	// middleware with 204, unregistered methods get 405.
	s.app.Post("/api/deploy", s.handleDeploy)
	s.app.Get("/api/deploy/status/:job_id", s.handleDeployStatus)

	// Token index lookups
	s.app.Get("/api/tokens/:address", s.handleTokenLookup)

	// Prometheus metrics
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Start starts the server on the configured port
func (s *APIServer) Start() error {
	listener, err := net.Listen("tcp", ":"+s.cfg.Port)
	if err != nil {
		return fmt.Errorf("failed to listen on port %s: %w", s.cfg.Port, err)
	}
	s.port = listener.Addr().(*net.TCPAddr).Port

	go func() {
		if err := s.app.Listener(listener); err != nil {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	return nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// App exposes the fiber app for in-process testing.
func (s *APIServer) App() *fiber.App {
	return s.app
}
