package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/config"
	"github.com/smarttransit/flight-search-web/internal/database"
	"github.com/smarttransit/flight-search-web/internal/handlers"
	"github.com/smarttransit/flight-search-web/internal/middleware"
	"github.com/smarttransit/flight-search-web/internal/services"
	"github.com/smarttransit/flight-search-web/internal/storage"
	"github.com/smarttransit/flight-search-web/internal/tracing"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
	"github.com/smarttransit/flight-search-web/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting flight search web service")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	ctx := context.Background()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing.OTLPEndpoint, cfg.Tracing.ServiceName, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()

	// Client id registry
	registry, closeRegistry, err := setupRegistry(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize client registry: %v", err)
	}
	defer closeRegistry()
	logger.WithField("backend", cfg.Registry.Backend).Info("Client registry ready")

	// Initialize services
	logger.Info("Initializing services...")
	flightsClient := flightsapi.NewClient(cfg.FlightsAPI.BaseURL, cfg.FlightsAPI.Timeout)
	cookieSigner := jwt.NewService(cfg.Cookie.Secret, 0)

	sessionService := services.NewFormSessionService(func() *services.SearchForm {
		return services.NewSearchForm(flightsClient, flightsClient, nil, logger)
	}, cfg.Session.IdleTTL, cfg.Session.SweepInterval, cfg.Session.MaxPerClient, logger)
	sessionService.Start()
	logger.Info("✓ Search session sweeper started")

	health := handlers.NewHealthHandler(version, sessionService.Count)
	if registry.check != nil {
		health.AddCheck(cfg.Registry.Backend, registry.check)
	}

	searchSessionHandler := handlers.NewSearchSessionHandler(sessionService, cfg.Session.MountWait, logger)

	// Initialize Gin router
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", health.Health)

	v1 := router.Group("/api/v1")
	sessions := v1.Group("/search-sessions")
	sessions.Use(middleware.ClientIdentity(middleware.ClientIdentityConfig{
		Signer: cookieSigner,
		Cookie: storage.CookieOptions{
			Domain: cfg.Cookie.Domain,
			Secure: cfg.Cookie.Secure,
		},
		Registry:   registry.ClientRegistry,
		IPHashSalt: cfg.Registry.IPHashSalt,
		Logger:     logger,
	}))
	searchSessionHandler.RegisterRoutes(sessions)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.FlightsAPI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Closing every form cancels in-flight backend calls
	logger.Info("Stopping search sessions...")
	sessionService.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// clientRegistry pairs the configured registry with its health probe
type clientRegistry struct {
	services.ClientRegistry
	check handlers.HealthCheck
}

// setupRegistry connects the configured client registry backend
func setupRegistry(ctx context.Context, cfg *config.Config) (clientRegistry, func(), error) {
	switch cfg.Registry.Backend {
	case config.RegistryPostgres:
		db, err := database.NewConnection(cfg.Database)
		if err != nil {
			return clientRegistry{}, nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return clientRegistry{}, nil, err
		}
		return clientRegistry{
			ClientRegistry: database.NewClientIdentityRepository(db),
			check:          func(context.Context) error { return db.Ping() },
		}, func() { db.Close() }, nil

	case config.RegistryRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return clientRegistry{}, nil, err
		}
		return clientRegistry{
			ClientRegistry: database.NewRedisClientRegistry(client, cfg.Redis.ClientTTL),
			check:          func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}, func() { client.Close() }, nil

	default:
		return clientRegistry{}, func() {}, nil
	}
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}
		if clientID, ok := middleware.GetClientID(c); ok {
			fields["client_id"] = clientID
		}

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
			return
		}

		status := c.Writer.Status()
		if status >= 500 {
			entry.Error("Request completed with server error")
		} else if status >= 400 {
			entry.Warn("Request completed with client error")
		} else {
			entry.Info("Request completed successfully")
		}
	}
}
