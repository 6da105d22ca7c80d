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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/q-up/queue-backend/internal/config"
	"github.com/q-up/queue-backend/internal/database"
	"github.com/q-up/queue-backend/internal/handlers"
	"github.com/q-up/queue-backend/internal/middleware"
	"github.com/q-up/queue-backend/internal/queue"
	"github.com/q-up/queue-backend/internal/search"
	"github.com/q-up/queue-backend/internal/services"
	"github.com/q-up/queue-backend/pkg/jwt"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
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

	logger.Info("Starting Q'Up Queue Backend")
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

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Redis for staff presence
	logger.Info("Connecting to Redis...")
	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	logger.Info("Redis connection established")

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	indexer := &search.LogIndexer{Logger: logger}
	businessRepository := database.NewBusinessRepository(db.DB, indexer, cfg.Queue.TxMaxRetries)
	userRepository := database.NewUserRepository(db.DB)
	boothRepository := database.NewBoothRepository(db.DB)
	slotFactory := queue.NewSlotFactory(cfg.Queue.SlotPasswordLength)

	presenceService := services.NewPresenceService(redisClient, cfg.Queue.PresenceTTL)
	auditService := services.NewAuditService(db, cfg.Security.EnableAuditLog, logger)
	queueService := services.NewQueueService(businessRepository, userRepository, slotFactory, presenceService, logger)
	favoritesService := services.NewFavoritesService(businessRepository, userRepository, presenceService, logger)
	boothService := services.NewBoothService(boothRepository, businessRepository, slotFactory, cfg.Security.BcryptCost, logger)
	logger.Info("Services initialized")

	// Initialize handlers
	queueHandler := handlers.NewQueueHandler(queueService, auditService, logger)
	staffHandler := handlers.NewStaffHandler(presenceService, logger)
	favoritesHandler := handlers.NewFavoritesHandler(favoritesService, logger)
	boothHandler := handlers.NewBoothHandler(boothService, auditService, logger)

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

	// Health check and metrics endpoints
	router.GET("/health", healthCheckHandler(db, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Booth kiosk entry authenticates with booth credentials, not a JWT
		v1.POST("/booths/enter", boothHandler.Enter)

		// Queue routes (protected)
		queueRoutes := v1.Group("/queue")
		queueRoutes.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			queueRoutes.GET("", queueHandler.StaffQueue)
			queueRoutes.GET("/slot", queueHandler.CustomerSlot)
			queueRoutes.POST("/enter", queueHandler.Enter)
			queueRoutes.PUT("/abandon", queueHandler.Abandon)
			queueRoutes.POST("/vip", queueHandler.VIPInsert)
			queueRoutes.PUT("/status", queueHandler.ToggleStatus)
			queueRoutes.POST("/checkin", queueHandler.CheckIn)
		}

		// Staff presence routes (protected)
		staff := v1.Group("/staff")
		staff.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			staff.PUT("/presence", staffHandler.UpdatePresence)
			staff.GET("/online", staffHandler.OnlineStaff)
		}

		// Favourite business routes (protected)
		favourites := v1.Group("/favourites")
		favourites.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			favourites.GET("", favoritesHandler.List)
			favourites.PUT("/toggle", favoritesHandler.Toggle)
		}

		// Booth management (protected, manager only)
		booths := v1.Group("/booths")
		booths.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			booths.POST("", boothHandler.Create)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
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

		entry := logger.WithFields(fields)

		if len(c.Errors) > 0 {
			for i, err := range c.Errors {
				entry = entry.WithField(fmt.Sprintf("error_%d", i), err.Error())
			}
			entry.Error("Request failed with errors")
		} else {
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
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		if err := db.Ping(); err != nil {
			dbStatus = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": dbStatus,
				"error":    err.Error(),
			})
			return
		}

		redisStatus := "healthy"
		if err := database.RedisHealthCheck(redisClient); err != nil {
			redisStatus = "unhealthy"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  dbStatus,
			"redis":     redisStatus,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
