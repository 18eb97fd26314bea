package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/parkrow/parkrow-api/docs" // Swagger docs
	"github.com/parkrow/parkrow-api/internal/config"
	"github.com/parkrow/parkrow-api/internal/database"
	"github.com/parkrow/parkrow-api/internal/handlers"
	"github.com/parkrow/parkrow-api/internal/jobs"
	"github.com/parkrow/parkrow-api/internal/middleware"
	"github.com/parkrow/parkrow-api/internal/repository"
	"github.com/parkrow/parkrow-api/internal/services"
	"github.com/parkrow/parkrow-api/internal/storage"
	"github.com/parkrow/parkrow-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Parkrow API
// @version 1.0
// @description REST API for the Parkrow property management platform

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.FromEmail == "" {
		logger.Warn("Resend email disabled: RESEND_API_KEY or FROM_EMAIL not set")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized local storage")

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, store, cfg, db)

	scheduleJobs(worker, svcs)

	h := handlers.NewHandlers(svcs, store)

	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Check)

		// Card processor webhook (authenticated by shared reference, not JWT)
		v1.POST("/payments/webhook", h.Payment.Webhook)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				// Application review (admin only)
				admin.POST("/applications/:id/approve", h.Application.Approve)
				admin.POST("/applications/:id/reject", h.Application.Reject)

				// Lease administration (admin only)
				admin.DELETE("/applications/:id/lease", h.Lease.Remove)
				admin.GET("/applications/:id/lease/verify", h.Lease.Verify)

				// Payment bookkeeping (admin only)
				admin.GET("/payments", h.Payment.Index)
				admin.POST("/payments/checks", h.Payment.RecordCheck)
				admin.POST("/payments/:id/receipt", h.Payment.AttachReceipt)
				admin.GET("/payments/:id/receipt", h.Payment.DownloadReceipt)
				admin.GET("/payments/export", h.Payment.Export)

				// Audit logs (admin only)
				admin.GET("/audit_logs", h.Audit.Index)
				admin.GET("/applications/:id/audit_trail", h.Audit.ApplicationTrail)
			}

			// Applications (tenants see only their own; the handler enforces it)
			applications := protected.Group("/applications")
			{
				applications.GET("", h.Application.Index)
				applications.POST("", h.Application.Create)
				applications.GET("/:id", h.Application.Show)
				applications.PUT("/:id", h.Application.Update)
				applications.POST("/:id/submit", h.Application.Submit)
				applications.POST("/:id/cancel", h.Application.Cancel)

				// Lease (admins and owning tenants; the handler enforces ownership)
				applications.POST("/:id/lease/generate", h.Lease.Generate)
				applications.GET("/:id/lease/preview", h.Lease.Preview)
				applications.POST("/:id/lease/sign", h.Lease.Sign)
				applications.GET("/:id/lease/download", h.Lease.Download)

				// Payments scoped to one application
				applications.GET("/:id/payments", h.Payment.ByApplication)
				applications.GET("/:id/payments/summary", h.Payment.Summary)
				applications.GET("/:id/statement", h.Payment.Statement)
			}

			// Notifications (users manage their own)
			// Static route first so "read_all" is not matched as :id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.POST("/:id/read", h.Notification.MarkAsRead)
				notifications.DELETE("/:id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services) {
	// Nightly lease integrity sweep
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Verifying signed lease integrity...")
		return svcs.Lease.SweepSignedLeases(ctx)
	})

	// Daily move-in balance reminders
	worker.ScheduleEvery(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Sending move-in payment reminders...")
		return svcs.Payment.SendMoveInReminders(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}
