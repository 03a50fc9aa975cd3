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

	"github.com/maestriajurisp/leads-api/config"
	"github.com/maestriajurisp/leads-api/internal/database/postgres"
	"github.com/maestriajurisp/leads-api/internal/ebook"
	"github.com/maestriajurisp/leads-api/internal/handlers"
	"github.com/maestriajurisp/leads-api/internal/middleware"
	"github.com/maestriajurisp/leads-api/internal/repository"
	"github.com/maestriajurisp/leads-api/internal/services"
	"github.com/maestriajurisp/leads-api/pkg/db"
	"github.com/maestriajurisp/leads-api/pkg/email"
	"github.com/maestriajurisp/leads-api/pkg/httpclient"
	"github.com/maestriajurisp/leads-api/pkg/jwt"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"github.com/maestriajurisp/leads-api/pkg/profiling"
	"github.com/maestriajurisp/leads-api/pkg/recaptcha"
	"github.com/maestriajurisp/leads-api/pkg/storage"
	"github.com/maestriajurisp/leads-api/pkg/tracing"
	"github.com/maestriajurisp/leads-api/pkg/trigger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// registerAPIRoutes registers the versioned lead and e-book routes
func registerAPIRoutes(
	group *gin.RouterGroup,
	generalRateLimiter, submitRateLimiter *middleware.RateLimiter,
	leadHandler *handlers.LeadHandler,
	ebookHandler *handlers.EbookHandler,
) {
	bodyLimit := middleware.BodySizeLimitMiddleware(middleware.DefaultMaxBodySize)

	leads := group.Group("/leads")
	leads.POST("/ebook", submitRateLimiter.Middleware(), bodyLimit, leadHandler.SubmitEbook)
	leads.POST("/contact", submitRateLimiter.Middleware(), bodyLimit, leadHandler.SubmitContact)
	leads.GET("/options", generalRateLimiter.Middleware(), leadHandler.GetOptions)
	leads.POST("/:form/validate", generalRateLimiter.Middleware(), bodyLimit, leadHandler.ValidateField)

	books := group.Group("/ebook")
	books.GET("/preview", generalRateLimiter.Middleware(), ebookHandler.GetPreview)
	books.GET("/download", generalRateLimiter.Middleware(), ebookHandler.Download)
}

// buildNotifiers returns the lead notifiers enabled by configuration
func buildNotifiers(cfg *config.Config, httpClient httpclient.Client) []trigger.Notifier {
	var notifiers []trigger.Notifier

	if cfg.Notifications.LeadWebhookURL != "" {
		notifiers = append(notifiers, trigger.NewWebhookNotifier(cfg.Notifications.LeadWebhookURL, httpClient))
	} else {
		logger.Warn("Lead webhook disabled: LEAD_WEBHOOK_URL not configured")
	}

	if len(cfg.Notifications.SalesInbox) > 0 {
		var sender email.Sender = email.LogSender{}
		if cfg.Notifications.ResendAPIKey != "" {
			sender = email.NewResendSender(cfg.Notifications.ResendAPIKey, cfg.Notifications.EmailFrom, cfg.Notifications.EmailFromName)
		} else {
			logger.Warn("RESEND_API_KEY not configured, lead e-mails are only logged")
		}
		notifiers = append(notifiers, trigger.NewEmailNotifier(sender, cfg.Notifications.SalesInbox))
	}

	return notifiers
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting leads API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(tracing.Config{
		ServiceName:       cfg.Observability.ServiceName,
		ServiceNamespace:  cfg.Observability.ServiceNamespace,
		ServiceVersion:    cfg.Observability.ServiceVersion,
		ServiceInstanceID: cfg.Observability.ServiceInstanceID,
		Environment:       cfg.Server.AppEnv,
		ExporterEndpoint:  cfg.Observability.ExporterEndpoint,
		SampleRatio:       cfg.Observability.TraceSampleRatio,
	})
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.Start(cfg.Profiling, cfg.Observability, cfg.Server.AppEnv)
	if err != nil {
		logger.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer stopProfiler()

	metrics.Init(cfg.Observability.ServiceName)
	metrics.RecordInfrastructureMetrics()

	// Background work stops with this context
	appCtx, stopApp := context.WithCancel(context.Background())
	defer stopApp()

	// Lead storage: PostgreSQL, or in memory for offline development
	var (
		leadSource repository.LeadDataSource
		dbPing     func(context.Context) error
	)
	if cfg.Database.WorkOffline {
		logger.Warn("DB_WORK_OFFLINE is set: leads are kept in memory and lost on restart")
		leadSource = repository.NewInMemoryLeadDataSource()
	} else {
		pool, poolErr := db.NewPool(appCtx, db.PoolConfig{
			URL:        cfg.Database.URL,
			MaxConns:   cfg.Database.MaxConns,
			MinConns:   cfg.Database.MinConns,
			CACertPath: cfg.Database.CACertPath,
		})
		if poolErr != nil {
			logger.Fatal("Failed to initialize database connection pool", zap.Error(poolErr))
		}
		defer db.Close(pool)

		// Migrations run separately via cmd/migrate
		client := postgres.NewClient(pool)
		leadSource = repository.NewPostgresLeadDataSource(client)
		dbPing = client.Ping
	}
	leadRepo := repository.NewLeadRepository(leadSource)

	// Object storage for presigned e-book downloads
	var presigner ebook.Presigner
	if cfg.HasStorage() {
		storageClient, storageErr := storage.NewStorageClient(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			cfg.Storage.BucketName,
			cfg.Storage.Endpoint,
			cfg.Storage.Region,
		)
		if storageErr != nil {
			logger.Fatal("Failed to initialize object storage client", zap.Error(storageErr))
		}
		presigner = storageClient

		checkCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
		exists, existsErr := storageClient.ObjectExists(checkCtx, cfg.Ebook.ObjectKey)
		cancel()
		switch {
		case existsErr != nil:
			logger.Warn("Could not verify e-book object", zap.Error(existsErr))
		case !exists:
			logger.Warn("E-book object not found in bucket",
				zap.String("bucket", storageClient.Bucket()),
				zap.String("key", cfg.Ebook.ObjectKey))
		}
	} else {
		logger.Info("Object storage not configured, serving the public e-book URL")
	}

	// Initialize HTTP client for external API calls
	httpClient := httpclient.NewStandardClient()

	dispatcher := trigger.NewDispatcher(trigger.DefaultOptions(), buildNotifiers(cfg, httpClient)...)
	go func() {
		for failure := range dispatcher.Failures() {
			logger.Error("Lead notification failed",
				zap.String("notifier", failure.Notifier),
				zap.String("lead_id", failure.LeadID),
				zap.Error(failure.Err))
		}
	}()

	tokenManager := jwt.NewDownloadTokenManager(
		cfg.Auth.DownloadTokenSecret,
		cfg.Auth.DownloadTokenIssuer,
		cfg.Auth.DownloadTokenTTLMins,
	)

	// Initialize services
	ebookService := ebook.NewService(ebook.Options{
		Title:        cfg.Ebook.Title,
		BaseURL:      cfg.Server.BaseURL,
		PublicURL:    cfg.Ebook.PublicURL,
		ObjectKey:    cfg.Ebook.ObjectKey,
		PDFJSVersion: cfg.Ebook.PDFJSVersion,
		PreviewPages: cfg.Ebook.PreviewPages,
		URLTTL:       time.Duration(cfg.Ebook.DownloadURLTTLMins) * time.Minute,
	}, tokenManager, leadRepo, presigner)

	captcha := recaptcha.NewVerifier(cfg.ReCAPTCHA.SecretKey, httpClient)
	if !captcha.Enabled() {
		logger.Warn("reCAPTCHA disabled: RECAPTCHA_SECRET_KEY not configured")
	}

	leadService := services.NewLeadService(cfg, leadRepo, captcha, dispatcher, ebookService)

	// Initialize handlers
	leadHandler := handlers.NewLeadHandler(leadService)
	ebookHandler := handlers.NewEbookHandler(ebookService)
	healthHandler := handlers.NewHealthHandler(dbPing)

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName))
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))

	// CORS: only the landing page origins may submit forms
	allowedOrigins := cfg.Server.AllowedOrigins
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-ID", "traceparent", "tracestate"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	generalRateLimiter := middleware.NewRateLimiter(appCtx, 50, 100) // 50 req/sec, burst of 100
	submitRateLimiter := middleware.NewRateLimiter(appCtx, 0.2, 5)   // 1 req/5s, burst of 5 (form spam)

	// Utility endpoints (not versioned)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	registerAPIRoutes(router.Group("/api/v1"), generalRateLimiter, submitRateLimiter, leadHandler, ebookHandler)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	// In-flight notifications finish after the last request has been answered
	if err := dispatcher.Close(ctx); err != nil {
		logger.Error("Pending lead notifications abandoned", zap.Error(err))
	}

	logger.Info("Server exited")
}
