package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	clauseapp "github.com/marsops/backend/internal/application/clauses"
	contractapp "github.com/marsops/backend/internal/application/contracts"
	identityapp "github.com/marsops/backend/internal/application/identity"
	insightsapp "github.com/marsops/backend/internal/application/insights"
	obligationapp "github.com/marsops/backend/internal/application/obligations"
	reconcileapp "github.com/marsops/backend/internal/application/reconcile"
	syncapp "github.com/marsops/backend/internal/application/sync"
	"github.com/marsops/backend/internal/infrastructure/auth"
	"github.com/marsops/backend/internal/infrastructure/cache"
	"github.com/marsops/backend/internal/infrastructure/config"
	"github.com/marsops/backend/internal/infrastructure/docusign"
	"github.com/marsops/backend/internal/infrastructure/llm"
	"github.com/marsops/backend/internal/infrastructure/logger"
	"github.com/marsops/backend/internal/infrastructure/msgraph"
	"github.com/marsops/backend/internal/infrastructure/notionapi"
	"github.com/marsops/backend/internal/infrastructure/pdf"
	"github.com/marsops/backend/internal/infrastructure/persistence"
	"github.com/marsops/backend/internal/infrastructure/salesforce"
	"github.com/marsops/backend/internal/infrastructure/scheduler"
	"github.com/marsops/backend/internal/infrastructure/storage"
	"github.com/marsops/backend/internal/infrastructure/suiteql"
	"github.com/marsops/backend/internal/infrastructure/telemetry"
	"github.com/marsops/backend/internal/interfaces/http/handler"
	"github.com/marsops/backend/internal/interfaces/http/middleware"
	"github.com/marsops/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const externalClientTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting MARS Operations Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	if cfg.Telemetry.SpanProfiles {
		if err := tracerProvider.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to enable span profiles", zap.Error(err))
		}
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	contractRepo := persistence.NewGormContractRepository(db.DB)
	reviewRepo := persistence.NewGormReviewRepository(db.DB)
	redlineRepo := persistence.NewGormRedlineRepository(db.DB)
	clauseRepo := persistence.NewGormClauseRepository(db.DB)
	obligationRepo := persistence.NewGormObligationRepository(db.DB)
	salesOrderRepo := persistence.NewGormSalesOrderRepository(db.DB)
	workOrderRepo := persistence.NewGormWorkOrderRepository(db.DB)
	syncRunRepo := persistence.NewGormSyncRunRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	roleRepo := persistence.NewGormRoleRepository(db.DB)
	dashboardRepo := persistence.NewGormDashboardRepository(db.DB)
	overrideRepo := persistence.NewGormOverrideRepository(db.DB)

	// Object storage for contract documents and redline artifacts
	var objects storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objects = s3
		log.Info("Object storage configured", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		objects = storage.NewMemoryObjectStorage()
		log.Warn("Object storage disabled, documents are held in memory only")
	}

	// External integration clients. Missing credentials disable the
	// integration instead of blocking startup; the affected endpoints
	// answer UPSTREAM_UNAVAILABLE until the credentials are provided.
	var chat contractapp.ChatClient
	if llmClient, err := llm.NewClient(&cfg.LLM, llm.WithLogger(log)); err == nil {
		chat = llmClient
	} else if errors.Is(err, llm.ErrNotConfigured) {
		log.Warn("LLM integration not configured, contract reviews disabled")
	} else {
		log.Fatal("Failed to initialize LLM client", zap.Error(err))
	}

	var querier syncapp.Querier
	if suiteqlClient, err := suiteql.NewClient(&cfg.NetSuite, cfg.Sync.HTTPTimeout,
		suiteql.WithPageSize(cfg.Sync.PageSize),
		suiteql.WithLogger(log),
	); err == nil {
		querier = suiteqlClient
	} else if errors.Is(err, suiteql.ErrNotConfigured) {
		log.Warn("NetSuite integration not configured, order syncs disabled")
	} else {
		log.Fatal("Failed to initialize NetSuite client", zap.Error(err))
	}

	var pipeline reconcileapp.PipelineSource
	if sfClient, err := salesforce.NewClient(&cfg.Salesforce, externalClientTimeout, salesforce.WithLogger(log)); err == nil {
		pipeline = sfClient
	} else if errors.Is(err, salesforce.ErrNotConfigured) {
		log.Warn("Salesforce integration not configured, reconciliation disabled")
	} else {
		log.Fatal("Failed to initialize Salesforce client", zap.Error(err))
	}

	var tracker reconcileapp.TrackerSource
	if notionClient, err := notionapi.NewClient(&cfg.Notion, externalClientTimeout, notionapi.WithLogger(log)); err == nil {
		tracker = notionClient
	} else if errors.Is(err, notionapi.ErrNotConfigured) {
		log.Warn("Notion integration not configured, reconciliation disabled")
	} else {
		log.Fatal("Failed to initialize Notion client", zap.Error(err))
	}

	// Token blacklist backs logout and forced session invalidation.
	// Redis is preferred so revocations survive restarts and reach
	// every instance; a single-node deployment can run without it.
	var blacklist auth.TokenBlacklist
	redisBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, using in-memory token blacklist", zap.Error(err))
		blacklist = auth.NewInMemoryTokenBlacklist()
	} else {
		blacklist = redisBlacklist
	}

	// Webhook idempotency store, Redis with in-memory fallback
	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	var webhookVerifier *docusign.WebhookVerifier
	if verifier, err := docusign.NewWebhookVerifier(cfg.DocuSign.HMACSecret); err == nil {
		webhookVerifier = verifier
	} else {
		log.Warn("DocuSign HMAC secret not configured, webhook deliveries will be rejected")
	}

	// Envelope lookups are optional; without JWT grant credentials the
	// linking endpoint skips upstream validation.
	var envelopeReader contractapp.EnvelopeReader
	if client, err := docusign.NewClient(&cfg.DocuSign, 30*time.Second, docusign.WithLogger(log)); err == nil {
		envelopeReader = client
	} else {
		log.Warn("DocuSign API credentials not configured, envelope validation disabled")
	}

	// Redline PDF renderer, optional
	var renderer pdf.Renderer
	if cfg.PDF.Enabled {
		chromeRenderer, err := pdf.NewChromedpRenderer(&pdf.ChromedpConfig{
			DefaultTimeout: cfg.PDF.Timeout,
			RemoteURL:      cfg.PDF.RemoteURL,
			NoSandbox:      cfg.PDF.NoSandbox,
			Logger:         log,
		})
		if err != nil {
			log.Fatal("Failed to initialize PDF renderer", zap.Error(err))
		}
		renderer = chromeRenderer
		defer chromeRenderer.Close()
	} else {
		log.Info("PDF rendering disabled")
	}

	// Initialize application services
	contractService := contractapp.NewContractService(contractRepo, objects, envelopeReader)

	reviewOpts := []contractapp.ReviewOption{
		contractapp.WithConcurrency(cfg.LLM.Concurrency),
	}
	if cfg.Graph.TenantID != "" {
		graphClient, err := msgraph.NewClient(&cfg.Graph, externalClientTimeout, msgraph.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize Graph client", zap.Error(err))
		}
		reviewOpts = append(reviewOpts, contractapp.WithDocumentSource(graphClient))
		log.Info("Graph document source configured", zap.String("drive_id", cfg.Graph.DriveID))
	}
	reviewService := contractapp.NewReviewService(contractRepo, reviewRepo, chat, objects, cfg.LLM.Model, reviewOpts...)
	redlineService := contractapp.NewRedlineService(contractRepo, redlineRepo, renderer, objects)
	clauseService := clauseapp.NewClauseService(clauseRepo)
	obligationService := obligationapp.NewObligationService(obligationRepo, contractRepo)
	syncService := syncapp.NewNetSuiteSyncService(querier, salesOrderRepo, workOrderRepo, syncRunRepo, log)
	orderQueryService := syncapp.NewOrderQueryService(salesOrderRepo, workOrderRepo)
	reconcileService := reconcileapp.NewReconcileService(pipeline, tracker, log)
	insightsService := insightsapp.NewInsightsService(
		contractRepo, obligationRepo, salesOrderRepo, workOrderRepo, syncRunRepo,
		cfg.Insights.CacheTTL, log,
	)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		userRepo, roleRepo, jwtService, blacklist,
		cfg.JWT.MaxFailedLogins, cfg.JWT.LockDuration, log,
	)
	userService := identityapp.NewUserService(userRepo, roleRepo)
	roleService := identityapp.NewRoleService(roleRepo, dashboardRepo)
	dashboardService := identityapp.NewDashboardService(dashboardRepo, overrideRepo, userRepo, roleRepo)

	// Background scheduler for the nightly NetSuite mirror refresh and
	// the obligation status re-derivation
	if cfg.Scheduler.Enabled {
		dispatcher := syncapp.NewJobDispatcher(syncService, obligationService, log)
		sched, err := scheduler.NewScheduler(scheduler.Config{
			MaxConcurrentJobs: cfg.Scheduler.MaxConcurrentJobs,
			JobTimeout:        cfg.Scheduler.JobTimeout,
			RetryAttempts:     cfg.Scheduler.RetryAttempts,
			RetryDelay:        cfg.Scheduler.RetryDelay,
		}, dispatcher, log)
		if err != nil {
			log.Fatal("Failed to create scheduler", zap.Error(err))
		}
		if err := sched.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		defer func() {
			if err := sched.Stop(context.Background()); err != nil {
				log.Error("Error stopping scheduler", zap.Error(err))
			}
		}()

		cronTrigger, err := scheduler.NewCronTrigger(scheduler.CronTriggerConfig{
			Enabled:             true,
			SyncCronSchedule:    cfg.Scheduler.SyncCronSchedule,
			RefreshCronSchedule: cfg.Scheduler.RefreshSchedule,
			SyncYear:            cfg.Sync.Year,
			MaxRetries:          cfg.Scheduler.RetryAttempts,
		}, sched, log)
		if err != nil {
			log.Fatal("Failed to create cron trigger", zap.Error(err))
		}
		if err := cronTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start cron trigger", zap.Error(err))
		}
		defer func() {
			if err := cronTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping cron trigger", zap.Error(err))
			}
		}()
		log.Info("Scheduler started",
			zap.String("sync_schedule", cfg.Scheduler.SyncCronSchedule),
			zap.String("refresh_schedule", cfg.Scheduler.RefreshSchedule),
		)
	}

	// Initialize HTTP handlers
	contractHandler := handler.NewContractHandler(contractService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	redlineHandler := handler.NewRedlineHandler(redlineService)
	clauseHandler := handler.NewClauseHandler(clauseService)
	obligationHandler := handler.NewObligationHandler(obligationService)
	syncHandler := handler.NewSyncHandler(syncService)
	orderHandler := handler.NewOrderHandler(orderQueryService)
	reconcileHandler := handler.NewReconcileHandler(reconcileService)
	insightsHandler := handler.NewInsightsHandler(insightsService)
	authHandler := handler.NewAuthHandler(authService, dashboardService)
	userHandler := handler.NewUserHandler(userService, dashboardService)
	roleHandler := handler.NewRoleHandler(roleService)
	dashboardHandler := handler.NewDashboardHandler(dashboardService)
	webhookHandler := handler.NewWebhookHandler(contractService, webhookVerifier, idempotencyStore, log)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - OpenTelemetry spans
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
	}
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit, document uploads enforce their own cap
	engine.Use(middleware.BodyLimitWithSkipper(cfg.HTTP.MaxBodySize, middleware.IsDocumentUpload))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// DocuSign Connect webhook (no authentication, HMAC-verified instead).
	// Registered directly on the engine so JWT middleware never sees it.
	webhookGroup := engine.Group("/api/v1/webhooks")
	webhookGroup.POST("/docusign", webhookHandler.DocuSign)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	// Configure skip paths for public endpoints
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		SkipPathPrefixes: []string{
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Contracts domain (lifecycle, documents, reviews, redlines, insights)
	contractRoutes := router.NewDomainGroup("contracts", "/contracts")
	contractRoutes.POST("", contractHandler.Create)
	contractRoutes.GET("", contractHandler.List)
	contractRoutes.GET("/expiring", contractHandler.Expiring)
	contractRoutes.GET("/insights", insightsHandler.Overview)
	contractRoutes.POST("/insights/refresh", insightsHandler.Refresh)
	contractRoutes.GET("/number/:number", contractHandler.GetByNumber)
	contractRoutes.GET("/:id", contractHandler.GetByID)
	contractRoutes.PUT("/:id", contractHandler.Update)
	contractRoutes.DELETE("/:id", contractHandler.Delete)
	contractRoutes.POST("/:id/submit", contractHandler.Submit)
	contractRoutes.POST("/:id/approve", contractHandler.Approve)
	contractRoutes.POST("/:id/reject", contractHandler.Reject)
	contractRoutes.POST("/:id/revise", contractHandler.Revise)
	contractRoutes.POST("/:id/envelope", contractHandler.LinkEnvelope)
	contractRoutes.POST("/:id/document", contractHandler.UploadDocument)
	contractRoutes.GET("/:id/document", contractHandler.DocumentURL)
	contractRoutes.POST("/:id/reviews", reviewHandler.Run)
	contractRoutes.GET("/:id/reviews", reviewHandler.ListByContract)
	contractRoutes.POST("/:id/redlines", redlineHandler.Create)
	contractRoutes.GET("/:id/redlines", redlineHandler.ListByContract)

	// Reviews and redlines by their own IDs
	reviewRoutes := router.NewDomainGroup("reviews", "/reviews")
	reviewRoutes.GET("/:id", reviewHandler.GetByID)

	redlineRoutes := router.NewDomainGroup("redlines", "/redlines")
	redlineRoutes.GET("/:id", redlineHandler.GetByID)
	redlineRoutes.DELETE("/:id", redlineHandler.Delete)
	redlineRoutes.POST("/:id/render", redlineHandler.RenderPDF)
	redlineRoutes.GET("/:id/artifact", redlineHandler.ArtifactURL)

	// Clause library
	clauseRoutes := router.NewDomainGroup("clauses", "/clauses")
	clauseRoutes.POST("", clauseHandler.Create)
	clauseRoutes.GET("", clauseHandler.List)
	clauseRoutes.GET("/search", clauseHandler.Search)
	clauseRoutes.GET("/:id", clauseHandler.GetByID)
	clauseRoutes.PUT("/:id", clauseHandler.Update)
	clauseRoutes.DELETE("/:id", clauseHandler.Delete)
	clauseRoutes.POST("/:id/use", clauseHandler.RecordUsage)

	// Obligations
	obligationRoutes := router.NewDomainGroup("obligations", "/obligations")
	obligationRoutes.POST("", obligationHandler.Create)
	obligationRoutes.GET("", obligationHandler.List)
	obligationRoutes.GET("/upcoming", obligationHandler.Upcoming)
	obligationRoutes.POST("/refresh", obligationHandler.Refresh)
	obligationRoutes.GET("/:id", obligationHandler.GetByID)
	obligationRoutes.PUT("/:id", obligationHandler.Update)
	obligationRoutes.DELETE("/:id", obligationHandler.Delete)
	obligationRoutes.POST("/:id/complete", obligationHandler.Complete)

	// NetSuite mirror (sync triggers, run history, order queries)
	netsuiteRoutes := router.NewDomainGroup("netsuite", "/netsuite")
	netsuiteRoutes.POST("/sync/sales-orders", syncHandler.TriggerSalesOrders)
	netsuiteRoutes.POST("/sync/work-orders", syncHandler.TriggerWorkOrders)
	netsuiteRoutes.POST("/sync/clean-slate", syncHandler.CleanSlate)
	netsuiteRoutes.GET("/sync/runs", syncHandler.ListRuns)
	netsuiteRoutes.GET("/sync/runs/:id", syncHandler.GetRun)
	netsuiteRoutes.GET("/sync/sales-orders/latest", syncHandler.LatestSalesOrderRun)
	netsuiteRoutes.GET("/sync/work-orders/latest", syncHandler.LatestWorkOrderRun)
	netsuiteRoutes.GET("/sales-orders", orderHandler.ListSalesOrders)
	netsuiteRoutes.GET("/sales-orders/stats/count", orderHandler.SalesOrderCounts)
	netsuiteRoutes.GET("/sales-orders/:tranId", orderHandler.GetSalesOrder)
	netsuiteRoutes.GET("/work-orders", orderHandler.ListWorkOrders)
	netsuiteRoutes.GET("/work-orders/stats/count", orderHandler.WorkOrderCounts)
	netsuiteRoutes.GET("/work-orders/:tranId", orderHandler.GetWorkOrder)

	// Salesforce vs Notion reconciliation
	reconcileRoutes := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconcileRoutes.POST("/run", reconcileHandler.Run)

	// Authentication and current-user routes
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.AuthRateLimit(authLimiter))
	}
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.GET("/me/dashboards", authHandler.MyDashboards)
	authRoutes.PUT("/me/password", authHandler.ChangePassword)

	// Identity administration (users, roles, dashboard catalog)
	identityRoutes := router.NewDomainGroup("identity", "/identity")
	identityRoutes.Use(middleware.RequireAdmin())

	// User management
	identityRoutes.POST("/users", userHandler.Create)
	identityRoutes.GET("/users", userHandler.List)
	identityRoutes.GET("/users/:id", userHandler.GetByID)
	identityRoutes.PUT("/users/:id", userHandler.Update)
	identityRoutes.DELETE("/users/:id", userHandler.Delete)
	identityRoutes.POST("/users/:id/activate", userHandler.Activate)
	identityRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	identityRoutes.POST("/users/:id/reset-password", userHandler.ResetPassword)
	identityRoutes.GET("/users/:id/dashboards", userHandler.Dashboards)
	identityRoutes.GET("/users/:id/dashboard-overrides", userHandler.ListOverrides)
	identityRoutes.PUT("/users/:id/dashboard-overrides", userHandler.SetOverride)
	identityRoutes.DELETE("/users/:id/dashboard-overrides/:key", userHandler.RemoveOverride)

	// Role management
	identityRoutes.POST("/roles", roleHandler.Create)
	identityRoutes.GET("/roles", roleHandler.List)
	identityRoutes.GET("/roles/:id", roleHandler.GetByID)
	identityRoutes.PUT("/roles/:id", roleHandler.Update)
	identityRoutes.DELETE("/roles/:id", roleHandler.Delete)
	identityRoutes.POST("/roles/:id/dashboards/:key", roleHandler.GrantDashboard)
	identityRoutes.DELETE("/roles/:id/dashboards/:key", roleHandler.RevokeDashboard)

	// Dashboard catalog
	identityRoutes.POST("/dashboards", dashboardHandler.Create)
	identityRoutes.GET("/dashboards", dashboardHandler.List)
	identityRoutes.PUT("/dashboards/:key", dashboardHandler.Update)
	identityRoutes.DELETE("/dashboards/:key", dashboardHandler.Delete)

	// Register all domain groups
	r.Register(contractRoutes).
		Register(reviewRoutes).
		Register(redlineRoutes).
		Register(clauseRoutes).
		Register(obligationRoutes).
		Register(netsuiteRoutes).
		Register(reconcileRoutes).
		Register(authRoutes).
		Register(identityRoutes)

	// System routes
	systemHandler := handler.NewSystemHandler()
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	r.Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
