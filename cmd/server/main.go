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
	activityapp "github.com/poinmhs/backend/internal/application/activity"
	claimapp "github.com/poinmhs/backend/internal/application/claim"
	"github.com/poinmhs/backend/internal/application/filestore"
	identityapp "github.com/poinmhs/backend/internal/application/identity"
	importapp "github.com/poinmhs/backend/internal/application/import"
	"github.com/poinmhs/backend/internal/application/ledger"
	studentapp "github.com/poinmhs/backend/internal/application/student"
	"github.com/poinmhs/backend/internal/infrastructure/auth"
	"github.com/poinmhs/backend/internal/infrastructure/config"
	"github.com/poinmhs/backend/internal/infrastructure/event"
	"github.com/poinmhs/backend/internal/infrastructure/logger"
	"github.com/poinmhs/backend/internal/infrastructure/persistence"
	"github.com/poinmhs/backend/internal/infrastructure/printing"
	"github.com/poinmhs/backend/internal/infrastructure/storage"
	"github.com/poinmhs/backend/internal/infrastructure/telemetry"
	"github.com/poinmhs/backend/internal/interfaces/http/handler"
	"github.com/poinmhs/backend/internal/interfaces/http/middleware"
	"github.com/poinmhs/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/poinmhs/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const version = "1.0.0"

//	@title			Poin Mahasiswa API
//	@version		1.0
//	@description	Backend for student activity points: claims, review, bulk reconciliation and CV export.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}". Browsers send the session cookie instead.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = baseLog.Sync()
	}()

	// Telemetry
	providers, err := telemetry.Setup(context.Background(), cfg.Telemetry, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			baseLog.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log := providers.BridgeLogger(baseLog, zapcore.WarnLevel)
	meter := providers.Meter(cfg.Telemetry.ServiceName)

	log.Info("Starting Poin Mahasiswa backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", providers.Enabled()),
	)

	// Database
	db, err := persistence.NewDatabase(&cfg.Database, log, cfg.Telemetry.DBSlowQueryThresh)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbInstr, err := telemetry.InstrumentDB(db.DB, meter, telemetry.DBConfig{
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log)
	if err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	defer func() {
		_ = dbInstr.Close()
	}()

	// Repositories
	studentRepo := persistence.NewGormStudentRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	activityTypeRepo := persistence.NewGormActivityTypeRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Blob storage
	checks := map[string]handler.HealthChecker{"database": db}
	var files filestore.Store
	switch cfg.Storage.Type {
	case "s3":
		s3Store, err := storage.NewS3BlobStore(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize blob storage", zap.Error(err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = s3Store.EnsureBucket(ctx)
		cancel()
		if err != nil {
			log.Fatal("Failed to prepare storage bucket", zap.Error(err), zap.String("bucket", s3Store.Bucket()))
		}
		files = s3Store
		checks["storage"] = s3Store
	default:
		log.Warn("Using in-memory blob storage, uploads are lost on restart")
		files = storage.NewMemoryBlobStore()
	}

	// Events and metrics
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))

	pointsMetrics, err := telemetry.NewPointsMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register points metrics", zap.Error(err))
	}

	// Sessions
	jwtService := auth.NewJWTService(cfg.JWT)
	blacklist, err := auth.NewTokenBlacklist(cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect token blacklist", zap.Error(err))
	}
	if redisBlacklist, ok := blacklist.(*auth.RedisTokenBlacklist); ok {
		checks["redis"] = redisBlacklist
		defer func() {
			_ = redisBlacklist.Close()
		}()
	}

	// Application services
	pointLedger := ledger.NewPointLedger(log)

	authService := identityapp.NewAuthService(userRepo, studentRepo, jwtService, blacklist, identityapp.DefaultAuthServiceConfig(), log)

	claimService := claimapp.NewClaimService(claimRepo, studentRepo, activityTypeRepo, txScope, pointLedger, files, log)
	claimService.SetEventPublisher(eventBus)
	claimService.SetMetrics(pointsMetrics)
	evidencePolicy := filestore.DefaultEvidencePolicy()
	evidencePolicy.MaxSize = cfg.Upload.EvidenceMaxSize
	claimService.SetEvidencePolicy(evidencePolicy)

	studentService := studentapp.NewStudentService(studentRepo, claimRepo, activityTypeRepo, txScope, files, log)
	studentService.SetEventPublisher(eventBus)
	photoPolicy := filestore.DefaultPhotoPolicy()
	photoPolicy.MaxSize = cfg.Upload.PhotoMaxSize
	studentService.SetPhotoPolicy(photoPolicy)

	cvRenderer := printing.NewChromedpRenderer(printing.ChromedpConfig{
		Timeout:    cfg.CV.RenderTimeout,
		ExecPath:   cfg.CV.ChromePath,
		NoSandbox:  os.Getuid() == 0,
		CookieName: cfg.Cookie.Name,
	}, log)
	defer func() {
		_ = cvRenderer.Close()
	}()
	studentService.SetCVRenderer(cvRenderer, cfg.CV.FrontendURL)

	activityTypeService := activityapp.NewActivityTypeService(activityTypeRepo, claimRepo, log)

	claimImport := importapp.NewClaimImportService(txScope, pointLedger, log)
	claimImport.SetEventPublisher(eventBus)
	claimImport.SetMetrics(pointsMetrics)
	studentImport := importapp.NewStudentImportService(txScope, log)
	studentImport.SetEventPublisher(eventBus)
	studentImport.SetMetrics(pointsMetrics)
	activityTypeImport := importapp.NewActivityTypeImportService(txScope, log)
	activityTypeImport.SetMetrics(pointsMetrics)
	exportService := importapp.NewExportService(claimRepo, studentRepo, activityTypeRepo, log)

	if cfg.Seed.AdminNIP != "" {
		created, err := authService.SeedAdmin(context.Background(), identityapp.SeedAdminInput{
			NIP:      cfg.Seed.AdminNIP,
			Name:     cfg.Seed.AdminName,
			Password: cfg.Seed.AdminPassword,
		})
		if err != nil {
			log.Fatal("Failed to seed administrator", zap.Error(err))
		}
		if created {
			log.Info("Administrator account created", zap.String("nip", cfg.Seed.AdminNIP))
		}
	}

	// HTTP handlers
	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(authService, handler.CookieSettings{
			Name:     cfg.Cookie.Name,
			Domain:   cfg.Cookie.Domain,
			Path:     cfg.Cookie.Path,
			Secure:   cfg.Cookie.Secure,
			SameSite: cfg.Cookie.SameSite,
		}),
		Claim:        handler.NewClaimHandler(claimService, cfg.Upload.EvidenceMaxSize),
		Student:      handler.NewStudentHandler(studentService, cfg.Upload.PhotoMaxSize),
		ActivityType: handler.NewActivityTypeHandler(activityTypeService),
		Import: handler.NewImportHandler(claimImport, studentImport, activityTypeImport, exportService, handler.ImportSettings{
			MaxFileSize: cfg.Upload.ImportMaxSize,
			MaxRows:     cfg.Import.MaxRows,
			Timeout:     cfg.Import.Timeout,
		}),
		System: handler.NewSystemHandler(cfg.App.Name, version, checks),
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	// Middleware order: request id first so every later log line carries it,
	// tracing before logging so request logs get the trace id.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	tracingConfig := middleware.DefaultTracingConfig()
	tracingConfig.ServiceName = cfg.Telemetry.ServiceName
	tracingConfig.Enabled = cfg.Telemetry.Enabled
	engine.Use(middleware.TracingWithConfig(tracingConfig))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(httpMetrics)
	engine.Use(middleware.Profiling(cfg.Telemetry.ProfilingEnabled))

	securityConfig := middleware.DefaultSecurityConfig()
	securityConfig.HSTSEnabled = cfg.Cookie.Secure
	engine.Use(middleware.SecureWithConfig(securityConfig))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	var loginGuard []gin.HandlerFunc
	if cfg.HTTP.AuthRateLimitEnabled {
		loginLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		loginGuard = append(loginGuard, middleware.RateLimit(loginLimiter))
	}

	// Probes stay outside the API version
	engine.GET("/health", handlers.System.Health)
	engine.GET("/ready", handlers.System.Ready)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{Enabled: cfg.Swagger.Enabled}),
		ginSwagger.WrapHandler(swaggerFiles.Handler))

	jwtConfig := middleware.DefaultJWTConfig(authService)
	jwtConfig.CookieName = cfg.Cookie.Name
	jwtConfig.Logger = log

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig), middleware.SpanAttributes())
	for _, group := range router.PointsRoutes(handlers, loginGuard...) {
		r.Register(group)
	}
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
