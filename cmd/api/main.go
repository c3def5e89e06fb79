package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sports-club-api/api/swagger"
	"github.com/noah-isme/sports-club-api/internal/handler"
	"github.com/noah-isme/sports-club-api/internal/middleware"
	"github.com/noah-isme/sports-club-api/internal/repository"
	"github.com/noah-isme/sports-club-api/internal/service"
	"github.com/noah-isme/sports-club-api/pkg/cache"
	"github.com/noah-isme/sports-club-api/pkg/config"
	"github.com/noah-isme/sports-club-api/pkg/database"
	"github.com/noah-isme/sports-club-api/pkg/jobs"
	"github.com/noah-isme/sports-club-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sports-club-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sports-club-api/pkg/middleware/requestid"
	"github.com/noah-isme/sports-club-api/pkg/validation"
)

// @title Sports Club API
// @version 1.0.0
// @description Student roster, groups, lessons, attendance and tuition debts of a sports club.
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db.DB); err != nil {
			logr.Fatal("migration failed", zap.Error(err))
		}
		if version, err := database.Version(db.DB); err == nil {
			logr.Info("schema migrated", zap.Int64("version", version))
		}
	}

	metrics := service.NewMetricsService()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, serving aggregates uncached", zap.Error(err))
		} else {
			redisClient = client
			defer redisClient.Close()
		}
	}
	aggregates := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Cache.TTL, logr, redisClient != nil)
	invalidator := service.NewCacheInvalidator(aggregates, metrics, jobs.QueueConfig{
		Workers:    cfg.Cache.InvalidationWorkers,
		MaxRetries: cfg.Cache.InvalidationRetries,
		Logger:     logr,
	})
	invalidator.Start(ctx)
	defer invalidator.Stop()

	validate := validation.New()

	studentRepo := repository.NewStudentRepository(db)
	parentRepo := repository.NewParentRepository(db)
	relativeRepo := repository.NewRelativeRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	lessonRepo := repository.NewLessonRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	debtRepo := repository.NewDebtRepository(db)

	studentSvc := service.NewStudentService(studentRepo, parentRepo, relativeRepo, db, validate, logr)
	relativeSvc := service.NewRelativeService(relativeRepo, studentRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, studentRepo, db, validate, logr)
	lessonSvc := service.NewLessonService(lessonRepo, groupRepo, studentRepo, db, invalidator, validate, logr)
	attendanceSvc := service.NewAttendanceService(service.AttendanceServiceDeps{
		Attendance:  attendanceRepo,
		Lessons:     lessonRepo,
		Students:    studentRepo,
		Tx:          db,
		Cache:       aggregates,
		Invalidator: invalidator,
		Metrics:     metrics,
		Validator:   validate,
		Logger:      logr,
	})
	debtSvc := service.NewDebtService(debtRepo, studentRepo, aggregates, invalidator, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.OperatorLogFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Auth.Enabled {
		api.Use(middleware.JWT(service.NewTokenService(cfg.Auth.Secret)))
	}
	handler.Handlers{
		Students:   handler.NewStudentHandler(studentSvc),
		Relatives:  handler.NewRelativeHandler(relativeSvc),
		Groups:     handler.NewGroupHandler(groupSvc),
		Lessons:    handler.NewLessonHandler(lessonSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc),
		Debts:      handler.NewDebtHandler(debtSvc),
	}.Register(api)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.Bool("auth", cfg.Auth.Enabled), zap.Bool("cache", cfg.Cache.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
