package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/nkc-crm/campaign-sync-api/api/swagger"
	"github.com/nkc-crm/campaign-sync-api/internal/handler"
	"github.com/nkc-crm/campaign-sync-api/internal/middleware"
	"github.com/nkc-crm/campaign-sync-api/internal/repository"
	"github.com/nkc-crm/campaign-sync-api/internal/service"
	"github.com/nkc-crm/campaign-sync-api/pkg/cache"
	"github.com/nkc-crm/campaign-sync-api/pkg/config"
	"github.com/nkc-crm/campaign-sync-api/pkg/database"
	"github.com/nkc-crm/campaign-sync-api/pkg/logger"
	corsmiddleware "github.com/nkc-crm/campaign-sync-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nkc-crm/campaign-sync-api/pkg/middleware/requestid"
	"github.com/nkc-crm/campaign-sync-api/pkg/realtime"
)

// @title Campaign Sync API
// @version 1.0.0
// @description Campaign scheduling and realtime synchronization service
// @BasePath /
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}
	defer redisClient.Close()

	scheduleRepo := repository.NewDepartmentScheduleRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	campaignScheduleRepo := repository.NewCampaignScheduleRepository(db)
	interactionLogRepo := repository.NewInteractionLogRepository(db)
	changeLogRepo := repository.NewChangeLogRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	eventBus := service.NewChangeEventBus()
	broadcaster := realtime.NewRedisBroadcaster(redisClient, logr)

	scheduleSvc := service.NewDepartmentScheduleService(scheduleRepo, validate, logr)
	statusEngine := service.NewScheduleStatusService(scheduleRepo, campaignRepo, campaignScheduleRepo, metricsSvc, logr)
	changeFeed := service.NewChangeFeedService(
		service.ChangeFeedConfig{
			PollInterval:  cfg.Dispatcher.PollInterval,
			BatchSize:     cfg.Dispatcher.BatchSize,
			DebounceDelay: cfg.Dispatcher.DebounceDelay,
			WatchedTables: cfg.Dispatcher.WatchedTables,
			Room:          cfg.Realtime.CampaignRoom,
		},
		changeLogRepo,
		campaignRepo,
		campaignScheduleRepo,
		interactionLogRepo,
		eventBus,
		broadcaster,
		metricsSvc,
		logr,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Dispatcher.Enabled {
		if err := changeFeed.Start(ctx); err != nil {
			logr.Sugar().Fatalw("failed to start change feed dispatcher", "error", err)
		}
		defer changeFeed.Stop()
	}

	scheduler := cron.New()
	if cfg.StatusEngine.Enabled {
		if _, err := scheduler.AddFunc(cfg.StatusEngine.ReconcileSpec, func() {
			if _, err := statusEngine.ReconcileStatuses(ctx); err != nil {
				logr.Error("schedule status reconciliation failed", zap.Error(err))
			}
		}); err != nil {
			logr.Sugar().Fatalw("invalid reconcile cron spec", "spec", cfg.StatusEngine.ReconcileSpec, "error", err)
		}
		if _, err := scheduler.AddFunc(cfg.StatusEngine.OrphanRepairSpec, func() {
			if _, err := statusEngine.RepairOrphanedCampaigns(ctx); err != nil {
				logr.Error("orphan campaign repair failed", zap.Error(err))
			}
		}); err != nil {
			logr.Sugar().Fatalw("invalid orphan repair cron spec", "spec", cfg.StatusEngine.OrphanRepairSpec, "error", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	scheduleHandler := handler.NewDepartmentScheduleHandler(scheduleSvc)
	opsHandler := handler.NewOpsHandler(statusEngine, changeFeed)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		schedules := api.Group("/department-schedules")
		{
			schedules.GET("", scheduleHandler.List)
			schedules.POST("", scheduleHandler.Create)
			schedules.GET("/:id", scheduleHandler.Get)
			schedules.PUT("/:id", scheduleHandler.Update)
			schedules.DELETE("/:id", scheduleHandler.Delete)
			schedules.GET("/:id/window", scheduleHandler.Window)
		}

		ops := api.Group("/ops")
		{
			ops.POST("/schedules/reconcile", opsHandler.ReconcileSchedules)
			ops.GET("/schedules/status-stats", opsHandler.ScheduleStatusStats)
			ops.POST("/campaigns/repair-schedules", opsHandler.RepairCampaignSchedules)
			ops.GET("/dispatcher/status", opsHandler.DispatcherStatus)
			ops.POST("/dispatcher/reprocess", opsHandler.DispatcherReprocess)
			ops.POST("/dispatcher/flush", opsHandler.DispatcherFlush)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
