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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/shikshalink/attendance-api/api/swagger"
	"github.com/shikshalink/attendance-api/internal/handler"
	"github.com/shikshalink/attendance-api/internal/middleware"
	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/internal/repository"
	"github.com/shikshalink/attendance-api/internal/scheduler"
	"github.com/shikshalink/attendance-api/internal/service"
	"github.com/shikshalink/attendance-api/internal/watch"
	"github.com/shikshalink/attendance-api/pkg/cache"
	"github.com/shikshalink/attendance-api/pkg/config"
	"github.com/shikshalink/attendance-api/pkg/database"
	"github.com/shikshalink/attendance-api/pkg/logger"
	corsmiddleware "github.com/shikshalink/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/shikshalink/attendance-api/pkg/middleware/requestid"
	"github.com/shikshalink/attendance-api/pkg/push"
)

// @title ShikshaLink Attendance API
// @version 1.0.0
// @description Multi-tenant school attendance pipeline
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, contact cache disabled", zap.Error(err))
		redisClient = nil
	}

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		logr.Fatal("invalid jobs timezone", zap.String("timezone", cfg.Jobs.Timezone), zap.Error(err))
	}

	var sender push.Sender
	if cfg.FCM.CredentialsFile == "" && cfg.FCM.ProjectID == "" {
		logr.Warn("FCM not configured, notifications are log only")
		sender = push.NewLogSender(logr)
	} else {
		fcm, err := push.NewFCMSender(ctx, cfg.FCM)
		if err != nil {
			logr.Fatal("failed to init FCM", zap.Error(err))
		}
		sender = fcm
	}

	// Repositories.
	attendanceRepo := repository.NewAttendanceRepository(db)
	summaryRepo := repository.NewSummaryRepository(db)
	logRepo := repository.NewNotificationLogRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	rosterRepo := repository.NewRosterRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	notifySvc := service.NewNotifyService(sender, logRepo, metricsSvc, logr)
	recipientSvc := service.NewRecipientService(rosterRepo, cacheRepo, cfg.Jobs.ContactCacheTTL, logr)

	dispatcher := watch.NewDispatcher(logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, dispatcher, validate, logr)
	absenceSvc := service.NewAbsenceService(attendanceRepo, logRepo, recipientSvc, notifySvc,
		cfg.Jobs.ConsecutiveWindow, cfg.Jobs.ConsecutiveThreshold, logr)
	dispatcher.Register("absence", absenceSvc.OnDayRecordWrite)

	lockSvc := service.NewLockService(rosterRepo, attendanceRepo, loc, logr)
	summarySvc := service.NewSummaryService(rosterRepo, attendanceRepo, summaryRepo, loc, logr)
	alertSvc := service.NewAlertService(rosterRepo, summaryRepo, recipientSvc, notifySvc,
		cfg.Jobs.LowAttendanceFloor, loc, logr)
	syncSvc := service.NewSyncService(rosterRepo, counterRepo, logr)
	authSvc := service.NewAuthService(userRepo, validate, cfg.JWT, logr)
	reportSvc := service.NewReportService(summaryRepo, logr)

	// HTTP surface.
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)
	jobsHandler := handler.NewJobsHandler(lockSvc, summarySvc, alertSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))

	classSection := authed.Group("/schools/:schoolId/class-sections/:classSectionId")
	classSection.GET("/attendance/:date",
		middleware.RequireRole(models.RoleAdmin, models.RoleTeacher), attendanceHandler.GetDay)
	classSection.PUT("/attendance/:date",
		middleware.RequireRole(models.RoleAdmin, models.RoleTeacher), attendanceHandler.MarkDay)
	classSection.POST("/attendance/:date/unlock",
		middleware.RequireRole(models.RoleAdmin), attendanceHandler.Unlock)
	if cfg.Reports.Enabled {
		classSection.GET("/summaries/:month/export",
			middleware.RequireRole(models.RoleAdmin, models.RoleTeacher), reportHandler.ExportMonthlySummary)
	}

	if cfg.Sync.Enabled {
		authed.POST("/schools/:schoolId/sync",
			middleware.RequireRole(models.RoleAdmin), syncHandler.SyncSchoolData)
	}

	jobs := authed.Group("/jobs", middleware.RequireRole(models.RoleSuperAdmin))
	jobs.POST("/daily-lock", jobsHandler.DailyLock)
	jobs.POST("/monthly-summary", jobsHandler.MonthlySummary)
	jobs.POST("/low-attendance", jobsHandler.LowAttendance)

	// Scheduled jobs.
	if cfg.Jobs.Enabled {
		sched := scheduler.New(loc, metricsSvc, logr)
		mustRegister(sched, scheduler.Job{
			Name: "daily_lock",
			At:   cfg.Jobs.DailyLockAt,
			Run: func(ctx context.Context) error {
				_, err := lockSvc.RunDailyLock(ctx)
				return err
			},
		}, logr)
		mustRegister(sched, scheduler.Job{
			Name: "low_attendance",
			At:   cfg.Jobs.LowAttendanceAt,
			Run:  alertSvc.RunLowAttendanceCheck,
		}, logr)
		mustRegister(sched, scheduler.Job{
			Name:       "monthly_summary",
			At:         cfg.Jobs.MonthlySummaryAt,
			DayOfMonth: cfg.Jobs.MonthlySummaryDay,
			Run:        summarySvc.RunMonthlySummary,
		}, logr)
		go sched.Start(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}

func mustRegister(s *scheduler.Scheduler, job scheduler.Job, logr *zap.Logger) {
	if err := s.Register(job); err != nil {
		logr.Fatal("failed to register job", zap.String("job", job.Name), zap.Error(err))
	}
}
