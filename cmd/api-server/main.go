package main

import (
	"context"
	"errors"
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

	_ "github.com/campusops/deptdesk-api/api/swagger"
	"github.com/campusops/deptdesk-api/internal/calendar"
	"github.com/campusops/deptdesk-api/internal/handler"
	"github.com/campusops/deptdesk-api/internal/middleware"
	"github.com/campusops/deptdesk-api/internal/models"
	"github.com/campusops/deptdesk-api/internal/repository"
	"github.com/campusops/deptdesk-api/internal/service"
	"github.com/campusops/deptdesk-api/pkg/cache"
	"github.com/campusops/deptdesk-api/pkg/config"
	"github.com/campusops/deptdesk-api/pkg/database"
	"github.com/campusops/deptdesk-api/pkg/logger"
	corsmiddleware "github.com/campusops/deptdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusops/deptdesk-api/pkg/middleware/requestid"
	"github.com/campusops/deptdesk-api/pkg/storage"
)

// @title DeptDesk API
// @version 1.0.0
// @description Department administration API: timetable, calendar, attendance, allotments and exports.
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, week view caching disabled", "error", err)
		redisClient = nil
	}

	exportStore, err := storage.NewFileStore(cfg.Export.Dir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "error", err)
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	allotmentRepo := repository.NewAllotmentRepository(db)
	slotRepo := repository.NewTimeSlotRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services.
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "deptdesk-api",
	})
	calendarSvc := service.NewCalendarService(entryRepo, cacheRepo, metricsSvc, logr, service.CalendarConfig{
		Horizon: calendar.Horizon{
			WeeksBefore: cfg.Calendar.WeeksBefore,
			WeeksAfter:  cfg.Calendar.WeeksAfter,
		},
		GraceDays: cfg.Calendar.PastGraceDays,
		CacheTTL:  cfg.Calendar.WeekViewCacheTTL,
	})
	timetableSvc := service.NewTimetableService(entryRepo, slotRepo, validate, logr, cfg.Calendar.PastGraceDays)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, entryRepo, validate, logr, cfg.Calendar.PastGraceDays)
	allotmentSvc := service.NewAllotmentService(allotmentRepo, validate, logr)
	settingsSvc := service.NewSettingsService(slotRepo, subjectRepo, facultyRepo, batchRepo, departmentRepo, validate, logr)
	exportSvc := service.NewExportService(calendarSvc, logr, service.ExportConfig{
		Enabled:  cfg.Export.Enabled,
		MaxRows:  cfg.Export.MaxRows,
		PDFTitle: cfg.Export.PDFTitle,
	})
	signer := storage.NewTokenSigner(cfg.JWT.Secret, cfg.Export.DownloadTTL)
	exportJobSvc := service.NewExportJobService(exportSvc, exportStore, signer, logr, service.ExportJobConfig{
		Workers:         cfg.Export.Workers,
		DownloadTTL:     cfg.Export.DownloadTTL,
		FileTTL:         cfg.Export.FileTTL,
		CleanupInterval: cfg.Export.CleanupInterval,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc, calendarSvc)
	calendarHandler := handler.NewCalendarHandler(calendarSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	allotmentHandler := handler.NewAllotmentHandler(allotmentSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	exportHandler := handler.NewExportHandler(exportSvc, exportJobSvc)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportJobSvc.Start(ctx)
	defer exportJobSvc.Stop()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Live)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	}

	// Signed download tokens carry their own authorization.
	api.GET("/export/download", exportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/calendar/events", calendarHandler.WeekEvents)
		protected.GET("/calendar/expanded", calendarHandler.ExpandedEvents)

		timetable := protected.Group("/timetable/entries")
		{
			timetable.GET("", timetableHandler.List)
			timetable.GET("/:id", timetableHandler.Get)

			manage := timetable.Group("")
			manage.Use(middleware.RequireRoles(models.RoleAdmin))
			{
				manage.POST("", timetableHandler.Create)
				manage.POST("/bulk", timetableHandler.BulkCreate)
				manage.PUT("/:id", timetableHandler.Update)
				manage.PATCH("/:id/move", timetableHandler.Move)
				manage.DELETE("/:id", timetableHandler.Delete)
			}
		}

		attendance := protected.Group("/attendance")
		{
			attendance.GET("", attendanceHandler.List)
			attendance.GET("/report", attendanceHandler.SessionReport)

			mark := attendance.Group("")
			mark.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
			{
				mark.POST("", attendanceHandler.Mark)
				mark.POST("/bulk", attendanceHandler.BulkMark)
			}
		}

		protected.GET("/faculty/:id/allotments", allotmentHandler.ListByFaculty)
		protected.GET("/batches/:id/allotments", allotmentHandler.ListByBatch)

		allotments := protected.Group("/allotments")
		allotments.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			allotments.POST("", allotmentHandler.Create)
			allotments.DELETE("/:id", allotmentHandler.Delete)
		}

		settings := protected.Group("/settings")
		{
			settings.GET("/time-slots", settingsHandler.ListTimeSlots)
			settings.GET("/subjects", settingsHandler.ListSubjects)
			settings.GET("/faculty", settingsHandler.ListFaculty)
			settings.GET("/batches", settingsHandler.ListBatches)
			settings.GET("/department", settingsHandler.GetDepartment)

			manage := settings.Group("")
			manage.Use(middleware.RequireRoles(models.RoleAdmin))
			{
				manage.POST("/time-slots", settingsHandler.CreateTimeSlot)
				manage.PUT("/time-slots/:id", settingsHandler.UpdateTimeSlot)
				manage.DELETE("/time-slots/:id", settingsHandler.DeleteTimeSlot)
				manage.POST("/subjects", settingsHandler.CreateSubject)
				manage.PUT("/subjects/:id", settingsHandler.UpdateSubject)
				manage.DELETE("/subjects/:id", settingsHandler.DeleteSubject)
				manage.POST("/faculty", settingsHandler.CreateFaculty)
				manage.PUT("/faculty/:id", settingsHandler.UpdateFaculty)
				manage.DELETE("/faculty/:id", settingsHandler.DeleteFaculty)
				manage.POST("/batches", settingsHandler.CreateBatch)
				manage.PUT("/batches/:id", settingsHandler.UpdateBatch)
				manage.DELETE("/batches/:id", settingsHandler.DeleteBatch)
				manage.PUT("/department", settingsHandler.UpdateDepartment)
			}
		}

		export := protected.Group("/export")
		export.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleFaculty))
		{
			export.GET("/timetable", exportHandler.Timetable)
			export.POST("/jobs", exportHandler.CreateJob)
			export.GET("/jobs/:id", exportHandler.GetJob)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
