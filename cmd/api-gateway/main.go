package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sis-core-api/api/swagger"
	"github.com/noah-isme/sis-core-api/internal/handler"
	"github.com/noah-isme/sis-core-api/internal/repository"
	"github.com/noah-isme/sis-core-api/internal/service"
	"github.com/noah-isme/sis-core-api/pkg/cache"
	"github.com/noah-isme/sis-core-api/pkg/config"
	"github.com/noah-isme/sis-core-api/pkg/database"
	"github.com/noah-isme/sis-core-api/pkg/logger"
	"github.com/noah-isme/sis-core-api/pkg/middleware/cors"
	"github.com/noah-isme/sis-core-api/pkg/middleware/requestid"
)

// @title SIS Core API
// @version 0.1.0
// @description Timetable scheduling service for school administration.
// @BasePath /api/v1
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zapLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		zapLogger.Fatal("connect postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Redis is optional; the grid view falls back to the database when
	// the cache is unreachable.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		zapLogger.Warn("redis unavailable, grid caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	timetableRepo := repository.NewTimetableRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, zapLogger)

	metrics := service.NewMetricsService()

	periodSvc := service.NewPeriodService(periodRepo, timetableRepo, validate, zapLogger)
	timetableSvc := service.NewTimetableService(
		timetableRepo, classRepo, periodSvc, cacheRepo, validate, zapLogger,
		service.TimetableServiceConfig{GridCacheTTL: cfg.Timetable.GridCacheTTL},
	)
	generatorSvc := service.NewGeneratorService(
		classRepo, curriculumRepo, subjectRepo, teacherRepo, roomRepo,
		timetableRepo, periodSvc, cacheRepo, metrics, validate, zapLogger,
		service.GeneratorConfig{
			DaysPerWeek:   cfg.Timetable.DaysPerWeek,
			PeriodsPerDay: cfg.Timetable.PeriodsPerDay,
		},
	)
	syncSvc := service.NewSyncService(teacherRepo, classRepo, subjectRepo, roomRepo, timetableRepo, cacheRepo, validate, zapLogger)
	scheduleSvc := service.NewScheduleService(scheduleRepo, timetableRepo, cacheRepo, validate, zapLogger)

	periodHandler := handler.NewPeriodHandler(periodSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	generatorHandler := handler.NewGeneratorHandler(generatorSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestid.Middleware())
	r.Use(logger.GinMiddleware(zapLogger))
	r.Use(cors.New(cfg.CORS.AllowedOrigins))
	r.Use(httpMetrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(503, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	timetables := api.Group("/timetables")
	{
		timetables.GET("/period-definitions/:schoolYearId", periodHandler.List)
		timetables.POST("/period-definitions/:schoolYearId", periodHandler.Create)
		timetables.PUT("/period-definitions/:id", periodHandler.Update)
		timetables.DELETE("/period-definitions/:id", periodHandler.Delete)

		timetables.POST("", timetableHandler.Create)
		timetables.PUT("/:id", timetableHandler.Update)
		timetables.DELETE("/:id", timetableHandler.Delete)
		timetables.GET("/class/:classId", timetableHandler.ListByClass)
		timetables.GET("/teacher/:teacherId/:schoolYearId", timetableHandler.ListByTeacher)
		timetables.GET("/grid/:schoolYearId/:classId", timetableHandler.Grid)
		timetables.POST("/import", timetableHandler.Import)

		timetables.POST("/generate/:schoolYearId/:classId", generatorHandler.GenerateClass)
		timetables.POST("/generate-school/:schoolYearId/:schoolId", generatorHandler.GenerateSchool)

		if cfg.Export.Enabled {
			exportSvc := service.NewExportService(timetableSvc, zapLogger)
			exportHandler := handler.NewExportHandler(exportSvc)
			timetables.GET("/export/:schoolYearId/:classId", exportHandler.Export)
		}
	}

	sync := api.Group("/sync")
	{
		sync.POST("/teaching-assignments", syncHandler.Assignments)
		sync.POST("/room-subjects", syncHandler.Rooms)
	}

	schedules := api.Group("/timetable-schedules")
	{
		schedules.GET("", scheduleHandler.List)
		schedules.POST("", scheduleHandler.Create)
		schedules.GET("/:id", scheduleHandler.Get)
		schedules.PUT("/:id", scheduleHandler.Update)
		schedules.DELETE("/:id", scheduleHandler.Delete)
		schedules.PUT("/:id/file", scheduleHandler.AttachFile)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	zapLogger.Info("starting api-gateway", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		zapLogger.Fatal("server exited", zap.Error(err))
	}
}

func httpMetrics(m *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
