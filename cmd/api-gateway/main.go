package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/class-matrix-api/api/swagger"
	"github.com/noah-isme/class-matrix-api/internal/handler"
	internalmiddleware "github.com/noah-isme/class-matrix-api/internal/middleware"
	"github.com/noah-isme/class-matrix-api/internal/models"
	"github.com/noah-isme/class-matrix-api/internal/repository"
	"github.com/noah-isme/class-matrix-api/internal/service"
	"github.com/noah-isme/class-matrix-api/pkg/cache"
	"github.com/noah-isme/class-matrix-api/pkg/config"
	"github.com/noah-isme/class-matrix-api/pkg/database"
	"github.com/noah-isme/class-matrix-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/class-matrix-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/class-matrix-api/pkg/middleware/requestid"
)

// @title Class Matrix API
// @version 1.0.0
// @description Class/timeslot scheduling matrix and effective-access resolution engine
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metricsService := service.NewMetricsService()

	// Redis is optional: without it the curriculum resolver reads straight
	// through to the mapping table on every request.
	var cacheService *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, curriculum cache disabled", "error", err)
		cacheService = service.NewCacheService(nil, metricsService, cfg.Curriculum.CacheTTL, logr, false)
	} else {
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Curriculum.CacheTTL, logr, cfg.Curriculum.CacheEnabled)
	}

	cellRepo := repository.NewMatrixCellRepository(db)
	assignmentRepo := repository.NewAccessAssignmentRepository(db)
	ownershipRepo := repository.NewOwnershipRepository(db)
	curriculumRepo := repository.NewCurriculumRepository(db)

	authService := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	accessService := service.NewAccessService(assignmentRepo, ownershipRepo, cellRepo, nil, logr)
	curriculumService := service.NewCurriculumService(curriculumRepo, cacheService, nil, logr)
	matrixService := service.NewMatrixService(cellRepo, ownershipRepo, accessService, nil, logr)
	gridService := service.NewGridService(service.GridServiceParams{
		Cells:      cellRepo,
		Access:     accessService,
		Curriculum: curriculumService,
		Items:      ownershipRepo,
		Metrics:    metricsService,
		Logger:     logr,
		Config:     service.GridServiceConfig{BackfillBatchSize: cfg.Matrix.BackfillBatchSize},
	})

	matrixHandler := handler.NewMatrixHandler(gridService, matrixService, cfg.Matrix.ExportEnabled)
	curriculumHandler := handler.NewCurriculumHandler(curriculumService)
	accessHandler := handler.NewAccessHandler(accessService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsService))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		// A cache outage degrades resolution to the database, so it is
		// reported but does not fail readiness.
		cacheStatus := "disabled"
		if redisClient != nil {
			cacheStatus = "ok"
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				cacheStatus = "unavailable"
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "cache": cacheStatus})
	})

	r.GET("/metrics", gin.WrapH(metricsService.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(authService))

	matrix := api.Group("/matrix")
	matrix.GET("/grid", matrixHandler.Grid)
	matrix.GET("/grid/export", matrixHandler.ExportGrid)
	matrix.GET("/curriculum", curriculumHandler.Resolve)
	matrix.GET("/cells/:id", matrixHandler.GetCell)
	matrix.POST("/cells/:id/items", matrixHandler.AttachItem)
	matrix.DELETE("/cells/:id/items/:itemId", matrixHandler.DetachItem)
	matrix.POST("/cells/:id/schedule", matrixHandler.UpdateSchedule)
	matrix.POST("/cells/:id/status", matrixHandler.SetStatus)
	matrix.POST("/cells/:id/clone", matrixHandler.Clone)
	matrix.POST("/bulk-assign", matrixHandler.BulkAssign)

	admin := api.Group("")
	admin.Use(internalmiddleware.RBAC(models.RoleSuperAdmin, models.RoleAdmin))
	admin.GET("/access/assignments", accessHandler.ListAssignments)
	admin.POST("/access/assignments", accessHandler.UpsertAssignment)
	admin.DELETE("/access/assignments/:id", accessHandler.DeactivateAssignment)
	admin.POST("/curriculum/mappings", curriculumHandler.UpsertMapping)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
