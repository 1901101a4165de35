package main

import (
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campuslab/project-jury-api/api/swagger"
	"github.com/campuslab/project-jury-api/internal/handler"
	"github.com/campuslab/project-jury-api/internal/middleware"
	"github.com/campuslab/project-jury-api/internal/repository"
	"github.com/campuslab/project-jury-api/internal/service"
	"github.com/campuslab/project-jury-api/pkg/cache"
	"github.com/campuslab/project-jury-api/pkg/config"
	"github.com/campuslab/project-jury-api/pkg/database"
	"github.com/campuslab/project-jury-api/pkg/logger"
	corsmiddleware "github.com/campuslab/project-jury-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campuslab/project-jury-api/pkg/middleware/requestid"
)

// @title Project Jury API
// @version 1.0.0
// @description Jury assignment, grading and reporting for academic project offerings
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Database.MigrationsDir); err != nil {
		logr.Sugar().Fatalw("failed to run migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	cacheEnabled := cfg.Reports.CacheEnabled && redisClient != nil
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, cacheEnabled)

	userRepo := repository.NewUserRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	offeringRepo := repository.NewOfferingRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	deliverableRepo := repository.NewDeliverableRepository(db)
	juryRepo := repository.NewJuryRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	finalGradeRepo := repository.NewFinalGradeRepository(db)
	reportRepo := repository.NewReportRepository(db)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	userSvc := service.NewUserService(userRepo, logr)
	courseSvc := service.NewCourseService(courseRepo, offeringRepo, validate, logr)
	groupSvc := service.NewGroupService(groupRepo, userRepo, offeringRepo, validate, logr)
	projectSvc := service.NewProjectService(db, projectRepo, offeringRepo, groupRepo, userRepo, validate, logr)
	jurySvc := service.NewJuryService(db, juryRepo, deliverableRepo, projectRepo, rng, cfg.Jury, logr)
	deliverableSvc := service.NewDeliverableService(db, deliverableRepo, projectRepo, finalGradeRepo, jurySvc, validate, logr)
	reportSvc := service.NewReportService(reportRepo, offeringRepo, courseRepo, projectRepo, deliverableRepo, finalGradeRepo, cacheSvc, cfg.Reports, logr)
	gradeSvc := service.NewGradeService(gradeRepo, juryRepo, deliverableRepo, finalGradeRepo, projectRepo, reportSvc, cfg.Grading, validate, logr)
	offeringSvc := service.NewOfferingService(db, offeringRepo, courseRepo, userRepo, reportSvc, cfg.Offerings, validate, logr)

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc, userSvc),
		Users:        handler.NewUserHandler(userSvc),
		Courses:      handler.NewCourseHandler(courseSvc),
		Offerings:    handler.NewOfferingHandler(offeringSvc, groupSvc, projectSvc),
		Groups:       handler.NewGroupHandler(groupSvc, projectSvc),
		Projects:     handler.NewProjectHandler(projectSvc, deliverableSvc, gradeSvc),
		Deliverables: handler.NewDeliverableHandler(deliverableSvc),
		Jury:         handler.NewJuryHandler(jurySvc, metrics),
		Grades:       handler.NewGradeHandler(gradeSvc, metrics),
		Reports:      handler.NewReportHandler(reportSvc),
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

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

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handlers, authSvc)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
