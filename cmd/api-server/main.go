package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/dimasfarhan/ppl-placement-api/api/swagger"
	"github.com/dimasfarhan/ppl-placement-api/internal/handler"
	"github.com/dimasfarhan/ppl-placement-api/internal/middleware"
	"github.com/dimasfarhan/ppl-placement-api/internal/models"
	"github.com/dimasfarhan/ppl-placement-api/internal/repository"
	"github.com/dimasfarhan/ppl-placement-api/internal/service"
	"github.com/dimasfarhan/ppl-placement-api/pkg/cache"
	"github.com/dimasfarhan/ppl-placement-api/pkg/config"
	"github.com/dimasfarhan/ppl-placement-api/pkg/database"
	"github.com/dimasfarhan/ppl-placement-api/pkg/export"
	"github.com/dimasfarhan/ppl-placement-api/pkg/logger"
	corsmiddleware "github.com/dimasfarhan/ppl-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/dimasfarhan/ppl-placement-api/pkg/middleware/requestid"
)

// @title PPL Placement API
// @version 1.0.0
// @description Teaching-practice placement management: registrations, placements, assessments and certificates
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
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, dashboard caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	// repositories
	userRepo := repository.NewUserRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	supervisorRepo := repository.NewSupervisorRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	placementRepo := repository.NewPlacementRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "ppl-placement-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	locationSvc := service.NewLocationService(locationRepo, validate, logr)
	supervisorSvc := service.NewSupervisorService(supervisorRepo, userRepo, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, periodRepo, placementRepo, validate, logr)
	placementSvc := service.NewPlacementService(placementRepo, registrationRepo, periodRepo, locationRepo, supervisorRepo, cfg.Policy, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, placementRepo, certificateRepo, cfg.Policy, cfg.Certificates, validate, logr)
	certificateSvc := service.NewCertificateService(certificateRepo, placementRepo, assessmentRepo, export.NewPDFExporter(), cfg.Certificates, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	dashboardSvc := service.NewDashboardService(dashboardRepo, registrationRepo, placementRepo, assessmentRepo, certificateRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)

	// handlers
	csv := export.NewCSVExporter()
	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	locationHandler := handler.NewLocationHandler(locationSvc)
	supervisorHandler := handler.NewSupervisorHandler(supervisorSvc)
	periodHandler := handler.NewPeriodHandler(periodSvc)
	registrationHandler := handler.NewRegistrationHandler(registrationSvc, csv)
	placementHandler := handler.NewPlacementHandler(placementSvc, supervisorSvc, csv)
	assessmentHandler := handler.NewAssessmentHandler(assessmentSvc, supervisorSvc, csv)
	certificateHandler := handler.NewCertificateHandler(certificateSvc, csv)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, supervisorSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

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

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	adminOrSupervisor := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor)

	users := protected.Group("/users")
	{
		users.GET("", adminOnly, userHandler.List)
		users.POST("", adminOnly, userHandler.Create)
		users.GET("/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Get)
		users.PUT("/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Update)
	}

	locations := protected.Group("/locations")
	{
		locations.GET("", locationHandler.List)
		locations.GET("/occupancy", adminOnly, locationHandler.Occupancy)
		locations.GET("/:id", locationHandler.Get)
		locations.POST("", adminOnly, locationHandler.Create)
		locations.PUT("/:id", adminOnly, locationHandler.Update)
	}

	supervisors := protected.Group("/supervisors")
	{
		supervisors.GET("", adminOnly, supervisorHandler.List)
		supervisors.GET("/:id", adminOrSupervisor, supervisorHandler.Get)
		supervisors.POST("", adminOnly, supervisorHandler.Create)
		supervisors.PUT("/:id", adminOnly, supervisorHandler.Update)
	}

	periods := protected.Group("/periods")
	{
		periods.GET("", periodHandler.List)
		periods.GET("/:id", periodHandler.Get)
		periods.POST("", adminOnly, periodHandler.Create)
		periods.PUT("/:id", adminOnly, periodHandler.Update)
	}

	registrations := protected.Group("/registrations")
	{
		registrations.GET("", registrationHandler.List)
		registrations.GET("/export", adminOnly, registrationHandler.ExportCSV)
		registrations.GET("/:id", registrationHandler.Get)
		registrations.POST("", middleware.RequireRoles(models.RoleStudent), registrationHandler.Create)
		registrations.PATCH("/:id/documents", registrationHandler.UpdateDocuments)
		registrations.PUT("/:id/approve", adminOnly, registrationHandler.Approve)
		registrations.PUT("/:id/reject", adminOnly, registrationHandler.Reject)
	}

	placements := protected.Group("/placements")
	{
		placements.GET("", placementHandler.List)
		placements.GET("/export", adminOnly, placementHandler.ExportCSV)
		placements.GET("/:id", placementHandler.Get)
		placements.GET("/:id/history", adminOrSupervisor, placementHandler.History)
		placements.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleStudent), placementHandler.Assign)
		placements.PUT("/:id/approve", adminOnly, placementHandler.Approve)
		placements.PUT("/:id/supervisor", adminOnly, placementHandler.ChangeSupervisor)
		placements.PUT("/:id/location", adminOnly, placementHandler.ChangeLocation)
		placements.PUT("/:id/cancel", adminOnly, placementHandler.Cancel)
	}

	assessments := protected.Group("/assessments")
	{
		assessments.GET("", adminOrSupervisor, assessmentHandler.List)
		assessments.GET("/export", adminOnly, assessmentHandler.ExportCSV)
		assessments.GET("/:id", adminOrSupervisor, assessmentHandler.Get)
		assessments.POST("", adminOrSupervisor, assessmentHandler.Create)
		assessments.PUT("/:id", adminOrSupervisor, assessmentHandler.Update)
		assessments.PUT("/:id/submit", adminOrSupervisor, assessmentHandler.Submit)
	}

	certificates := protected.Group("/certificates")
	{
		certificates.GET("", certificateHandler.List)
		certificates.GET("/export", adminOnly, certificateHandler.ExportCSV)
		certificates.GET("/:id", certificateHandler.Get)
		certificates.GET("/:id/download", certificateHandler.Download)
		certificates.POST("/issue", adminOnly, certificateHandler.IssueForPlacement)
		certificates.PUT("/:id/issue", adminOnly, certificateHandler.Issue)
		certificates.PUT("/:id/revoke", adminOnly, certificateHandler.Revoke)
		certificates.PUT("/:id/reissue", adminOnly, certificateHandler.Reissue)
	}

	dashboard := protected.Group("/dashboard")
	{
		dashboard.GET("", dashboardHandler.Me)
		dashboard.GET("/student", middleware.RequireRoles(models.RoleStudent), dashboardHandler.Me)
		dashboard.GET("/supervisor", middleware.RequireRoles(models.RoleSupervisor), dashboardHandler.Me)
		dashboard.GET("/admin", adminOnly, dashboardHandler.AdminStats)
		dashboard.GET("/stats", adminOnly, dashboardHandler.AdminStats)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
