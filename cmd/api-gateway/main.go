package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edustack/tutorhub-api/api/swagger"
	"github.com/edustack/tutorhub-api/internal/handler"
	"github.com/edustack/tutorhub-api/internal/middleware"
	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/repository"
	"github.com/edustack/tutorhub-api/internal/service"
	"github.com/edustack/tutorhub-api/pkg/cache"
	"github.com/edustack/tutorhub-api/pkg/config"
	"github.com/edustack/tutorhub-api/pkg/database"
	"github.com/edustack/tutorhub-api/pkg/logger"
	corsmiddleware "github.com/edustack/tutorhub-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edustack/tutorhub-api/pkg/middleware/requestid"
)

// @title TutorHub API
// @version 1.0.0
// @description Tutoring marketplace backend: availability, bookings and reviews
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	tutorRepo := repository.NewTutorRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	tutorSvc := service.NewTutorService(tutorRepo, cacheRepo, validate, logr, cfg.Booking.DefaultTimezone)
	availabilitySvc := service.NewAvailabilityService(availabilityRepo, tutorRepo, cacheRepo, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, tutorRepo, validate, logr, metricsSvc, cfg.Booking)
	reviewSvc := service.NewReviewService(reviewRepo, bookingRepo, validate, logr, metricsSvc)
	publicSvc := service.NewPublicService(tutorRepo, userRepo, availabilityRepo, categoryRepo, cacheRepo, logr, cfg.Cache)
	adminSvc := service.NewAdminService(userRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	tutorHandler := handler.NewTutorHandler(tutorSvc, availabilitySvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	reviewHandler := handler.NewReviewHandler(reviewSvc)
	publicHandler := handler.NewPublicHandler(publicSvc)
	adminHandler := handler.NewAdminHandler(bookingSvc, adminSvc, publicSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

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
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/tutors/:id", publicHandler.GetTutor)
	api.GET("/tutors/:id/reviews", reviewHandler.ListForTutor)
	api.GET("/categories", publicHandler.ListCategories)

	authed := api.Group("", middleware.JWT(authSvc))

	tutors := authed.Group("/tutors/me", middleware.RequireRoles(models.RoleTutor))
	tutors.POST("", tutorHandler.CreateProfile)
	tutors.GET("", tutorHandler.GetProfile)
	tutors.PUT("", tutorHandler.UpdateProfile)
	tutors.GET("/availability", tutorHandler.ListAvailability)
	tutors.POST("/availability", tutorHandler.AddAvailability)
	tutors.PUT("/availability", tutorHandler.ReplaceAvailability)
	tutors.DELETE("/availability/:id", tutorHandler.DeleteAvailability)

	bookings := authed.Group("/bookings")
	bookings.POST("", middleware.RequireRoles(models.RoleStudent), bookingHandler.Create)
	bookings.GET("", bookingHandler.List)
	bookings.GET("/export", bookingHandler.Export)
	bookings.GET("/:id", bookingHandler.Get)
	bookings.PATCH("/:id/cancel", bookingHandler.Cancel)
	bookings.PATCH("/:id/complete", middleware.RequireRoles(models.RoleTutor), bookingHandler.Complete)

	reviews := authed.Group("/reviews")
	reviews.POST("", middleware.RequireRoles(models.RoleStudent), reviewHandler.Create)
	reviews.GET("/me", reviewHandler.ListMine)

	admin := authed.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/bookings", adminHandler.ListBookings)
	admin.PATCH("/bookings/:id/cancel", adminHandler.CancelBooking)
	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.PATCH("/users/:id/ban", adminHandler.BanUser)
	admin.POST("/categories", adminHandler.CreateCategory)
	admin.PUT("/categories/:id", adminHandler.UpdateCategory)
	admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
