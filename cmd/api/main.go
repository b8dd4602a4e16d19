package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/tejraval11/student-leave-mgmt/api/swagger"
	"github.com/tejraval11/student-leave-mgmt/internal/handler"
	"github.com/tejraval11/student-leave-mgmt/internal/middleware"
	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/repository"
	"github.com/tejraval11/student-leave-mgmt/internal/service"
	"github.com/tejraval11/student-leave-mgmt/pkg/cache"
	"github.com/tejraval11/student-leave-mgmt/pkg/config"
	"github.com/tejraval11/student-leave-mgmt/pkg/database"
	"github.com/tejraval11/student-leave-mgmt/pkg/logger"
	"github.com/tejraval11/student-leave-mgmt/pkg/mailer"
	corsmiddleware "github.com/tejraval11/student-leave-mgmt/pkg/middleware/cors"
	reqidmiddleware "github.com/tejraval11/student-leave-mgmt/pkg/middleware/requestid"
)

// @title Student Leave Management API
// @version 1.0.0
// @description Role-based leave application workflow for students, faculty and parents
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

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, unread counts uncached", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close()

	var mail mailer.Mailer
	if cfg.Email.Provider == "sendgrid" && cfg.Email.SendgridAPIKey != "" {
		mail = mailer.NewSendgrid(cfg.Email.SendgridAPIKey, cfg.Email.FromName, cfg.Email.FromAddress)
	} else {
		mail = mailer.NewConsole(logr)
	}

	userRepo := repository.NewUserRepository(db)
	directoryRepo := repository.NewDirectoryRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	metricsSvc := service.NewMetricsService()
	metricsSvc.RegisterDBStats(db)
	authSvc := service.NewAuthService(userRepo, directoryRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	leaveSvc := service.NewLeaveService(leaveRepo, historyRepo, notificationRepo, directoryRepo, userRepo, mail, metricsSvc, nil, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, cacheRepo, metricsSvc, cfg.Cache.UnreadTTL, logr)
	directorySvc := service.NewDirectoryService(directoryRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc, metricsSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	facultyHandler := handler.NewFacultyHandler(directorySvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
			auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
			auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
		}

		leaves := api.Group("/leave-applications", middleware.JWT(authSvc))
		{
			leaves.POST("", middleware.RequireRoles(models.RoleStudent), leaveHandler.Create)
			leaves.GET("", leaveHandler.List)
			leaves.GET("/:id", leaveHandler.Get)
			leaves.PATCH("/:id", leaveHandler.Transition)
			leaves.DELETE("/:id", middleware.RequireRoles(models.RoleStudent), leaveHandler.Withdraw)
		}

		notifications := api.Group("/notifications", middleware.JWT(authSvc))
		{
			notifications.GET("", notificationHandler.List)
			notifications.PATCH("/read", notificationHandler.MarkRead)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
		}

		api.GET("/faculty", middleware.JWT(authSvc), facultyHandler.List)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
