package main

import (
	"aigym-api/internal/handler"
	"aigym-api/internal/middleware"
	"aigym-api/pkg/config"
	"aigym-api/pkg/database"
	"aigym-api/pkg/jwtutil"
	"aigym-api/pkg/logger"
	"aigym-api/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting AI GYM API...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	dbConfig := database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}
	if err := database.Initialize(dbConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Prepare the upload directory
	if err := handler.InitUploads(cfg.Storage); err != nil {
		log.Fatal("Failed to prepare upload directory", zap.Error(err))
	}

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Admin account
	api.GET("/profile", handler.GetProfile)
	api.PATCH("/profile", handler.UpdateProfile)
	api.POST("/auth/change-password", handler.ChangePassword)
	api.POST("/auth/logout", handler.Logout)

	// Communities
	communities := api.Group("/communities")
	communities.GET("", handler.ListCommunities)
	communities.POST("", handler.CreateCommunity)
	communities.GET("/:id", handler.GetCommunity)
	communities.PUT("/:id", handler.UpdateCommunity)
	communities.DELETE("/:id", handler.DeleteCommunity, middleware.RequireSuperAdmin)
	communities.GET("/:id/features", handler.GetCommunityFeatures)
	communities.PUT("/:id/features", handler.UpdateCommunityFeatures)
	communities.POST("/:id/clone", handler.CloneCommunity)

	// Users and tags
	users := api.Group("/users")
	users.GET("", handler.ListUsers)
	users.POST("", handler.CreateUser)
	users.POST("/bulk", handler.BulkImportUsers)
	users.GET("/:id", handler.GetUser)
	users.PUT("/:id", handler.UpdateUser)
	users.DELETE("/:id", handler.DeleteUser)
	users.PUT("/:id/tags", handler.ReplaceUserTags)

	tags := api.Group("/tags")
	tags.GET("", handler.ListTags)
	tags.POST("", handler.CreateTag)
	tags.PUT("/:id", handler.UpdateTag)
	tags.DELETE("/:id", handler.DeleteTag)

	// Content repository
	contentRoutes := api.Group("/content")
	contentRoutes.GET("", handler.ListContent)
	contentRoutes.GET("/counts", handler.GetContentCounts)
	contentRoutes.POST("", handler.CreateContent)
	contentRoutes.GET("/:id", handler.GetContent)
	contentRoutes.PUT("/:id", handler.UpdateContent)
	contentRoutes.DELETE("/:id", handler.DeleteContent)
	contentRoutes.POST("/:id/copy", handler.CopyContent)
	contentRoutes.PUT("/:id/communities/:communityID/audience", handler.ReplaceContentAudience)

	// Folder trees for training content
	folders := api.Group("/folders")
	folders.GET("", handler.ListFolders)
	folders.POST("", handler.CreateFolder)
	folders.PUT("/:id", handler.UpdateFolder)
	folders.DELETE("/:id", handler.DeleteFolder)

	// Training content
	wods := api.Group("/wods")
	wods.GET("", handler.ListWods)
	wods.POST("", handler.CreateWod)
	wods.GET("/:id", handler.GetWod)
	wods.PUT("/:id", handler.UpdateWod)
	wods.DELETE("/:id", handler.DeleteWod)

	blocks := api.Group("/workout-blocks")
	blocks.GET("", handler.ListWorkoutBlocks)
	blocks.POST("", handler.CreateWorkoutBlock)
	blocks.GET("/:id", handler.GetWorkoutBlock)
	blocks.PUT("/:id", handler.UpdateWorkoutBlock)
	blocks.DELETE("/:id", handler.DeleteWorkoutBlock)

	programs := api.Group("/programs")
	programs.GET("", handler.ListPrograms)
	programs.POST("", handler.CreateProgram)
	programs.GET("/:id", handler.GetProgram)
	programs.PUT("/:id", handler.UpdateProgram)
	programs.DELETE("/:id", handler.DeleteProgram)

	// Dashboard and activity
	api.GET("/dashboard/stats", handler.GetDashboardStats)
	api.POST("/activity", handler.RecordActivity)

	// File uploads
	api.POST("/uploads/:category", handler.UploadFile)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
