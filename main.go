package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"

	"easyform/api"
	"easyform/config"
	"easyform/database"
	"easyform/middleware"
	"easyform/models"
	"easyform/repository"
	"easyform/services"

	"gorm.io/gorm"
)

func main() {
	// Load application configuration
	config.LoadConfig()

	// Initialize database connection
	db, err := database.Init()
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	runMigrations(db)

	// Initialize Repositories
	submissionRepo := repository.NewSubmissionRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	log.Println("INFO: [Main] Repositories initialized.")

	// Initialize Services
	validationService := services.NewValidationService(
		config.AppConfig.App.MaxQuestionnaireLength,
		config.AppConfig.App.MaxAnswerLength,
	)
	formService := services.NewFormService(submissionRepo, draftRepo, validationService)
	draftService := services.NewDraftService(draftRepo)
	log.Println("INFO: [Main] Services initialized.")

	// Background sweep of expired drafts; the admin cleanup endpoint stays
	// the authoritative explicit sweep.
	cleanupScheduler := services.NewCleanupScheduler(draftService, time.Hour)
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	// Initialize API Handler with all dependencies
	apiHandler := api.NewAPIHandler(formService, draftService)
	log.Println("INFO: [Main] API Handler initialized.")

	// Create Gin engine
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Register middlewares
	r.Use(middleware.Logger())
	r.Use(middleware.Cors(config.AppConfig.App.CORSOrigins))
	rateLimiter := middleware.NewRateLimiter(
		config.AppConfig.RateLimitWindowDuration(),
		config.AppConfig.App.RateLimitMaxRequests,
	)
	r.Use(rateLimiter.Middleware())
	log.Println("INFO: [Main] Middlewares registered.")

	// Register routes
	registerRoutes(r, apiHandler)
	log.Println("INFO: [Main] Routes registered.")

	// Start the server
	serverPort := ":" + config.AppConfig.Server.Port
	if config.AppConfig.Server.Port == "" {
		log.Println("WARN: [Main] Server port not configured, using default :8080.")
		serverPort = ":8080"
	}
	log.Printf("INFO: [Main] Starting server on port %s", serverPort)
	if err := r.Run(serverPort); err != nil {
		log.Fatalf("FATAL: [Main] Server failed to start: %v", err)
	}
}

func runMigrations(db *gorm.DB) {
	log.Println("INFO: [Main] Running database migrations...")
	err := db.AutoMigrate(
		&models.FormSubmission{},
		&models.DraftSubmission{},
	)
	if err != nil {
		log.Fatalf("FATAL: [Main] Failed to auto-migrate database: %v", err)
	}
	log.Println("INFO: [Main] Database migration completed.")
}

func registerRoutes(r *gin.Engine, handler *api.APIHandler) {
	r.GET("/health", handler.HealthHandler)

	// API route group
	apiGroup := r.Group("/api")
	{
		formsGroup := apiGroup.Group("/forms")
		{
			formsGroup.POST("/submit", handler.SubmitFormHandler)
			formsGroup.GET("/submissions", handler.ListSubmissionsHandler)
			formsGroup.GET("/submissions/:id", handler.GetSubmissionHandler)
			formsGroup.GET("/statistics", handler.FormStatisticsHandler)
		}

		draftsGroup := apiGroup.Group("/drafts")
		{
			draftsGroup.POST("/save", handler.SaveDraftHandler)
			draftsGroup.GET("", handler.DraftStatisticsHandler)
			draftsGroup.GET("/admin/cleanup", handler.CleanupDraftsHandler)
			draftsGroup.GET("/:sessionId", handler.GetDraftHandler)
			draftsGroup.DELETE("/:sessionId", handler.DeleteDraftHandler)
		}
	}
}
