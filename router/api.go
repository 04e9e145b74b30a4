package router

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/nick-lortz/steelbuild-pro-sub016/handlers"
	"github.com/nick-lortz/steelbuild-pro-sub016/internal/config"
	"github.com/nick-lortz/steelbuild-pro-sub016/services"
	"github.com/nick-lortz/steelbuild-pro-sub016/store"
)

// NewGinRouter wires the full HTTP surface over the given store. The
// raw store is wrapped in the request coalescer and, when a Redis
// client is supplied, the read-through cache.
func NewGinRouter(raw store.Store, redisClient *redis.Client) *gin.Engine {
	r := gin.Default()

	// Add CORS middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	maxConcurrent := config.App.StoreMaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 64
	}
	st := store.NewCoalesced(store.NewCached(raw, redisClient), maxConcurrent)

	// Initialize services
	notificationService, err := services.NewNotificationService(st, config.App.FirebaseCredentialsFile)
	if err != nil {
		log.Printf("Warning: notification service degraded: %v", err)
	}
	projectService := services.NewProjectService(st)
	cascadeEngine := services.NewCascadeEngine(st)
	integrityService := services.NewIntegrityService(st)
	auditService := services.NewAuditService(st)
	taskService := services.NewTaskService(st, projectService, notificationService)
	rfiService := services.NewRFIService(st, projectService, notificationService)
	financialService := services.NewFinancialService(st, projectService)
	documentService := services.NewDocumentService(st, projectService)
	userService := services.NewUserService(st)
	apiKeyService := services.NewAPIKeyService(st)
	authService := services.NewAuthService(config.App.JWTSecret)
	integrationService := services.NewIntegrationService(config.App)

	// Initialize handlers
	projectHandler := handlers.NewProjectHandler(projectService, cascadeEngine, auditService)
	taskHandler := handlers.NewTaskHandler(taskService, auditService)
	rfiHandler := handlers.NewRFIHandler(rfiService, auditService)
	financialHandler := handlers.NewFinancialHandler(financialService, auditService)
	documentHandler := handlers.NewDocumentHandler(documentService, auditService)
	integrityHandler := handlers.NewIntegrityHandler(integrityService, auditService)
	auditHandler := handlers.NewAuditHandler(auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	integrationHandler := handlers.NewIntegrationHandler(integrationService)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyService, auditService)

	authMiddleware := handlers.NewAuthMiddleware(authService, userService, apiKeyService)

	// PUBLIC ENDPOINTS (no authentication required)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/env", func(c *gin.Context) {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "development"
		}
		c.JSON(200, gin.H{
			"environment": env,
			"public_url":  config.App.PublicURL,
		})
	})

	// PROTECTED ENDPOINTS
	api := r.Group("/api")
	api.Use(authMiddleware.RequireIdentity())
	{
		projects := api.Group("/projects")
		{
			projects.POST("/list", projectHandler.List)
			projects.POST("/get", projectHandler.Get)
			projects.POST("/create", projectHandler.Create)
			projects.POST("/update", projectHandler.Update)
			projects.POST("/delete", projectHandler.Delete)
			projects.POST("/members/add", projectHandler.AddMember)
			projects.POST("/members/remove", projectHandler.RemoveMember)
		}

		tasks := api.Group("/tasks")
		{
			tasks.POST("/list", taskHandler.List)
			tasks.POST("/create", taskHandler.Create)
			tasks.POST("/update", taskHandler.Update)
			tasks.POST("/delete", taskHandler.Delete)
			tasks.POST("/history", taskHandler.History)
		}

		rfis := api.Group("/rfis")
		{
			rfis.POST("/list", rfiHandler.List)
			rfis.POST("/create", rfiHandler.Create)
			rfis.POST("/update", rfiHandler.Update)
			rfis.POST("/delete", rfiHandler.Delete)
		}

		financials := api.Group("/financials")
		{
			financials.POST("/list", financialHandler.ListLines)
			financials.POST("/create", financialHandler.CreateLine)
			financials.POST("/update", financialHandler.UpdateLine)
			financials.POST("/delete", financialHandler.DeleteLine)
		}

		costCodes := api.Group("/cost-codes")
		{
			costCodes.POST("/list", financialHandler.ListCostCodes)
			costCodes.POST("/create", financialHandler.CreateCostCode)
			costCodes.POST("/delete", financialHandler.DeleteCostCode)
		}

		documents := api.Group("/documents")
		{
			documents.POST("/list", documentHandler.List)
			documents.POST("/create", documentHandler.Create)
			documents.POST("/delete", documentHandler.Delete)
		}

		documentLinks := api.Group("/document-links")
		{
			documentLinks.POST("/create", documentHandler.Link)
			documentLinks.POST("/delete", documentHandler.Unlink)
		}

		notifications := api.Group("/notifications")
		{
			notifications.POST("/list", notificationHandler.List)
			notifications.POST("/mark-read", notificationHandler.MarkRead)
			notifications.POST("/register-device", notificationHandler.RegisterDevice)
		}

		api.POST("/integrity/check", integrityHandler.Check)
		api.POST("/audit/list", auditHandler.List)
		api.POST("/integrations/status", integrationHandler.Status)
		api.POST("/push/public-key", integrationHandler.PublicKey)
		api.POST("/api-keys/create", apiKeyHandler.Create)
	}

	return r
}
