// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/ecompria/themelock/internal/config"
	"github.com/ecompria/themelock/internal/handlers"
	"github.com/ecompria/themelock/internal/middleware"
	"github.com/ecompria/themelock/internal/services"
	"github.com/ecompria/themelock/internal/store"
)

func Initialize(db *gorm.DB, cfg *config.Config, log *logrus.Logger) *gin.Engine {
	storeTimeout := time.Duration(cfg.License.StoreTimeout) * time.Second

	// Stores
	licenseStore := store.NewGormLicenseStore(db)
	tokenStore := store.NewGormTokenStore(db)
	userStore := store.NewGormUserStore(db)
	auditStore := store.NewGormAuditStore(db)

	// Services
	notificationSvc := services.NewNotificationService(auditStore, cfg.Email, log)
	licenseSvc := services.NewLicenseService(licenseStore, notificationSvc, log, cfg.License.ValidityDays, storeTimeout)
	tokenSvc := services.NewTokenService(tokenStore, licenseStore, log, storeTimeout)
	validationSvc := services.NewValidationService(tokenStore, licenseStore, log, storeTimeout)
	authSvc := services.NewAuthService(userStore, licenseSvc, cfg.JWT, log, storeTimeout)
	webhookSvc := services.NewWebhookService(licenseSvc, log, cfg.License.WebhookSecret)

	// Handlers
	validateHandler := handlers.NewValidateHandler(validationSvc, log)
	licenseHandler := handlers.NewLicenseHandler(licenseSvc, log, cfg.License.APISecret)
	tokenHandler := handlers.NewTokenHandler(tokenSvc, log)
	authHandler := handlers.NewAuthHandler(authSvc, log)
	adminHandler := handlers.NewAdminHandler(licenseSvc, tokenSvc, auditStore, log)
	webhookHandler := handlers.NewWebhookHandler(webhookSvc, log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.AuditLog(auditStore, log))
	r.Use(middleware.GeneralRateLimit())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Public API consumed by deployed themes and the commerce platform.
	api := r.Group("/api")
	{
		api.POST("/validate", middleware.ValidateRateLimit(), validateHandler.Validate)
		api.POST("/create-license", licenseHandler.CreateLicense)
		api.POST("/shopify-webhook", webhookHandler.HandleOrderWebhook)
	}

	v1 := r.Group("/v1")
	{
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(authSvc), authHandler.GetProfile)
		}

		// Customer dashboard
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired(authSvc))
		{
			protected.GET("/licenses", licenseHandler.GetMyLicenses)
			protected.GET("/licenses/:key", licenseHandler.GetLicense)
			protected.GET("/licenses/:key/tokens", tokenHandler.GetLicenseTokens)
			protected.POST("/tokens", tokenHandler.CreateToken)
			protected.PUT("/tokens/:token/revoke", tokenHandler.RevokeToken)
		}

		// Admin
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(authSvc), middleware.AdminRequired())
		{
			admin.POST("/licenses", adminHandler.CreateLicense)
			admin.GET("/licenses", adminHandler.GetLicenses)
			admin.PUT("/licenses/:key/revoke", adminHandler.RevokeLicense)
			admin.PUT("/licenses/:key/reactivate", adminHandler.ReactivateLicense)
			admin.GET("/tokens", adminHandler.GetTokens)
			admin.PUT("/tokens/:token/revoke", adminHandler.RevokeToken)
			admin.PUT("/tokens/:token/reactivate", adminHandler.ReactivateToken)
			admin.GET("/logs", adminHandler.GetLogs)
		}
	}

	return r
}
