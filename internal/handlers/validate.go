// internal/handlers/validate.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/services"
)

type ValidateHandler struct {
	validationSvc *services.ValidationService
	log           *logrus.Logger
}

type validateRequest struct {
	Token      string `json:"token"`
	ShopDomain string `json:"shopDomain"`
}

func NewValidateHandler(validationSvc *services.ValidationService, log *logrus.Logger) *ValidateHandler {
	return &ValidateHandler{
		validationSvc: validationSvc,
		log:           log,
	}
}

// POST /api/validate
//
// Response contract for themes: a logical rejection is 401 with
// {valid:false, message}, an infrastructure failure is 500. The split lets a
// theme distinguish "this license is invalid" from "we could not check right
// now" and apply its own offline fallback.
func (h *ValidateHandler) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and shopDomain are required"})
		return
	}
	if req.Token == "" || req.ShopDomain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token and shopDomain are required"})
		return
	}

	result, err := h.validationSvc.Validate(c.Request.Context(), req.Token, req.ShopDomain)
	if err != nil {
		h.log.WithError(err).Error("Token validation error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate token"})
		return
	}

	if !result.Valid {
		c.JSON(http.StatusUnauthorized, gin.H{
			"valid":   false,
			"message": result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":     true,
		"license":   result.License,
		"expiresAt": result.ExpiresAt,
	})
}
