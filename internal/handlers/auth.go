// internal/handlers/auth.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/services"
	"github.com/ecompria/themelock/internal/utils"
)

type AuthHandler struct {
	authSvc *services.AuthService
	log     *logrus.Logger
}

func NewAuthHandler(authSvc *services.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		log:     log,
	}
}

// POST /v1/auth/register. Onboarding with a purchased license key.
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	user, token, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"user":         user,
		"access_token": token,
	})
}

// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	user, token, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		var authErr *apperrors.AuthorizationError
		if errors.As(err, &authErr) {
			// Credential failures are 401, not 403.
			utils.UnauthorizedResponse(c, authErr.Message)
			return
		}
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"user":         user,
		"access_token": token,
	})
}

// GET /v1/auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	utils.SuccessResponse(c, gin.H{"user": user})
}
