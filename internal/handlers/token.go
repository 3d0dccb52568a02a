// internal/handlers/token.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/services"
	"github.com/ecompria/themelock/internal/utils"
)

type TokenHandler struct {
	tokenSvc *services.TokenService
	log      *logrus.Logger
}

type createTokenRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
	ShopDomain string `json:"shopDomain" validate:"required"`
	ExpiresIn  string `json:"expiresIn" validate:"required,oneof=30 90 365 never"`
}

func NewTokenHandler(tokenSvc *services.TokenService, log *logrus.Logger) *TokenHandler {
	return &TokenHandler{
		tokenSvc: tokenSvc,
		log:      log,
	}
}

// POST /v1/tokens
func (h *TokenHandler) CreateToken(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req createTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	expiresInDays := services.ExpiresNever
	if req.ExpiresIn != "never" {
		days, err := strconv.Atoi(req.ExpiresIn)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid expiry", nil)
			return
		}
		expiresInDays = days
	}

	token, err := h.tokenSvc.Issue(c.Request.Context(), user, req.LicenseKey, req.ShopDomain, expiresInDays)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"token": token})
}

// GET /v1/licenses/:key/tokens
func (h *TokenHandler) GetLicenseTokens(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	tokens, err := h.tokenSvc.ListByLicense(c.Request.Context(), user, c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"tokens": tokens})
}

// PUT /v1/tokens/:token/revoke
func (h *TokenHandler) RevokeToken(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		utils.UnauthorizedResponse(c, "")
		return
	}

	token, err := h.tokenSvc.Revoke(c.Request.Context(), user, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Token revoked",
		"token":   token,
	})
}
