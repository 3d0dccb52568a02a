// internal/handlers/admin.go
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/services"
	"github.com/ecompria/themelock/internal/store"
	"github.com/ecompria/themelock/internal/utils"
)

const storeTimeout = 5 * time.Second

type AdminHandler struct {
	licenseSvc *services.LicenseService
	tokenSvc   *services.TokenService
	audit      store.AuditStore
	log        *logrus.Logger
}

func NewAdminHandler(licenseSvc *services.LicenseService, tokenSvc *services.TokenService, audit store.AuditStore, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		licenseSvc: licenseSvc,
		tokenSvc:   tokenSvc,
		audit:      audit,
		log:        log,
	}
}

// POST /v1/admin/licenses. Admin-driven issuance with manual key generation.
func (h *AdminHandler) CreateLicense(c *gin.Context) {
	var req services.IssueLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	license, err := h.licenseSvc.Issue(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"license": license})
}

// GET /v1/admin/licenses
func (h *AdminHandler) GetLicenses(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	licenses, total, err := h.licenseSvc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(licenses, total, params))
}

// PUT /v1/admin/licenses/:key/revoke
func (h *AdminHandler) RevokeLicense(c *gin.Context) {
	license, err := h.licenseSvc.Revoke(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "License revoked",
		"license": license,
	})
}

// PUT /v1/admin/licenses/:key/reactivate
func (h *AdminHandler) ReactivateLicense(c *gin.Context) {
	license, err := h.licenseSvc.Reactivate(c.Request.Context(), c.Param("key"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "License reactivated",
		"license": license,
	})
}

// GET /v1/admin/tokens
func (h *AdminHandler) GetTokens(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	tokens, total, err := h.tokenSvc.List(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(tokens, total, params))
}

// PUT /v1/admin/tokens/:token/revoke
func (h *AdminHandler) RevokeToken(c *gin.Context) {
	user := currentUser(c)
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

// PUT /v1/admin/tokens/:token/reactivate
func (h *AdminHandler) ReactivateToken(c *gin.Context) {
	user := currentUser(c)
	token, err := h.tokenSvc.Reactivate(c.Request.Context(), user, c.Param("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Token reactivated",
		"token":   token,
	})
}

// GET /v1/admin/logs. Backend of the admin log viewer.
func (h *AdminHandler) GetLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), storeTimeout)
	defer cancel()

	entries, total, err := h.audit.List(ctx, params.Offset(), params.Limit)
	if err != nil {
		respondError(c, apperrors.NewInfrastructureError("list audit logs", err))
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(entries, total, params))
}
