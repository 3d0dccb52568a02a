// internal/handlers/webhook.go
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/services"
)

type WebhookHandler struct {
	webhookSvc *services.WebhookService
	log        *logrus.Logger
}

func NewWebhookHandler(webhookSvc *services.WebhookService, log *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookSvc: webhookSvc,
		log:        log,
	}
}

// POST /api/shopify-webhook
//
// Signature verification runs on the raw body before any parsing. Payloads
// that are authentic but irrelevant (non-order, no theme items) are
// acknowledged with 200 so the platform does not retry them.
func (h *WebhookHandler) HandleOrderWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	signature := c.GetHeader("X-Shopify-Hmac-Sha256")
	if err := h.webhookSvc.VerifySignature(body, signature); err != nil {
		h.log.Warn("Invalid webhook signature")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid webhook signature"})
		return
	}

	result, err := h.webhookSvc.ProcessOrder(c.Request.Context(), body)
	if err != nil {
		var validationErr *apperrors.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		h.log.WithError(err).Error("Failed to process webhook")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process webhook"})
		return
	}

	if !result.Processed {
		c.JSON(http.StatusOK, gin.H{"message": result.Message})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  result.Message,
		"licenses": result.Licenses,
	})
}
