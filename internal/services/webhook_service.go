// internal/services/webhook_service.go
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/models"
)

// WebhookService consumes Shopify order-creation webhooks and turns theme
// purchases into licenses. Order-to-theme matching follows the store
// convention: a line item is a theme when its product type is "Theme" or it
// carries a theme_id property.
type WebhookService struct {
	licenseSvc    *LicenseService
	log           *logrus.Logger
	webhookSecret []byte
}

type shopifyOrder struct {
	ID           int64             `json:"id"`
	ResourceType string            `json:"resource_type"`
	OrderNumber  json.Number       `json:"order_number"`
	Customer     shopifyCustomer   `json:"customer"`
	LineItems    []shopifyLineItem `json:"line_items"`
}

type shopifyCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type shopifyLineItem struct {
	Title       string            `json:"title"`
	ProductType string            `json:"product_type"`
	Properties  []shopifyProperty `json:"properties"`
}

type shopifyProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// WebhookResult reports what an accepted webhook produced.
type WebhookResult struct {
	Processed bool     `json:"processed"`
	Message   string   `json:"message"`
	Licenses  []string `json:"licenses,omitempty"`
}

func NewWebhookService(licenseSvc *LicenseService, log *logrus.Logger, webhookSecret string) *WebhookService {
	return &WebhookService{
		licenseSvc:    licenseSvc,
		log:           log,
		webhookSecret: []byte(webhookSecret),
	}
}

// VerifySignature checks the X-Shopify-Hmac-Sha256 header against the raw
// request body. Must run on the exact bytes received, before any parsing.
func (s *WebhookService) VerifySignature(body []byte, signature string) error {
	mac := hmac.New(sha256.New, s.webhookSecret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return apperrors.NewAuthorizationError("invalid webhook signature")
	}
	return nil
}

// ProcessOrder issues one license per theme line item in the order. Non-order
// payloads and orders without theme items are acknowledged without action so
// Shopify does not retry them.
func (s *WebhookService) ProcessOrder(ctx context.Context, body []byte) (*WebhookResult, error) {
	var order shopifyOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, apperrors.NewValidationError("body", "malformed webhook payload")
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber.String(),
	}).Info("Received order webhook")

	if order.ResourceType != "" && order.ResourceType != "order" {
		return &WebhookResult{Processed: false, Message: "Not an order webhook, ignoring"}, nil
	}

	themeItems := make([]shopifyLineItem, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		if isThemeLineItem(item) {
			themeItems = append(themeItems, item)
		}
	}
	if len(themeItems) == 0 {
		s.log.WithField("order_number", order.OrderNumber.String()).Info("No theme products in order, ignoring")
		return &WebhookResult{Processed: false, Message: "No theme products in order, ignoring"}, nil
	}

	customerName := fmt.Sprintf("%s %s", order.Customer.FirstName, order.Customer.LastName)

	keys := make([]string, 0, len(themeItems))
	for _, item := range themeItems {
		licenseType := models.LicenseTypeStandard
		if v := models.LicenseType(lineItemProperty(item, "license_type")); v.Valid() {
			licenseType = v
		}

		license, err := s.licenseSvc.Issue(ctx, &IssueLicenseRequest{
			CustomerName:  customerName,
			CustomerEmail: order.Customer.Email,
			ThemeName:     item.Title,
			LicenseType:   licenseType,
			OrderNumber:   order.OrderNumber.String(),
		})
		if err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"theme_name":   item.Title,
				"order_number": order.OrderNumber.String(),
			}).Error("Failed to create license for theme")
			return nil, err
		}
		keys = append(keys, license.LicenseKey)
	}

	s.log.WithFields(logrus.Fields{
		"order_number":  order.OrderNumber.String(),
		"license_count": len(keys),
	}).Info("Licenses created for order")

	return &WebhookResult{
		Processed: true,
		Message:   "Licenses created",
		Licenses:  keys,
	}, nil
}

func isThemeLineItem(item shopifyLineItem) bool {
	if item.ProductType == "Theme" {
		return true
	}
	return lineItemProperty(item, "theme_id") != ""
}

func lineItemProperty(item shopifyLineItem, name string) string {
	for _, p := range item.Properties {
		if p.Name == name {
			return p.Value
		}
	}
	return ""
}
