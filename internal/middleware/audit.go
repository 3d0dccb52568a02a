// internal/middleware/audit.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
)

// AuditLog records every mutating request as a durable row and a structured
// log line. The rows back the admin log viewer. GET traffic (including the
// validation hot path) is logged but not persisted.
func AuditLog(audit store.AuditStore, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		persist := c.Request.Method != "GET" && c.Request.URL.Path != "/health"
		if persist && c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		c.Next()

		duration := time.Since(start)
		userID, _ := c.Get("user_id")

		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
			"user_id":  userID,
		}).Info("Request processed")

		if !persist {
			return
		}

		var userUUID *uuid.UUID
		if uid, ok := userID.(string); ok {
			if parsed, err := uuid.Parse(uid); err == nil {
				userUUID = &parsed
			}
		}

		var details map[string]interface{}
		if len(requestBody) > 0 && !isSensitivePath(c.Request.URL.Path) {
			json.Unmarshal(requestBody, &details)
		}

		level := "info"
		if c.Writer.Status() >= 500 {
			level = "error"
		} else if c.Writer.Status() >= 400 {
			level = "warn"
		}

		entry := &models.AuditLog{
			UserID:    userUUID,
			Level:     level,
			Action:    c.Request.Method + " " + c.Request.URL.Path,
			Resource:  extractResource(c.Request.URL.Path),
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Details:   models.JSONB(details),
		}

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := audit.Insert(ctx, entry); err != nil {
				log.WithError(err).Error("Failed to create audit log")
			}
		}()
	}
}

// isSensitivePath filters bodies that carry credentials or secrets out of the
// audit trail.
func isSensitivePath(path string) bool {
	return strings.Contains(path, "/auth/") ||
		strings.Contains(path, "/create-license") ||
		strings.Contains(path, "/shopify-webhook")
}

func extractResource(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		switch part {
		case "v1", "api", "admin":
			continue
		}
		return part
	}
	return "unknown"
}
