// internal/models/audit_log.go
package models

import (
	"github.com/google/uuid"
)

// AuditLog backs the admin log viewer. One row per mutating request.
type AuditLog struct {
	BaseModel
	UserID    *uuid.UUID `json:"user_id,omitempty" gorm:"type:uuid;index"`
	Level     string     `json:"level" gorm:"type:varchar(10);default:'info';index"`
	Action    string     `json:"action" gorm:"type:varchar(255);not null"`
	Resource  string     `json:"resource" gorm:"type:varchar(64);index"`
	IPAddress string     `json:"ip_address" gorm:"type:varchar(45)"`
	UserAgent string     `json:"user_agent" gorm:"type:text"`
	Details   JSONB      `json:"details,omitempty" gorm:"type:jsonb"`
}

// AdminNotification is an in-app alert row shown on the admin dashboard.
type AdminNotification struct {
	BaseModel
	Type     string `json:"type" gorm:"type:varchar(64);not null;index"`
	Title    string `json:"title" gorm:"type:varchar(255);not null"`
	Message  string `json:"message" gorm:"type:text"`
	Priority string `json:"priority" gorm:"type:varchar(20);default:'medium'"`
	Read     bool   `json:"read" gorm:"default:false"`
}
