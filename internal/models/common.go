// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// JSONB stores unstructured payloads (audit details, webhook data).
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

type LicenseType string

const (
	LicenseTypeStandard  LicenseType = "standard"
	LicenseTypeExtended  LicenseType = "extended"
	LicenseTypeUnlimited LicenseType = "unlimited"
)

func (t LicenseType) Valid() bool {
	switch t {
	case LicenseTypeStandard, LicenseTypeExtended, LicenseTypeUnlimited:
		return true
	}
	return false
}

type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusExpired RecordStatus = "expired"
	StatusRevoked RecordStatus = "revoked"
)

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)
