// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// License is a durable grant of rights to use one named theme. Never deleted;
// revocation and expiry are status transitions so audit history survives.
type License struct {
	BaseModel
	LicenseKey    string       `json:"license_key" gorm:"type:varchar(32);uniqueIndex;not null"`
	CustomerName  string       `json:"customer_name" gorm:"type:varchar(255);not null"`
	CustomerEmail string       `json:"customer_email" gorm:"type:varchar(255);not null;index"`
	ThemeName     string       `json:"theme_name" gorm:"type:varchar(255);not null"`
	LicenseType   LicenseType  `json:"license_type" gorm:"type:varchar(20);not null"`
	Status        RecordStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	OrderNumber   string       `json:"order_number,omitempty" gorm:"type:varchar(64)"`
	OwnerID       *uuid.UUID   `json:"owner_id,omitempty" gorm:"type:uuid;index"`
	ExpiresAt     time.Time    `json:"expires_at" gorm:"not null"`

	Owner  *User       `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
	Tokens []AuthToken `json:"tokens,omitempty" gorm:"foreignKey:LicenseID"`
}

// IsExpired reports lazy expiry from the stored timestamp. The boundary is
// inclusive: a license whose ExpiresAt equals now is already expired. A stored
// status of "expired" counts even if the timestamp was never backfilled.
func (l *License) IsExpired(now time.Time) bool {
	if l.Status == StatusExpired {
		return true
	}
	return !now.UTC().Before(l.ExpiresAt.UTC())
}

func (l *License) IsRevoked() bool {
	return l.Status == StatusRevoked
}

// Claimed reports whether a customer account has registered this key.
func (l *License) Claimed() bool {
	return l.OwnerID != nil
}
