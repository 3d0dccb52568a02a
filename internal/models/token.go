// internal/models/token.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthToken is a domain-bound credential issued against a License. A deployed
// theme presents it together with the calling shop domain on every page load.
type AuthToken struct {
	BaseModel
	Token      string       `json:"token" gorm:"type:varchar(32);uniqueIndex;not null"`
	LicenseID  uuid.UUID    `json:"license_id" gorm:"type:uuid;not null;index"`
	ShopDomain string       `json:"shop_domain" gorm:"type:varchar(255);not null"`
	Status     RecordStatus `json:"status" gorm:"type:varchar(20);default:'active';index"`
	ExpiresAt  *time.Time   `json:"expires_at"` // nil means the token never expires

	License License `json:"license,omitempty" gorm:"foreignKey:LicenseID"`
}

// IsExpired reports lazy expiry. Inclusive boundary, same as License; the
// stored status is not trusted on its own when the timestamp has passed.
func (t *AuthToken) IsExpired(now time.Time) bool {
	if t.Status == StatusExpired {
		return true
	}
	if t.ExpiresAt == nil {
		return false
	}
	return !now.UTC().Before(t.ExpiresAt.UTC())
}

func (t *AuthToken) IsRevoked() bool {
	return t.Status == StatusRevoked
}
