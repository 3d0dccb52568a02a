// internal/store/store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ecompria/themelock/internal/models"
)

// ErrDuplicateKey is returned by InsertIfAbsent when the generated identifier
// already exists. The store is the serialization point for uniqueness; callers
// regenerate and retry.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNotFound is returned by lookups that match no record.
var ErrNotFound = errors.New("record not found")

// LicenseStore is the durable mapping of license key to license metadata.
type LicenseStore interface {
	InsertIfAbsent(ctx context.Context, license *models.License) error
	GetByKey(ctx context.Context, key string) (*models.License, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.License, error)
	Update(ctx context.Context, license *models.License) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.License, error)
	List(ctx context.Context, offset, limit int) ([]models.License, int64, error)
}

// TokenStore is the durable mapping of token string to binding metadata.
type TokenStore interface {
	InsertIfAbsent(ctx context.Context, token *models.AuthToken) error
	GetByToken(ctx context.Context, token string) (*models.AuthToken, error)
	Update(ctx context.Context, token *models.AuthToken) error
	ListByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.AuthToken, error)
	List(ctx context.Context, offset, limit int) ([]models.AuthToken, int64, error)
}

// UserStore holds dashboard accounts.
type UserStore interface {
	InsertIfAbsent(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuditStore persists request audit rows and admin alerts.
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	InsertNotification(ctx context.Context, n *models.AdminNotification) error
	List(ctx context.Context, offset, limit int) ([]models.AuditLog, int64, error)
}
