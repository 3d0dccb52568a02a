// internal/store/gorm_store.go
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ecompria/themelock/internal/models"
)

// Gorm-backed implementations. Uniqueness rides on the unique indexes declared
// in the models; gorm's TranslateError surfaces violations as ErrDuplicatedKey,
// which becomes the ErrDuplicateKey sentinel here.

type GormLicenseStore struct {
	db *gorm.DB
}

func NewGormLicenseStore(db *gorm.DB) *GormLicenseStore {
	return &GormLicenseStore{db: db}
}

func (s *GormLicenseStore) InsertIfAbsent(ctx context.Context, license *models.License) error {
	if err := s.db.WithContext(ctx).Create(license).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *GormLicenseStore) GetByKey(ctx context.Context, key string) (*models.License, error) {
	var license models.License
	if err := s.db.WithContext(ctx).Where("license_key = ?", key).First(&license).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &license, nil
}

func (s *GormLicenseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.License, error) {
	var license models.License
	if err := s.db.WithContext(ctx).First(&license, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &license, nil
}

func (s *GormLicenseStore) Update(ctx context.Context, license *models.License) error {
	return s.db.WithContext(ctx).Save(license).Error
}

func (s *GormLicenseStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.License, error) {
	var licenses []models.License
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&licenses).Error
	return licenses, err
}

func (s *GormLicenseStore) List(ctx context.Context, offset, limit int) ([]models.License, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.License{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var licenses []models.License
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&licenses).Error
	return licenses, total, err
}

type GormTokenStore struct {
	db *gorm.DB
}

func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db}
}

func (s *GormTokenStore) InsertIfAbsent(ctx context.Context, token *models.AuthToken) error {
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *GormTokenStore) GetByToken(ctx context.Context, token string) (*models.AuthToken, error) {
	var record models.AuthToken
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (s *GormTokenStore) Update(ctx context.Context, token *models.AuthToken) error {
	return s.db.WithContext(ctx).Save(token).Error
}

func (s *GormTokenStore) ListByLicense(ctx context.Context, licenseID uuid.UUID) ([]models.AuthToken, error) {
	var tokens []models.AuthToken
	err := s.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("created_at DESC").
		Find(&tokens).Error
	return tokens, err
}

func (s *GormTokenStore) List(ctx context.Context, offset, limit int) ([]models.AuthToken, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuthToken{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tokens []models.AuthToken
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&tokens).Error
	return tokens, total, err
}

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) InsertIfAbsent(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateKey
		}
		return err
	}
	return nil
}

func (s *GormUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *GormUserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

type GormAuditStore struct {
	db *gorm.DB
}

func NewGormAuditStore(db *gorm.DB) *GormAuditStore {
	return &GormAuditStore{db: db}
}

func (s *GormAuditStore) Insert(ctx context.Context, entry *models.AuditLog) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *GormAuditStore) InsertNotification(ctx context.Context, n *models.AdminNotification) error {
	return s.db.WithContext(ctx).Create(n).Error
}

func (s *GormAuditStore) List(ctx context.Context, offset, limit int) ([]models.AuditLog, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
