// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/keygen"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
	"github.com/ecompria/themelock/internal/utils"
)

// maxKeyRetries bounds regeneration after a store-reported key collision.
const maxKeyRetries = 5

type LicenseService struct {
	licenses     store.LicenseStore
	notifier     *NotificationService
	log          *logrus.Logger
	validityDays int
	storeTimeout time.Duration
	now          func() time.Time
}

type IssueLicenseRequest struct {
	CustomerName  string             `json:"customerName" validate:"required,min=2"`
	CustomerEmail string             `json:"customerEmail" validate:"required,email"`
	ThemeName     string             `json:"themeName" validate:"required,min=2"`
	LicenseType   models.LicenseType `json:"licenseType" validate:"required,oneof=standard extended unlimited"`
	OrderNumber   string             `json:"orderNumber,omitempty"`
}

func NewLicenseService(licenses store.LicenseStore, notifier *NotificationService, log *logrus.Logger, validityDays int, storeTimeout time.Duration) *LicenseService {
	return &LicenseService{
		licenses:     licenses,
		notifier:     notifier,
		log:          log,
		validityDays: validityDays,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Issue validates the request, mints a unique license key, and persists the
// license. Preconditions fail before any persistence; uniqueness is enforced
// by the store's insert-if-absent, not by a service-side lock, so concurrent
// issuances never produce duplicate keys.
func (s *LicenseService) Issue(ctx context.Context, req *IssueLicenseRequest) (*models.License, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if fieldErrs := utils.GetValidationErrors(err); len(fieldErrs) > 0 {
			return nil, apperrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		}
		return nil, apperrors.NewValidationError("", "invalid request")
	}

	now := s.now().UTC()
	for attempt := 0; attempt < maxKeyRetries; attempt++ {
		key, err := keygen.GenerateLicenseKey()
		if err != nil {
			return nil, apperrors.NewInfrastructureError("generate license key", err)
		}

		license := &models.License{
			LicenseKey:    key,
			CustomerName:  req.CustomerName,
			CustomerEmail: req.CustomerEmail,
			ThemeName:     req.ThemeName,
			LicenseType:   req.LicenseType,
			Status:        models.StatusActive,
			OrderNumber:   req.OrderNumber,
			ExpiresAt:     now.AddDate(0, 0, s.validityDays),
		}

		insertCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		err = s.licenses.InsertIfAbsent(insertCtx, license)
		cancel()
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				s.log.WithField("attempt", attempt+1).Warn("License key collision, regenerating")
				continue
			}
			return nil, apperrors.NewInfrastructureError("insert license", err)
		}

		s.log.WithFields(logrus.Fields{
			"license_key":  license.LicenseKey,
			"theme_name":   license.ThemeName,
			"license_type": license.LicenseType,
			"order_number": license.OrderNumber,
		}).Info("License issued")

		if s.notifier != nil {
			go s.notifier.SendLicenseIssued(license)
		}

		return license, nil
	}

	return nil, apperrors.NewInfrastructureError("issue license",
		errors.New("exhausted key generation retries"))
}

func (s *LicenseService) Get(ctx context.Context, key string) (*models.License, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	license, err := s.licenses.GetByKey(lookupCtx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("license")
		}
		return nil, apperrors.NewInfrastructureError("lookup license", err)
	}
	return license, nil
}

func (s *LicenseService) ListByOwner(ctx context.Context, owner *models.User) ([]models.License, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	licenses, err := s.licenses.ListByOwner(lookupCtx, owner.ID)
	if err != nil {
		return nil, apperrors.NewInfrastructureError("list licenses", err)
	}
	return licenses, nil
}

func (s *LicenseService) List(ctx context.Context, params utils.PaginationParams) ([]models.License, int64, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	licenses, total, err := s.licenses.List(lookupCtx, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, apperrors.NewInfrastructureError("list licenses", err)
	}
	return licenses, total, nil
}

// Revoke flips the license to revoked. The record is never deleted; revocation
// is immediately visible to subsequent validations of all of its tokens.
func (s *LicenseService) Revoke(ctx context.Context, key string) (*models.License, error) {
	return s.setStatus(ctx, key, models.StatusRevoked)
}

// Reactivate flips a revoked license back to active. ExpiresAt is untouched:
// a reactivated license whose window has passed still validates as expired.
func (s *LicenseService) Reactivate(ctx context.Context, key string) (*models.License, error) {
	return s.setStatus(ctx, key, models.StatusActive)
}

func (s *LicenseService) setStatus(ctx context.Context, key string, status models.RecordStatus) (*models.License, error) {
	license, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if license.Status == status {
		return nil, apperrors.NewStateError("license is already " + string(status))
	}

	license.Status = status
	updateCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.licenses.Update(updateCtx, license); err != nil {
		return nil, apperrors.NewInfrastructureError("update license", err)
	}

	s.log.WithFields(logrus.Fields{
		"license_key": license.LicenseKey,
		"status":      license.Status,
	}).Info("License status changed")

	return license, nil
}

// Claim binds an unclaimed license to a customer account during onboarding.
func (s *LicenseService) Claim(ctx context.Context, key string, owner *models.User) (*models.License, error) {
	license, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if license.Claimed() && *license.OwnerID != owner.ID {
		return nil, apperrors.NewStateError("license key is already registered to another account")
	}
	if license.IsRevoked() {
		return nil, apperrors.NewStateError("license has been revoked")
	}
	if license.IsExpired(s.now()) {
		return nil, apperrors.NewStateError("license has expired")
	}

	license.OwnerID = &owner.ID
	updateCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.licenses.Update(updateCtx, license); err != nil {
		return nil, apperrors.NewInfrastructureError("update license", err)
	}

	return license, nil
}
