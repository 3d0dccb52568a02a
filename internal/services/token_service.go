// internal/services/token_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/keygen"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
	"github.com/ecompria/themelock/internal/utils"
)

// ExpiresNever marks a token with no expiry.
const ExpiresNever = 0

type TokenService struct {
	tokens       store.TokenStore
	licenses     store.LicenseStore
	log          *logrus.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

func NewTokenService(tokens store.TokenStore, licenses store.LicenseStore, log *logrus.Logger, storeTimeout time.Duration) *TokenService {
	return &TokenService{
		tokens:       tokens,
		licenses:     licenses,
		log:          log,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// Issue mints an auth token bound to a shop domain under the given license.
// The license is re-checked here: a token must never be created against a
// revoked or expired license, whatever the caller believes. expiresInDays of
// ExpiresNever yields a token with no expiry.
func (s *TokenService) Issue(ctx context.Context, caller *models.User, licenseKey, shopDomain string, expiresInDays int) (*models.AuthToken, error) {
	shopDomain = strings.TrimSpace(shopDomain)
	if shopDomain == "" {
		return nil, apperrors.NewValidationError("shopDomain", "shop domain is required")
	}
	if expiresInDays < 0 {
		return nil, apperrors.NewValidationError("expiresInDays", "expiry must not be negative")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	license, err := s.licenses.GetByKey(lookupCtx, licenseKey)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("license")
		}
		return nil, apperrors.NewInfrastructureError("lookup license", err)
	}

	if err := s.authorize(caller, license); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if license.IsRevoked() {
		return nil, apperrors.NewStateError("license has been revoked")
	}
	if license.IsExpired(now) {
		return nil, apperrors.NewStateError("license has expired")
	}

	var expiresAt *time.Time
	if expiresInDays != ExpiresNever {
		t := now.AddDate(0, 0, expiresInDays)
		expiresAt = &t
	}

	for attempt := 0; attempt < maxKeyRetries; attempt++ {
		value, err := keygen.GenerateAuthToken()
		if err != nil {
			return nil, apperrors.NewInfrastructureError("generate auth token", err)
		}

		token := &models.AuthToken{
			Token:      value,
			LicenseID:  license.ID,
			ShopDomain: shopDomain,
			Status:     models.StatusActive,
			ExpiresAt:  expiresAt,
		}

		insertCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		err = s.tokens.InsertIfAbsent(insertCtx, token)
		cancel()
		if err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				s.log.WithField("attempt", attempt+1).Warn("Auth token collision, regenerating")
				continue
			}
			return nil, apperrors.NewInfrastructureError("insert token", err)
		}

		s.log.WithFields(logrus.Fields{
			"license_key": license.LicenseKey,
			"shop_domain": shopDomain,
		}).Info("Auth token issued")

		return token, nil
	}

	return nil, apperrors.NewInfrastructureError("issue token",
		errors.New("exhausted token generation retries"))
}

func (s *TokenService) ListByLicense(ctx context.Context, caller *models.User, licenseKey string) ([]models.AuthToken, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	license, err := s.licenses.GetByKey(lookupCtx, licenseKey)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("license")
		}
		return nil, apperrors.NewInfrastructureError("lookup license", err)
	}

	if err := s.authorize(caller, license); err != nil {
		return nil, err
	}

	listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	tokens, err := s.tokens.ListByLicense(listCtx, license.ID)
	if err != nil {
		return nil, apperrors.NewInfrastructureError("list tokens", err)
	}
	return tokens, nil
}

func (s *TokenService) List(ctx context.Context, params utils.PaginationParams) ([]models.AuthToken, int64, error) {
	listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	tokens, total, err := s.tokens.List(listCtx, params.Offset(), params.Limit)
	if err != nil {
		return nil, 0, apperrors.NewInfrastructureError("list tokens", err)
	}
	return tokens, total, nil
}

// Revoke flips a token to revoked. The caller must own the backing license or
// be an admin.
func (s *TokenService) Revoke(ctx context.Context, caller *models.User, tokenValue string) (*models.AuthToken, error) {
	return s.setStatus(ctx, caller, tokenValue, models.StatusRevoked)
}

// Reactivate flips a revoked token back to active. ExpiresAt is untouched, so
// an already-expired token remains effectively expired at the next validation.
func (s *TokenService) Reactivate(ctx context.Context, caller *models.User, tokenValue string) (*models.AuthToken, error) {
	return s.setStatus(ctx, caller, tokenValue, models.StatusActive)
}

func (s *TokenService) setStatus(ctx context.Context, caller *models.User, tokenValue string, status models.RecordStatus) (*models.AuthToken, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	token, err := s.tokens.GetByToken(lookupCtx, tokenValue)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("token")
		}
		return nil, apperrors.NewInfrastructureError("lookup token", err)
	}

	licenseCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	license, err := s.licenses.GetByID(licenseCtx, token.LicenseID)
	cancel()
	if err != nil {
		return nil, apperrors.NewInfrastructureError("lookup license for token", err)
	}

	if err := s.authorize(caller, license); err != nil {
		return nil, err
	}

	if token.Status == status {
		return nil, apperrors.NewStateError("token is already " + string(status))
	}

	token.Status = status
	updateCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	if err := s.tokens.Update(updateCtx, token); err != nil {
		return nil, apperrors.NewInfrastructureError("update token", err)
	}

	s.log.WithFields(logrus.Fields{
		"token":  token.Token,
		"status": token.Status,
	}).Info("Token status changed")

	return token, nil
}

func (s *TokenService) authorize(caller *models.User, license *models.License) error {
	if caller == nil {
		return apperrors.NewAuthorizationError("authentication required")
	}
	if caller.IsAdmin() {
		return nil
	}
	if license.OwnerID != nil && *license.OwnerID == caller.ID {
		return nil
	}
	return apperrors.NewAuthorizationError("you do not own this license")
}
