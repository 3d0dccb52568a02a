// internal/services/validation_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/keygen"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
)

// RejectionReason identifies why a token failed validation. Exactly one reason
// is reported per call, in the fixed precedence order of Validate.
type RejectionReason string

const (
	ReasonMalformedToken RejectionReason = "malformed_token"
	ReasonNotFound       RejectionReason = "not_found"
	ReasonRevoked        RejectionReason = "revoked"
	ReasonExpired        RejectionReason = "expired"
	ReasonDomainMismatch RejectionReason = "domain_mismatch"
)

var rejectionMessages = map[RejectionReason]string{
	ReasonMalformedToken: "Invalid token format",
	ReasonNotFound:       "Token not found",
	ReasonRevoked:        "Token has been revoked",
	ReasonExpired:        "Token has expired",
	ReasonDomainMismatch: "Token is not valid for this shop domain",
}

// LicenseInfo is the license metadata returned to a validly licensed theme.
type LicenseInfo struct {
	ThemeName   string             `json:"themeName"`
	ShopDomain  string             `json:"shopDomain"`
	LicenseType models.LicenseType `json:"licenseType"`
}

// ValidationResult is the outcome of a validation call. A logical rejection is
// a result, not an error; infrastructure failures are returned as errors so
// theme-side fallback logic can tell the two apart.
type ValidationResult struct {
	Valid     bool            `json:"valid"`
	Reason    RejectionReason `json:"reason,omitempty"`
	Message   string          `json:"message,omitempty"`
	License   *LicenseInfo    `json:"license,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

type ValidationService struct {
	tokens       store.TokenStore
	licenses     store.LicenseStore
	log          *logrus.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

func NewValidationService(tokens store.TokenStore, licenses store.LicenseStore, log *logrus.Logger, storeTimeout time.Duration) *ValidationService {
	return &ValidationService{
		tokens:       tokens,
		licenses:     licenses,
		log:          log,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

func invalid(reason RejectionReason) *ValidationResult {
	return &ValidationResult{
		Valid:   false,
		Reason:  reason,
		Message: rejectionMessages[reason],
	}
}

// Validate decides whether token is licensed for shopDomain. It is a pure
// decision over the token string, the domain, and the current time, plus two
// store lookups; it mutates nothing and is safe to call concurrently at high
// frequency.
//
// Checks short-circuit in a fixed order, each with its own rejection reason:
// format, existence, token revocation, token expiry, domain binding, then the
// owning license's own state. Expiry is computed from stored timestamps on
// every call (inclusive boundary); a stale status field is never trusted to
// keep an expired token alive. License-level revocation or expiry overrides a
// still-valid token, so revoking a license invalidates all of its tokens with
// no per-token update.
func (s *ValidationService) Validate(ctx context.Context, token, shopDomain string) (*ValidationResult, error) {
	// 1. Format. No store lookup happens for malformed input.
	if !keygen.IsWellFormedToken(token) {
		return invalid(ReasonMalformedToken), nil
	}

	// 2. Existence.
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	record, err := s.tokens.GetByToken(lookupCtx, token)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return invalid(ReasonNotFound), nil
		}
		return nil, apperrors.NewInfrastructureError("lookup token", err)
	}

	now := s.now().UTC()

	// 3. Token revocation.
	if record.IsRevoked() {
		return invalid(ReasonRevoked), nil
	}

	// 4. Token expiry.
	if record.IsExpired(now) {
		return invalid(ReasonExpired), nil
	}

	// 5. Domain binding. Exact match only, no wildcard or subdomain logic.
	if record.ShopDomain != shopDomain {
		return invalid(ReasonDomainMismatch), nil
	}

	// 6. Owning license. A token without a resolvable license is a data
	// integrity failure, not an "invalid" result.
	licenseCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	license, err := s.licenses.GetByID(licenseCtx, record.LicenseID)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.log.WithField("token", record.Token).Error("Token references missing license")
			return nil, apperrors.NewInfrastructureError("resolve license",
				fmt.Errorf("token %s has no backing license", record.Token))
		}
		return nil, apperrors.NewInfrastructureError("resolve license", err)
	}

	if license.IsRevoked() {
		return invalid(ReasonRevoked), nil
	}
	if license.IsExpired(now) {
		return invalid(ReasonExpired), nil
	}

	// 7. Valid. The returned expiry is the token's own, since the theme
	// caches validity against the token's lifetime, not the license's.
	return &ValidationResult{
		Valid: true,
		License: &LicenseInfo{
			ThemeName:   license.ThemeName,
			ShopDomain:  record.ShopDomain,
			LicenseType: license.LicenseType,
		},
		ExpiresAt: record.ExpiresAt,
	}, nil
}
