// internal/services/validation_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/models"
)

type ValidationServiceTestSuite struct {
	suite.Suite
	licenses      *memLicenseStore
	tokens        *memTokenStore
	licenseSvc    *LicenseService
	tokenSvc      *TokenService
	validationSvc *ValidationService
	admin         *models.User
	now           time.Time
}

func (suite *ValidationServiceTestSuite) SetupTest() {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	suite.licenses = newMemLicenseStore()
	suite.tokens = newMemTokenStore()
	suite.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	suite.licenseSvc = NewLicenseService(suite.licenses, nil, log, 365, time.Second)
	suite.licenseSvc.now = func() time.Time { return suite.now }

	suite.tokenSvc = NewTokenService(suite.tokens, suite.licenses, log, time.Second)
	suite.tokenSvc.now = func() time.Time { return suite.now }

	suite.validationSvc = NewValidationService(suite.tokens, suite.licenses, log, time.Second)
	suite.validationSvc.now = func() time.Time { return suite.now }

	suite.admin = &models.User{Role: models.RoleAdmin}
}

func (suite *ValidationServiceTestSuite) issueLicense() *models.License {
	license, err := suite.licenseSvc.Issue(context.Background(), &IssueLicenseRequest{
		CustomerName:  "Jane Merchant",
		CustomerEmail: "jane@example.com",
		ThemeName:     "Premium Theme",
		LicenseType:   models.LicenseTypeStandard,
	})
	suite.Require().NoError(err)
	return license
}

func (suite *ValidationServiceTestSuite) issueToken(license *models.License, domain string, days int) *models.AuthToken {
	token, err := suite.tokenSvc.Issue(context.Background(), suite.admin, license.LicenseKey, domain, days)
	suite.Require().NoError(err)
	return token
}

func (suite *ValidationServiceTestSuite) TestRoundTripValid() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 90)

	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.True(result.Valid)
	suite.Require().NotNil(result.License)
	suite.Equal("Premium Theme", result.License.ThemeName)
	suite.Equal("mystore.myshopify.com", result.License.ShopDomain)
	suite.Equal(models.LicenseTypeStandard, result.License.LicenseType)

	// The returned expiry is the token's, not the license's.
	suite.Require().NotNil(result.ExpiresAt)
	suite.Equal(suite.now.AddDate(0, 0, 90), result.ExpiresAt.UTC())
}

func (suite *ValidationServiceTestSuite) TestDomainMismatch() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 90)

	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "other-store.myshopify.com")
	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(ReasonDomainMismatch, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestMalformedTokenSkipsStoreLookup() {
	before := suite.tokens.lookups
	result, err := suite.validationSvc.Validate(context.Background(), "not-a-token", "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(ReasonMalformedToken, result.Reason)
	suite.Equal("Invalid token format", result.Message)
	suite.Equal(before, suite.tokens.lookups, "malformed input must not reach the store")
}

func (suite *ValidationServiceTestSuite) TestUnknownToken() {
	result, err := suite.validationSvc.Validate(context.Background(), "tk_00000000000000000000", "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(ReasonNotFound, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestRevokedToken() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 90)

	_, err := suite.tokenSvc.Revoke(context.Background(), suite.admin, token.Token)
	suite.Require().NoError(err)

	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonRevoked, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestExpiryBoundaryInclusive() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 90)
	expiry := suite.now.AddDate(0, 0, 90)

	// One instant before expiry: still valid.
	suite.validationSvc.now = func() time.Time { return expiry.Add(-time.Nanosecond) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.True(result.Valid)

	// Exactly at expiry: expired.
	suite.validationSvc.now = func() time.Time { return expiry }
	result, err = suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.False(result.Valid)
	suite.Equal(ReasonExpired, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestExpiredTokenWithStaleActiveStatus() {
	// The stored status stays "active"; only the timestamp has passed. The
	// timestamp must win.
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 30)

	suite.validationSvc.now = func() time.Time { return suite.now.AddDate(0, 0, 31) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonExpired, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestNeverExpiresToken() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", ExpiresNever)

	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.True(result.Valid)
	suite.Nil(result.ExpiresAt)
}

func (suite *ValidationServiceTestSuite) TestRejectionPrecedenceRevokedBeforeExpiredAndDomain() {
	// A token that is revoked AND expired AND presented with the wrong
	// domain reports exactly the highest-precedence reason: revoked.
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 30)
	_, err := suite.tokenSvc.Revoke(context.Background(), suite.admin, token.Token)
	suite.Require().NoError(err)

	suite.validationSvc.now = func() time.Time { return suite.now.AddDate(0, 0, 60) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "wrong.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonRevoked, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestExpiredBeforeDomainMismatch() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", 30)

	suite.validationSvc.now = func() time.Time { return suite.now.AddDate(0, 0, 60) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "wrong.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonExpired, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestLicenseRevocationCascades() {
	// Revoking the license invalidates all of its tokens on the next call
	// with no per-token update.
	license := suite.issueLicense()
	tokenA := suite.issueToken(license, "a.myshopify.com", 90)
	tokenB := suite.issueToken(license, "b.myshopify.com", ExpiresNever)

	_, err := suite.licenseSvc.Revoke(context.Background(), license.LicenseKey)
	suite.Require().NoError(err)

	result, err := suite.validationSvc.Validate(context.Background(), tokenA.Token, "a.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonRevoked, result.Reason)

	result, err = suite.validationSvc.Validate(context.Background(), tokenB.Token, "b.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonRevoked, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestLicenseExpiryOverridesValidToken() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", ExpiresNever)

	// Past the license's 365-day window but the token never expires.
	suite.validationSvc.now = func() time.Time { return suite.now.AddDate(0, 0, 366) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonExpired, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestReactivatedExpiredLicenseStillExpired() {
	license := suite.issueLicense()
	token := suite.issueToken(license, "mystore.myshopify.com", ExpiresNever)

	_, err := suite.licenseSvc.Revoke(context.Background(), license.LicenseKey)
	suite.Require().NoError(err)
	_, err = suite.licenseSvc.Reactivate(context.Background(), license.LicenseKey)
	suite.Require().NoError(err)

	suite.validationSvc.now = func() time.Time { return suite.now.AddDate(0, 0, 400) }
	result, err := suite.validationSvc.Validate(context.Background(), token.Token, "mystore.myshopify.com")
	suite.Require().NoError(err)
	suite.Equal(ReasonExpired, result.Reason)
}

func (suite *ValidationServiceTestSuite) TestTokenWithoutLicenseIsInfrastructureError() {
	orphan := &models.AuthToken{
		Token:      "tk_orphan000000000000aa",
		LicenseID:  uuid.New(),
		ShopDomain: "mystore.myshopify.com",
		Status:     models.StatusActive,
	}
	suite.Require().NoError(suite.tokens.InsertIfAbsent(context.Background(), orphan))

	result, err := suite.validationSvc.Validate(context.Background(), orphan.Token, "mystore.myshopify.com")
	suite.Require().Error(err)
	suite.Nil(result)

	var infraErr *apperrors.InfrastructureError
	suite.True(errors.As(err, &infraErr))
}

func TestValidationServiceSuite(t *testing.T) {
	suite.Run(t, new(ValidationServiceTestSuite))
}
