// internal/services/auth_service_test.go
package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/config"
	"github.com/ecompria/themelock/internal/models"
)

type AuthServiceTestSuite struct {
	suite.Suite
	licenses   *memLicenseStore
	users      *memUserStore
	licenseSvc *LicenseService
	svc        *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	suite.licenses = newMemLicenseStore()
	suite.users = newMemUserStore()

	suite.licenseSvc = NewLicenseService(suite.licenses, nil, log, 365, time.Second)
	suite.svc = NewAuthService(suite.users, suite.licenseSvc, config.JWTConfig{
		SecretKey:      "test-secret-key",
		AccessTokenTTL: 24,
	}, log, time.Second)
}

func (suite *AuthServiceTestSuite) registerRequest(licenseKey string) *RegisterRequest {
	return &RegisterRequest{
		Name:       "Jane Merchant",
		Email:      "jane@example.com",
		Password:   "hunter2hunter2",
		LicenseKey: licenseKey,
	}
}

func (suite *AuthServiceTestSuite) TestRegisterClaimsLicense() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)

	user, jwtToken, err := suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	suite.Require().NoError(err)
	suite.Equal(models.RoleCustomer, user.Role)
	suite.NotEmpty(jwtToken)

	claims, err := suite.svc.ParseJWT(jwtToken)
	suite.Require().NoError(err)
	suite.Equal(user.ID.String(), claims.UserID)
	suite.Equal("customer", claims.Role)

	stored, err := suite.licenses.GetByKey(context.Background(), license.LicenseKey)
	suite.Require().NoError(err)
	suite.Require().NotNil(stored.OwnerID)
	suite.Equal(user.ID, *stored.OwnerID)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsMalformedKey() {
	_, _, err := suite.svc.Register(context.Background(), suite.registerRequest("not-a-key"))
	suite.Require().Error(err)

	var validationErr *apperrors.ValidationError
	suite.Require().True(errors.As(err, &validationErr))
	suite.Equal("licenseKey", validationErr.Field)
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsUnknownKey() {
	_, _, err := suite.svc.Register(context.Background(), suite.registerRequest("ECOMPRIA-ZZZZ-ZZZZ-ZZZZ"))
	suite.Require().Error(err)

	var notFoundErr *apperrors.NotFoundError
	suite.True(errors.As(err, &notFoundErr))
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsClaimedKey() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)

	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	suite.Require().NoError(err)

	second := suite.registerRequest(license.LicenseKey)
	second.Email = "other@example.com"
	_, _, err = suite.svc.Register(context.Background(), second)

	var stateErr *apperrors.StateError
	suite.Require().True(errors.As(err, &stateErr))
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsDuplicateEmail() {
	first, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)
	second, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)

	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(first.LicenseKey))
	suite.Require().NoError(err)

	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(second.LicenseKey))
	var stateErr *apperrors.StateError
	suite.Require().True(errors.As(err, &stateErr))
}

func (suite *AuthServiceTestSuite) TestRegisterRejectsRevokedLicense() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)
	_, err = suite.licenseSvc.Revoke(context.Background(), license.LicenseKey)
	suite.Require().NoError(err)

	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	var stateErr *apperrors.StateError
	suite.Require().True(errors.As(err, &stateErr))
}

func (suite *AuthServiceTestSuite) TestLogin() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)
	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	suite.Require().NoError(err)

	user, jwtToken, err := suite.svc.Login(context.Background(), &LoginRequest{
		Email:    "jane@example.com",
		Password: "hunter2hunter2",
	})
	suite.Require().NoError(err)
	suite.Equal("jane@example.com", user.Email)
	suite.NotEmpty(jwtToken)
}

func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)
	_, _, err = suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	suite.Require().NoError(err)

	var authErr *apperrors.AuthorizationError

	_, _, err = suite.svc.Login(context.Background(), &LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong-password",
	})
	suite.Require().True(errors.As(err, &authErr))

	// Unknown accounts get the same answer as wrong passwords.
	_, _, err = suite.svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever123",
	})
	suite.Require().True(errors.As(err, &authErr))
}

func (suite *AuthServiceTestSuite) TestParseJWTRejectsTampering() {
	license, err := suite.licenseSvc.Issue(context.Background(), validIssueRequest())
	suite.Require().NoError(err)
	_, jwtToken, err := suite.svc.Register(context.Background(), suite.registerRequest(license.LicenseKey))
	suite.Require().NoError(err)

	_, err = suite.svc.ParseJWT(jwtToken + "x")
	suite.Error(err)

	other := NewAuthService(suite.users, suite.licenseSvc, config.JWTConfig{
		SecretKey:      "a-different-secret",
		AccessTokenTTL: 24,
	}, logrus.New(), time.Second)
	_, err = other.ParseJWT(jwtToken)
	suite.Error(err)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
