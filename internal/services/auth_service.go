// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ecompria/themelock/internal/apperrors"
	"github.com/ecompria/themelock/internal/config"
	"github.com/ecompria/themelock/internal/keygen"
	"github.com/ecompria/themelock/internal/models"
	"github.com/ecompria/themelock/internal/store"
	"github.com/ecompria/themelock/internal/utils"
)

type AuthService struct {
	users        store.UserStore
	licenseSvc   *LicenseService
	log          *logrus.Logger
	jwtSecret    []byte
	tokenTTL     time.Duration
	storeTimeout time.Duration
}

type RegisterRequest struct {
	Name       string `json:"name" validate:"required,min=2"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8"`
	LicenseKey string `json:"licenseKey" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func NewAuthService(users store.UserStore, licenseSvc *LicenseService, cfg config.JWTConfig, log *logrus.Logger, storeTimeout time.Duration) *AuthService {
	return &AuthService{
		users:        users,
		licenseSvc:   licenseSvc,
		log:          log,
		jwtSecret:    []byte(cfg.SecretKey),
		tokenTTL:     time.Duration(cfg.AccessTokenTTL) * time.Hour,
		storeTimeout: storeTimeout,
	}
}

// Register creates a customer account from a purchased license key. The key
// must be well formed, resolvable, live, and not claimed by another account;
// on success the license is bound to the new account.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*models.User, string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if fieldErrs := utils.GetValidationErrors(err); len(fieldErrs) > 0 {
			return nil, "", apperrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		}
		return nil, "", apperrors.NewValidationError("", "invalid request")
	}

	if !keygen.IsWellFormedLicenseKey(req.LicenseKey) {
		return nil, "", apperrors.NewValidationError("licenseKey", "invalid license key format")
	}

	// Resolve the license before creating the account so a bad key leaves no
	// partial state.
	license, err := s.licenseSvc.Get(ctx, req.LicenseKey)
	if err != nil {
		return nil, "", err
	}
	if license.Claimed() {
		return nil, "", apperrors.NewStateError("license key is already registered to another account")
	}
	if license.IsRevoked() {
		return nil, "", apperrors.NewStateError("license has been revoked")
	}
	if license.IsExpired(time.Now()) {
		return nil, "", apperrors.NewStateError("license has expired")
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  models.RoleCustomer,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, "", apperrors.NewInfrastructureError("hash password", err)
	}

	insertCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	err = s.users.InsertIfAbsent(insertCtx, user)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			return nil, "", apperrors.NewStateError("an account with this email already exists")
		}
		return nil, "", apperrors.NewInfrastructureError("create user", err)
	}

	if _, err := s.licenseSvc.Claim(ctx, req.LicenseKey, user); err != nil {
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{
		"email":       user.Email,
		"license_key": license.LicenseKey,
	}).Info("Customer registered")

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", apperrors.NewInfrastructureError("sign token", err)
	}
	return user, token, nil
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*models.User, string, error) {
	if err := utils.ValidateStruct(req); err != nil {
		if fieldErrs := utils.GetValidationErrors(err); len(fieldErrs) > 0 {
			return nil, "", apperrors.NewValidationError(fieldErrs[0].Field, fieldErrs[0].Message)
		}
		return nil, "", apperrors.NewValidationError("", "invalid request")
	}

	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	user, err := s.users.GetByEmail(lookupCtx, req.Email)
	cancel()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", apperrors.NewAuthorizationError("invalid email or password")
		}
		return nil, "", apperrors.NewInfrastructureError("lookup user", err)
	}

	if !user.CheckPassword(req.Password) {
		return nil, "", apperrors.NewAuthorizationError("invalid email or password")
	}

	token, err := s.generateJWT(user)
	if err != nil {
		return nil, "", apperrors.NewInfrastructureError("sign token", err)
	}
	return user, token, nil
}

func (s *AuthService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	user, err := s.users.GetByID(lookupCtx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("user")
		}
		return nil, apperrors.NewInfrastructureError("lookup user", err)
	}
	return user, nil
}

func (s *AuthService) generateJWT(user *models.User) (string, error) {
	claims := UserClaims{
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "themelock",
			Subject:   user.ID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ParseJWT validates a bearer token and returns its claims.
func (s *AuthService) ParseJWT(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
