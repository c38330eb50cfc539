package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

// AuthConfig defines configuration for the allow-list login.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
}

// AuthService checks credentials against the stored user roster and issues
// access tokens. There is no real authorization model behind it; the roster
// is a static allow-list.
type AuthService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo userRepository, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{repo: repo, validator: validate, logger: logger, config: config, now: time.Now}
}

// Login authenticates a user and returns the issued token plus the session
// flags the client route guard consumes.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}
	if user == nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	token, err := s.generateAccessToken(user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	identifier := user.StudentID
	if user.Role == models.RoleAdmin {
		identifier = user.ID
	}

	return &models.LoginResponse{
		Token:           token,
		IsAuthenticated: true,
		Role:            user.Role,
		Identifier:      identifier,
	}, nil
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

// Seed bootstraps the allow-list with a default admin and student account
// when the roster is empty.
func (s *AuthService) Seed(ctx context.Context, accounts []SeedAccount) error {
	users, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	now := s.now().UTC()
	for _, account := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(account.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		users = append(users, models.User{
			ID:           uuid.NewString(),
			Email:        account.Email,
			PasswordHash: string(hash),
			Name:         account.Name,
			Role:         account.Role,
			StudentID:    account.StudentID,
			Department:   account.Department,
			AdminRole:    account.AdminRole,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return s.repo.Save(ctx, users)
}

// SeedAccount is one bootstrap allow-list entry.
type SeedAccount struct {
	Email      string
	Password   string
	Name       string
	Role       models.UserRole
	StudentID  string
	Department string
	AdminRole  string
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		UserID:    user.ID,
		Role:      user.Role,
		StudentID: user.StudentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}
