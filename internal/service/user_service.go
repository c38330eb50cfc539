package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context) ([]models.User, error)
	Save(ctx context.Context, users []models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserService manages the user roster. Deleting a user never cascades to
// queries; they reference studentId by value.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// UserResponse is the roster entry without credential material.
type UserResponse struct {
	ID         string          `json:"id"`
	Email      string          `json:"email"`
	Name       string          `json:"name"`
	Role       models.UserRole `json:"role"`
	StudentID  string          `json:"studentId,omitempty"`
	Department string          `json:"department,omitempty"`
	AdminRole  string          `json:"adminRole,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// CreateUserRequest describes the create payload.
type CreateUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=6"`
	Name       string `json:"name" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=admin student"`
	StudentID  string `json:"studentId"`
	Department string `json:"department"`
	AdminRole  string `json:"adminRole"`
}

// UpdateUserRequest describes the edit payload.
type UpdateUserRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name" validate:"required"`
	StudentID  string `json:"studentId"`
	Department string `json:"department"`
	AdminRole  string `json:"adminRole"`
}

// List returns the roster, optionally filtered by search term and role.
func (s *UserService) List(ctx context.Context, search string, role models.UserRole) ([]UserResponse, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}

	term := strings.ToLower(strings.TrimSpace(search))
	result := make([]UserResponse, 0, len(users))
	for _, u := range users {
		if role != "" && u.Role != role {
			continue
		}
		if term != "" {
			haystack := strings.ToLower(u.Name + " " + u.Email + " " + u.StudentID)
			if !strings.Contains(haystack, term) {
				continue
			}
		}
		result = append(result, toUserResponse(u))
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// Create registers a new user with a hashed password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	now := s.now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		Name:         req.Name,
		Role:         models.UserRole(req.Role),
		StudentID:    req.StudentID,
		Department:   req.Department,
		AdminRole:    req.AdminRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	users = append(users, user)
	if err := s.repo.Save(ctx, users); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist users")
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// Update edits an existing user.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*UserResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}

	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}

	for i := range users {
		if users[i].ID != id {
			continue
		}
		users[i].Email = req.Email
		users[i].Name = req.Name
		users[i].StudentID = req.StudentID
		users[i].Department = req.Department
		users[i].AdminRole = req.AdminRole
		users[i].UpdatedAt = s.now().UTC()

		if err := s.repo.Save(ctx, users); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist users")
		}
		resp := toUserResponse(users[i])
		return &resp, nil
	}

	return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

// Delete removes a user from the roster.
func (s *UserService) Delete(ctx context.Context, id string) error {
	users, err := s.repo.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}

	for i := range users {
		if users[i].ID != id {
			continue
		}
		users = append(users[:i], users[i+1:]...)
		if err := s.repo.Save(ctx, users); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist users")
		}
		return nil
	}

	return appErrors.Clone(appErrors.ErrNotFound, "user not found")
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		StudentID:  u.StudentID,
		Department: u.Department,
		AdminRole:  u.AdminRole,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
