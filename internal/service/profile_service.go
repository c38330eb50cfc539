package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

type profileRepository interface {
	Profile(ctx context.Context, role models.UserRole) (*models.Profile, error)
	SaveProfile(ctx context.Context, role models.UserRole, profile models.Profile) error
}

// ProfileService reads and writes the studentDetails / adminDetails records.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
	seeds     map[models.UserRole]models.Profile
}

// NewProfileService constructs the service. The per-role seed is returned
// (and persisted) when no profile exists yet for that role.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger, seeds map[models.UserRole]models.Profile) *ProfileService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger, seeds: seeds}
}

// UpdateProfileRequest describes the editable profile fields.
type UpdateProfileRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	StudentID  string `json:"studentId"`
	Department string `json:"department"`
	AdminRole  string `json:"adminRole"`
}

// Get returns the profile for the role, bootstrapping the default when none
// has been stored yet.
func (s *ProfileService) Get(ctx context.Context, role models.UserRole) (*models.Profile, error) {
	profile, err := s.repo.Profile(ctx, role)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	if profile != nil {
		return profile, nil
	}

	seeded, ok := s.seeds[role]
	if !ok {
		return &models.Profile{}, nil
	}
	if err := s.repo.SaveProfile(ctx, role, seeded); err != nil {
		s.logger.Warn("profile bootstrap write failed", zap.Error(err))
	}
	return &seeded, nil
}

// Update stores the edited profile.
func (s *ProfileService) Update(ctx context.Context, role models.UserRole, req UpdateProfileRequest) (*models.Profile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile := models.Profile{
		Name:       req.Name,
		Email:      req.Email,
		StudentID:  req.StudentID,
		Department: req.Department,
		AdminRole:  req.AdminRole,
	}
	if err := s.repo.SaveProfile(ctx, role, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist profile")
	}
	return &profile, nil
}
