package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/store"
)

// UserRepository persists the user roster and the profile records.
type UserRepository struct {
	kv store.KV
}

// NewUserRepository creates the repository.
func NewUserRepository(kv store.KV) *UserRepository {
	return &UserRepository{kv: kv}
}

// List returns all users.
func (r *UserRepository) List(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if _, err := r.kv.Read(ctx, store.KeyUsers, &users); err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	return users, nil
}

// Save replaces the stored user roster.
func (r *UserRepository) Save(ctx context.Context, users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	if err := r.kv.Write(ctx, store.KeyUsers, users); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	return nil
}

// FindByEmail returns the user with the given email, or nil.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Profile returns the stored profile for the role, or nil when absent.
func (r *UserRepository) Profile(ctx context.Context, role models.UserRole) (*models.Profile, error) {
	var profile models.Profile
	found, err := r.kv.Read(ctx, profileKey(role), &profile)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &profile, nil
}

// SaveProfile stores the profile record for the role.
func (r *UserRepository) SaveProfile(ctx context.Context, role models.UserRole, profile models.Profile) error {
	if err := r.kv.Write(ctx, profileKey(role), profile); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

func profileKey(role models.UserRole) string {
	if role == models.RoleAdmin {
		return store.KeyAdminDetails
	}
	return store.KeyStudentDetails
}
