package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/store"
)

func TestUserRepositoryFindByEmail(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, []models.User{
		{ID: "u1", Email: "Jane@CampusQ.com", Name: "Jane"},
	}))

	user, err := repo.FindByEmail(ctx, "jane@campusq.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)

	missing, err := repo.FindByEmail(ctx, "nobody@campusq.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepositorySaveNilNormalizesToEmpty(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryKV())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, nil))
	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUserRepositoryProfilesArePerRole(t *testing.T) {
	repo := NewUserRepository(store.NewMemoryKV())
	ctx := context.Background()

	profile, err := repo.Profile(ctx, models.RoleStudent)
	require.NoError(t, err)
	assert.Nil(t, profile)

	require.NoError(t, repo.SaveProfile(ctx, models.RoleStudent, models.Profile{Name: "John", StudentID: "S001"}))
	require.NoError(t, repo.SaveProfile(ctx, models.RoleAdmin, models.Profile{Name: "Admin"}))

	student, err := repo.Profile(ctx, models.RoleStudent)
	require.NoError(t, err)
	require.NotNil(t, student)
	assert.Equal(t, "S001", student.StudentID)

	admin, err := repo.Profile(ctx, models.RoleAdmin)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, "Admin", admin.Name)
}
