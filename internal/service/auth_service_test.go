package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/repository"
	"github.com/campusq/helpdesk-api/internal/store"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
)

func seedAccounts() []SeedAccount {
	return []SeedAccount{
		{Email: "admin@campusq.com", Password: "admin123", Name: "Admin", Role: models.RoleAdmin},
		{Email: "johndoe@campusq.com", Password: "student123", Name: "John Doe", Role: models.RoleStudent, StudentID: "S001"},
	}
}

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	repo := repository.NewUserRepository(store.NewMemoryKV())
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{Secret: "test_secret", Expiration: time.Hour})
	require.NoError(t, svc.Seed(context.Background(), seedAccounts()))
	return svc
}

func TestAuthServiceLoginStudent(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "johndoe@campusq.com", Password: "student123"})
	require.NoError(t, err)
	assert.True(t, resp.IsAuthenticated)
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.Equal(t, "S001", resp.Identifier)
	assert.NotEmpty(t, resp.Token)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, claims.Role)
	assert.Equal(t, "S001", claims.StudentID)
}

func TestAuthServiceLoginAdmin(t *testing.T) {
	svc := newAuthService(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@campusq.com", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)
	assert.NotEmpty(t, resp.Identifier)

	claims, err := svc.ValidateToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Empty(t, claims.StudentID)
}

func TestAuthServiceLoginEmailIsCaseInsensitive(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "JohnDoe@CampusQ.com", Password: "student123"})
	require.NoError(t, err)
}

func TestAuthServiceLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "johndoe@campusq.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@campusq.com", Password: "student123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceSeedOnlyWhenEmpty(t *testing.T) {
	repo := repository.NewUserRepository(store.NewMemoryKV())
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{Secret: "test_secret", Expiration: time.Hour})

	require.NoError(t, svc.Seed(context.Background(), seedAccounts()))
	require.NoError(t, svc.Seed(context.Background(), seedAccounts()))

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	svc := newAuthService(t)
	other := NewAuthService(repository.NewUserRepository(store.NewMemoryKV()), nil, zap.NewNop(), AuthConfig{Secret: "other_secret", Expiration: time.Hour})

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@campusq.com", Password: "admin123"})
	require.NoError(t, err)

	_, err = other.ValidateToken(resp.Token)
	require.Error(t, err)
}

func TestAuthServiceValidateTokenRejectsExpired(t *testing.T) {
	repo := repository.NewUserRepository(store.NewMemoryKV())
	svc := NewAuthService(repo, nil, zap.NewNop(), AuthConfig{Secret: "test_secret", Expiration: time.Minute})
	require.NoError(t, svc.Seed(context.Background(), seedAccounts()))

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@campusq.com", Password: "admin123"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(resp.Token)
	require.Error(t, err)
}
