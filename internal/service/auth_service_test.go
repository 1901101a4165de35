package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuslab/project-jury-api/internal/models"
	"github.com/campuslab/project-jury-api/pkg/config"
	appErrors "github.com/campuslab/project-jury-api/pkg/errors"
)

type mockAuthUserRepo struct {
	byEmail map[string]models.User
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.byEmail == nil {
		m.byEmail = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	m.byEmail[user.Email] = *user
	return nil
}

func (m *mockAuthUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, u := range m.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func testAuthService(repo *mockAuthUserRepo) *AuthService {
	return NewAuthService(repo, nil, zap.NewNop(), config.JWTConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "project-jury-api",
	})
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := testAuthService(repo)
	ctx := context.Background()

	info, err := svc.Register(ctx, models.RegisterRequest{
		FullName: "Ana Silva",
		Email:    "ana@example.edu",
		Password: "secret123",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@example.edu", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, info.ID, resp.User.ID)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, info.ID, claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)
}

func TestAuthServiceRegisterDuplicateEmail(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := testAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{FullName: "Ana", Email: "ana@example.edu", Password: "secret123"}, models.RoleProfessor)
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RegisterRequest{FullName: "Other", Email: "ana@example.edu", Password: "secret456"}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
}

func TestAuthServiceRegisterRejectsAdminRole(t *testing.T) {
	svc := testAuthService(&mockAuthUserRepo{})

	_, err := svc.Register(context.Background(), models.RegisterRequest{FullName: "Eve", Email: "eve@example.edu", Password: "secret123"}, models.RoleAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthUserRepo{}
	svc := testAuthService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, models.RegisterRequest{FullName: "Ana", Email: "ana@example.edu", Password: "secret123"}, "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@example.edu", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(&mockAuthUserRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
