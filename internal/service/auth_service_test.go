package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

type mockAuthRepo struct {
	userByEmail      *models.User
	userByID         *models.User
	findByEmailErr   error
	findByIDErr      error
	refreshTokens    map[string]*models.RefreshToken
	lastLoginUpdated bool
	revokedIDs       []string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.findByEmailErr != nil {
		return nil, m.findByEmailErr
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findByIDErr != nil {
		return nil, m.findByIDErr
	}
	if m.userByID != nil {
		return m.userByID, nil
	}
	return m.userByEmail, nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	m.refreshTokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := m.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "deptdesk-test",
	}
}

func activeUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-1",
		Email:        "admin@dept.edu",
		PasswordHash: string(hash),
		FullName:     "Dept Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@dept.edu", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.True(t, repo.lastLoginUpdated)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@dept.edu", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownUser(t *testing.T) {
	repo := &mockAuthRepo{findByEmailErr: sql.ErrNoRows}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@dept.edu", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t, "s3cret")
	user.Active = false
	repo := &mockAuthRepo{userByEmail: user}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@dept.edu", Password: "s3cret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotates(t *testing.T) {
	user := activeUser(t, "s3cret")
	repo := &mockAuthRepo{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"old-token": {ID: "rt-1", UserID: user.ID, Token: "old-token", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)
	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedIDs, "rt-1")
}

func TestRefreshTokenExpired(t *testing.T) {
	user := activeUser(t, "s3cret")
	repo := &mockAuthRepo{
		userByID: user,
		refreshTokens: map[string]*models.RefreshToken{
			"stale": {ID: "rt-2", UserID: user.ID, Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Minute)},
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	repo := &mockAuthRepo{userByEmail: activeUser(t, "s3cret")}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@dept.edu", Password: "s3cret"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(&mockAuthRepo{}, nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	repo := &mockAuthRepo{
		refreshTokens: map[string]*models.RefreshToken{
			"theirs": {ID: "rt-3", UserID: "someone-else", Token: "theirs", ExpiresAt: time.Now().UTC().Add(time.Hour)},
		},
	}
	svc := NewAuthService(repo, nil, nil, testAuthConfig())

	err := svc.Logout(context.Background(), "theirs", "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
