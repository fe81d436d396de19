package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	pkgauth "github.com/atelierhq/atelier-backend/pkg/auth"
	"github.com/atelierhq/atelier-backend/pkg/auth/session"
	"github.com/atelierhq/atelier-backend/pkg/config"
	"github.com/atelierhq/atelier-backend/pkg/db/models"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/security"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "atelier-test",
		ExpirationMinutes: 15,
	}
}

type stubUserRepo struct {
	user    *models.User
	findErr error
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.user == nil || s.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type stubSessionManager struct {
	generated  []string
	revoked    []string
	rotateErr  error
	refreshTok string
}

func (s *stubSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	s.generated = append(s.generated, accessID)
	return s.refreshTok, nil
}

func (s *stubSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if s.rotateErr != nil {
		return "", "", s.rotateErr
	}
	return "new-access-id", "new-refresh-token", nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func seedUser(t *testing.T, email, password string) *models.User {
	t.Helper()

	hash, err := security.HashPassword(password, config.PasswordConfig{})
	require.NoError(t, err)
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Avery",
		LastName:     "Lane",
	}
}

func newAuthService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "shopper@example.com", "correct horse battery")
	sessions := &stubSessionManager{refreshTok: "refresh-token"}
	svc := newAuthService(t, &stubUserRepo{user: user}, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "Shopper@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "refresh-token", resp.RefreshToken)
	assert.Equal(t, user.Email, resp.User.Email)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	require.Len(t, sessions.generated, 1)
	assert.Equal(t, sessions.generated[0], claims.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "shopper@example.com", "correct horse battery")
	svc := newAuthService(t, &stubUserRepo{user: user}, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "shopper@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t, &stubUserRepo{}, &stubSessionManager{})

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	accessToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now().Add(-time.Hour), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  "shopper@example.com",
		JTI:    "old-access-id",
	})
	require.NoError(t, err)

	svc := newAuthService(t, &stubUserRepo{}, &stubSessionManager{})

	resp, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "old-refresh-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "new-refresh-token", resp.RefreshToken)

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "new-access-id", claims.ID)
}

func TestRefreshInvalidToken(t *testing.T) {
	t.Parallel()

	svc := newAuthService(t, &stubUserRepo{}, &stubSessionManager{rotateErr: session.ErrInvalidRefreshToken})

	accessToken, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    "access-id",
	})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  accessToken,
		RefreshToken: "stolen",
	})
	require.Error(t, err)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected error code: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	sessions := &stubSessionManager{}
	svc := newAuthService(t, &stubUserRepo{}, sessions)

	require.NoError(t, svc.Logout(context.Background(), "access-id"))
	assert.Equal(t, []string{"access-id"}, sessions.revoked)
}
