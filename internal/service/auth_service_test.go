package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/shikshalink/attendance-api/internal/models"
	"github.com/shikshalink/attendance-api/pkg/config"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
)

type usersStub struct {
	user      *models.User
	lastLogin *time.Time
}

func (s *usersStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, nil
}

func (s *usersStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	s.lastLogin = &ts
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiration: time.Hour, Issuer: "attendance-api"}
}

func activeUser(t *testing.T) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "U1",
		SchoolID:     "SCH1",
		Email:        "admin@school.example",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func TestLoginIssuesValidToken(t *testing.T) {
	users := &usersStub{user: activeUser(t)}
	svc := NewAuthService(users, nil, testJWTConfig(), zap.NewNop())

	res, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@school.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3600), res.ExpiresIn)
	assert.Equal(t, "U1", res.User.ID)
	require.NotNil(t, users.lastLogin)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.UserID)
	assert.Equal(t, "SCH1", claims.SchoolID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(&usersStub{user: activeUser(t)}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@school.example",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	svc := NewAuthService(&usersStub{}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "nobody@school.example",
		Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	user := activeUser(t)
	user.Active = false
	svc := NewAuthService(&usersStub{user: user}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@school.example",
		Password: "s3cret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	users := &usersStub{user: activeUser(t)}
	svc := NewAuthService(users, nil, testJWTConfig(), zap.NewNop())
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	res, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "admin@school.example",
		Password: "s3cret",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthenticated.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&usersStub{}, nil, testJWTConfig(), zap.NewNop())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}
