package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserServiceCreateAndAuthenticate(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.Equal(t, "deadpool@example.com", u.Email)
	require.False(t, u.Confirmed)
	require.NotEqual(t, "123456789", u.Password, "password must be stored hashed")
	require.True(t, strings.HasPrefix(u.Avatar, "https://www.gravatar.com/avatar/"))

	require.True(t, svc.CheckPassword(u, "123456789"))
	require.False(t, svc.CheckPassword(u, "wrong"))
}

func TestUserServiceDuplicateEmail(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	_, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "deadpool2", "deadpool@example.com", "987654321")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserServiceConfirm(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)
	require.NoError(t, svc.Confirm(ctx, u.Email))

	got, err := svc.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, got.Confirmed)
}

func TestUserServiceRefreshTokenLifecycle(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateRefreshToken(ctx, u, "refresh-1"))

	got, err := svc.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "refresh-1", got.RefreshToken)

	require.NoError(t, svc.UpdateRefreshToken(ctx, got, ""))
	got, err = svc.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Empty(t, got.RefreshToken)
}

func TestUserServiceSetPasswordRevokesRefreshToken(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)
	require.NoError(t, svc.UpdateRefreshToken(ctx, u, "refresh-1"))

	require.NoError(t, svc.SetPassword(ctx, u.Email, "new-password"))

	got, err := svc.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, svc.CheckPassword(got, "new-password"))
	require.False(t, svc.CheckPassword(got, "123456789"))
	require.Empty(t, got.RefreshToken, "reset must force re-login")
}

func TestUserServiceSetPasswordUnknownEmail(t *testing.T) {
	svc := NewUserService(testDB(t))
	err := svc.SetPassword(context.Background(), "nobody@example.com", "irrelevant")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserServiceUpdateAvatar(t *testing.T) {
	svc := NewUserService(testDB(t))
	ctx := context.Background()

	u, err := svc.Create(ctx, "deadpool", "deadpool@example.com", "123456789")
	require.NoError(t, err)

	got, err := svc.UpdateAvatar(ctx, u.Email, "https://cdn.example.com/avatars/1/x.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/avatars/1/x.png", got.Avatar)
}
