package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/models"
)

func newAuthFixture(otpPerHour int) (*AuthService, *fakeUserRepo, *fakeCodeStore, *fakeMailer) {
	users := newFakeUserRepo()
	codes := newFakeCodeStore()
	mail := &fakeMailer{}
	jwtManager := auth.NewJWTManager("test-secret", 15, 7)
	svc := NewAuthService(users, codes, mail, jwtManager, 10, otpPerHour, 7, testLogger())
	return svc, users, codes, mail
}

func TestRegisterConfirmCreatesAccount(t *testing.T) {
	svc, users, codes, mail := newAuthFixture(5)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	require.Equal(t, "amal@example.com", mail.lastTo())

	// no account exists until the code is confirmed
	u, err := users.FindByEmail(ctx, "amal@example.com")
	require.NoError(t, err)
	require.Nil(t, u)

	code, err := codes.Get(ctx, otpPrefix+"amal@example.com")
	require.NoError(t, err)
	require.Len(t, code, 6)

	user, tokens, err := svc.Confirm(ctx, "amal@example.com", code)
	require.NoError(t, err)
	require.True(t, user.IsVerified)
	require.True(t, user.IsActive)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEmpty(t, tokens.AccessToken)
	require.NotEmpty(t, tokens.RefreshToken)

	// the consumed code is gone
	code, err = codes.Get(ctx, otpPrefix+"amal@example.com")
	require.NoError(t, err)
	require.Empty(t, code)
}

func TestRegisterAgainSupersedesOTP(t *testing.T) {
	svc, _, codes, _ := newAuthFixture(5)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	first, err := codes.Get(ctx, otpPrefix+"amal@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	second, err := codes.Get(ctx, otpPrefix+"amal@example.com")
	require.NoError(t, err)

	if first != second {
		_, _, err = svc.Confirm(ctx, "amal@example.com", first)
		require.ErrorIs(t, err, apperr.ErrUnauthorized)
	}
	_, _, err = svc.Confirm(ctx, "amal@example.com", second)
	require.NoError(t, err)
}

func TestConfirmRejectsWrongCode(t *testing.T) {
	svc, _, _, _ := newAuthFixture(5)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	_, _, err := svc.Confirm(ctx, "amal@example.com", "000000x")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRegisterRateLimited(t *testing.T) {
	svc, _, _, _ := newAuthFixture(2)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	require.NoError(t, svc.Register(ctx, "amal", "amal@example.com", "", "secret123"))
	err := svc.Register(ctx, "amal", "amal@example.com", "", "secret123")
	require.ErrorIs(t, err, apperr.ErrRateLimited)
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	svc, users, _, _ := newAuthFixture(5)
	ctx := context.Background()

	users.add(&models.User{Username: "amal", Email: "amal@example.com", IsActive: true})
	err := svc.Register(ctx, "other", "amal@example.com", "", "secret123")
	require.ErrorIs(t, err, apperr.ErrConflict)
}

func TestLoginDistinguishesDisabledFromBadCredentials(t *testing.T) {
	svc, users, _, _ := newAuthFixture(5)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	users.add(&models.User{
		Username: "amal", Email: "amal@example.com",
		PasswordHash: string(hash), Role: models.RoleUser, IsActive: true,
	})
	users.add(&models.User{
		Username: "nila", Email: "nila@example.com",
		PasswordHash: string(hash), Role: models.RoleUser, IsActive: false,
	})

	_, tokens, err := svc.Login(ctx, "amal@example.com", "secret123")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)

	_, _, err = svc.Login(ctx, "amal@example.com", "wrongpass")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)

	_, _, err = svc.Login(ctx, "nila@example.com", "secret123")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestRefreshAndLogout(t *testing.T) {
	svc, users, _, _ := newAuthFixture(5)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	user := users.add(&models.User{
		Username: "amal", Email: "amal@example.com",
		PasswordHash: string(hash), Role: models.RoleUser, IsActive: true,
	})

	_, tokens, err := svc.Login(ctx, "amal@example.com", "secret123")
	require.NoError(t, err)

	rotated, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, rotated.AccessToken)

	require.NoError(t, svc.Logout(ctx, user.ID.Hex()))
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	require.ErrorIs(t, err, apperr.ErrUnauthorized)
}
