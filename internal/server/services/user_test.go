package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/afterlog/internal/clockx"
	"github.com/dmitrijs2005/afterlog/internal/common"
	"github.com/dmitrijs2005/afterlog/internal/cryptox"
	"github.com/dmitrijs2005/afterlog/internal/server/auth"
	"github.com/dmitrijs2005/afterlog/internal/server/config"
	"github.com/dmitrijs2005/afterlog/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newUserService(t *testing.T, rm *fakeRepoManager) (*UserService, *clockx.Fake) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		SignInAttemptsPerMinute:      2,
		SignInBurst:                  2,
	}
	s := NewUserService(db, rm, cfg)
	clock := clockx.NewFake(now)
	s.clock = clock
	return s, clock
}

func expectTx(t *testing.T, s *UserService, commit bool) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
	s.db = db
	t.Cleanup(func() { require.NoError(t, mock.ExpectationsWereMet()) })
}

func TestSignUp_CreatesAccountAndSession(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
	s, _ := newUserService(t, rm)
	expectTx(t, s, true)

	pair, err := s.SignUp(context.Background(), "  Ann@Example.com ", "secret1")
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", pair.Email)
	assert.Equal(t, "u-ann@example.com", pair.UserID)
	assert.NotEmpty(t, pair.RefreshToken)

	stored := rm.u.byEmail["ann@example.com"]
	ok, err := cryptox.VerifyPassword(stored.PasswordHash, "secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	claims, err := auth.ParseToken(pair.AccessToken, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, pair.UserID, claims.UserID)
	assert.Equal(t, pair.Email, claims.Email)

	rt := rm.r.tokens[pair.RefreshToken]
	require.NotNil(t, rt)
	assert.Equal(t, now.Add(2*time.Hour), rt.Expires)
}

func TestSignUp_Validation(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
	s, _ := newUserService(t, rm)

	_, err := s.SignUp(context.Background(), "not-an-email", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidEmail)

	_, err = s.SignUp(context.Background(), "Ann <ann@example.com>", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidEmail)

	_, err = s.SignUp(context.Background(), "ann@example.com", "12345")
	assert.ErrorIs(t, err, common.ErrWeakPassword)

	assert.Empty(t, rm.u.byEmail)
}

func TestSignUp_EmailTaken(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsersRepo(&models.User{ID: "u1", Email: "ann@example.com"}),
		r: newFakeRefreshRepo(),
	}
	s, _ := newUserService(t, rm)
	expectTx(t, s, false)

	_, err := s.SignUp(context.Background(), "ann@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrEmailTaken)
	assert.Equal(t, "user already registered", err.Error())
}

func TestSignUp_CreateError(t *testing.T) {
	users := newFakeUsersRepo()
	users.createErr = errBoom
	s, _ := newUserService(t, &fakeRepoManager{u: users, r: newFakeRefreshRepo()})
	expectTx(t, s, false)

	_, err := s.SignUp(context.Background(), "ann@example.com", "secret1")
	assert.Regexp(t, `error creating user: .*boom`, err.Error())
}

func TestSignIn_Flows(t *testing.T) {
	user := &models.User{ID: "u1", Email: "ann@example.com", PasswordHash: cryptox.HashPassword("secret1")}
	rm := &fakeRepoManager{u: newFakeUsersRepo(user), r: newFakeRefreshRepo()}
	s, _ := newUserService(t, rm)
	s.limiter = newSignInLimiter(0, 0, maxSignInBuckets)
	ctx := context.Background()

	pair, err := s.SignIn(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "u1", pair.UserID)

	_, err = s.SignIn(ctx, "ann@example.com", "wrong!")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	_, err = s.SignIn(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)

	rm.u.getErr = errBoom
	_, err = s.SignIn(ctx, "ann@example.com", "secret1")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestSignIn_RateLimitedPerEmail(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	for range 2 {
		_, err := s.SignIn(ctx, "ann@example.com", "x")
		assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	}
	_, err := s.SignIn(ctx, "ann@example.com", "x")
	assert.ErrorIs(t, err, common.ErrRateLimited)
	assert.Contains(t, err.Error(), "rate limit")

	_, err = s.SignIn(ctx, "bob@example.com", "x")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestSignIn_BadEmailTakesNoBucket(t *testing.T) {
	s, _ := newUserService(t, &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()})

	_, err := s.SignIn(context.Background(), "not an email", "x")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 0, s.limiter.Len())
}

func TestSignInLimiter_BoundedBuckets(t *testing.T) {
	l := newSignInLimiter(5, 5, 100)
	for i := range 1000 {
		assert.True(t, l.Allow(fmt.Sprintf("user%d@example.com", i)))
	}
	assert.Equal(t, 100, l.Len())
}

func TestSignInLimiter_DropsIdleBuckets(t *testing.T) {
	// One attempt every 100ms, so an idle bucket refills in 100ms.
	l := newSignInLimiter(600, 1, 100)
	for i := range 10 {
		l.Allow(fmt.Sprintf("user%d@example.com", i))
	}
	require.Positive(t, l.Len())

	require.Eventually(t, func() bool { return l.Len() == 0 }, 3*time.Second, 20*time.Millisecond)

	assert.True(t, l.Allow("user0@example.com"), "a dropped bucket starts full")
}

func TestSignInLimiter_Unlimited(t *testing.T) {
	l := newSignInLimiter(0, 0, 100)
	for range 50 {
		assert.True(t, l.Allow("ann@example.com"))
	}
	assert.Equal(t, 0, l.Len())
}

func TestRefresh_RotatesToken(t *testing.T) {
	rm := &fakeRepoManager{
		u: newFakeUsersRepo(&models.User{ID: "u1", Email: "ann@example.com"}),
		r: newFakeRefreshRepo(),
	}
	rm.r.tokens["old"] = &models.RefreshToken{UserID: "u1", Token: "old", Expires: now.Add(time.Minute)}
	s, _ := newUserService(t, rm)
	expectTx(t, s, true)

	pair, err := s.Refresh(context.Background(), "old")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", pair.Email)
	assert.NotContains(t, rm.r.tokens, "old")
	assert.Contains(t, rm.r.tokens, pair.RefreshToken)
}

func TestRefresh_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown", func(t *testing.T) {
		s, _ := newUserService(t, &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()})
		_, err := s.Refresh(ctx, "nope")
		assert.ErrorIs(t, err, common.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
		rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: now.Add(-time.Second)}
		s, _ := newUserService(t, rm)
		_, err := s.Refresh(ctx, "r")
		assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	})

	t.Run("find error", func(t *testing.T) {
		rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
		rm.r.findErr = errBoom
		s, _ := newUserService(t, rm)
		_, err := s.Refresh(ctx, "r")
		assert.Regexp(t, `error searching refresh token: .*boom`, err.Error())
	})

	t.Run("delete error rolls back", func(t *testing.T) {
		rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
		rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: now.Add(time.Minute)}
		rm.r.delErr = errBoom
		s, _ := newUserService(t, rm)
		expectTx(t, s, false)
		_, err := s.Refresh(ctx, "r")
		assert.Regexp(t, `error deleting refresh token: .*boom`, err.Error())
	})

	t.Run("create error rolls back", func(t *testing.T) {
		rm := &fakeRepoManager{
			u: newFakeUsersRepo(&models.User{ID: "u1", Email: "ann@example.com"}),
			r: newFakeRefreshRepo(),
		}
		rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1", Expires: now.Add(time.Minute)}
		rm.r.createErr = errBoom
		s, _ := newUserService(t, rm)
		expectTx(t, s, false)
		_, err := s.Refresh(ctx, "r")
		assert.True(t, errors.Is(err, common.ErrorInternal), "got %v", err)
	})
}

func TestSignOut(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
	rm.r.tokens["r"] = &models.RefreshToken{UserID: "u1"}
	s, _ := newUserService(t, rm)
	ctx := context.Background()

	require.NoError(t, s.SignOut(ctx, "r"))
	assert.Empty(t, rm.r.tokens)
	require.NoError(t, s.SignOut(ctx, "r"))
	require.NoError(t, s.SignOut(ctx, ""))

	rm.r.delErr = errBoom
	assert.Error(t, s.SignOut(ctx, "r"))
}

func TestPurgeExpiredTokens(t *testing.T) {
	rm := &fakeRepoManager{u: newFakeUsersRepo(), r: newFakeRefreshRepo()}
	rm.r.tokens["old"] = &models.RefreshToken{Expires: now.Add(-time.Hour)}
	rm.r.tokens["new"] = &models.RefreshToken{Expires: now.Add(time.Hour)}
	s, clock := newUserService(t, rm)

	n, err := s.PurgeExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, clock.Now(), rm.r.purgedAt)
	assert.Contains(t, rm.r.tokens, "new")
}
