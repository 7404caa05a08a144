package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"UEvents/internal/model"
	"UEvents/internal/pkg"
)

func newUserService(env *testEnv) (*UserService, *fakeTokens) {
	tokens := newFakeTokens()
	jwt := pkg.NewTokenManager(pkg.JWTConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "test",
	})
	return NewUserService(env.users, env.clubs, tokens, jwt, zap.NewNop()), tokens
}

func TestUserService_Register(t *testing.T) {
	env := newTestEnv()
	svc, _ := newUserService(env)
	ctx := context.Background()

	p, err := svc.Register(ctx, RegisterInput{Email: " Ana@Uni.EDU ", Password: "correct horse", FirstName: "Ana", Locale: "FR"})
	require.NoError(t, err)
	assert.Equal(t, "ana@uni.edu", p.Email)
	assert.Equal(t, model.RoleStudent, p.Kind)
	assert.Equal(t, "fr", p.Locale)
	require.NotNil(t, p.Student)
	assert.Nil(t, p.Club)

	stored, err := env.users.FindByEmail(ctx, "ana@uni.edu")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", stored.Password)

	tests := []struct {
		name string
		in   RegisterInput
		want pkg.Code
	}{
		{"duplicate email", RegisterInput{Email: "ana@uni.edu", Password: "12345678"}, pkg.CodeConflict},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "12345678"}, pkg.CodeInvalidInput},
		{"short password", RegisterInput{Email: "b@uni.edu", Password: "short"}, pkg.CodeInvalidInput},
		{"admin role", RegisterInput{Email: "c@uni.edu", Password: "12345678", Role: model.RoleAdmin}, pkg.CodeInvalidInput},
		{"unsupported locale", RegisterInput{Email: "d@uni.edu", Password: "12345678", Locale: "es"}, pkg.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.Equal(t, tt.want, pkg.CodeOf(err))
		})
	}
}

func TestUserService_LoginSessionLifecycle(t *testing.T) {
	env := newTestEnv()
	svc, tokens := newUserService(env)
	ctx := context.Background()

	p, err := svc.Register(ctx, RegisterInput{Email: "club@uni.edu", Password: "password1", Role: model.RoleClub})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "club@uni.edu", "wrong-password")
	assert.Equal(t, pkg.CodeUnauthorized, pkg.CodeOf(err))
	_, err = svc.Login(ctx, "nobody@uni.edu", "password1")
	assert.Equal(t, pkg.CodeUnauthorized, pkg.CodeOf(err))

	pair, err := svc.Login(ctx, "CLUB@uni.edu", "password1")
	require.NoError(t, err)
	assert.Equal(t, pair.AccessToken, tokens.m[p.ID])

	actor, err := svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, Actor{UserID: p.ID, Role: model.RoleClub, Locale: "en"}, actor)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, next.AccessToken, tokens.m[p.ID])
	_, err = svc.Authenticate(ctx, next.AccessToken)
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, next.AccessToken)
	assert.Equal(t, pkg.CodeUnauthorized, pkg.CodeOf(err))

	require.NoError(t, svc.Logout(ctx, actor))
	_, err = svc.Authenticate(ctx, next.AccessToken)
	assert.Error(t, err)
}

func TestUserService_MeAndUpdate(t *testing.T) {
	env := newTestEnv()
	svc, _ := newUserService(env)
	ctx := context.Background()

	owner, club := env.clubOwner("Chess Club")
	me, err := svc.Me(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, model.RoleClub, me.Kind)
	require.NotNil(t, me.Club)
	require.NotNil(t, me.Club.Club)
	assert.Equal(t, club.Slug, me.Club.Club.Slug)

	student := env.user(model.RoleStudent, "en")
	_, err = env.relSvc.Follow(ctx, student, club.Slug)
	require.NoError(t, err)
	me, err = svc.Me(ctx, student)
	require.NoError(t, err)
	require.NotNil(t, me.Student)
	assert.EqualValues(t, 1, me.Student.Following)

	me, err = svc.UpdateMe(ctx, student, UpdateMeInput{FirstName: sp(" Ana "), Locale: sp("fr")})
	require.NoError(t, err)
	assert.Equal(t, "Ana", me.FirstName)
	assert.Equal(t, "fr", me.Locale)

	_, err = svc.UpdateMe(ctx, student, UpdateMeInput{Locale: sp("de")})
	assert.Equal(t, pkg.CodeInvalidInput, pkg.CodeOf(err))
	_, err = svc.Me(ctx, Actor{})
	assert.Equal(t, pkg.CodeUnauthorized, pkg.CodeOf(err))
}
