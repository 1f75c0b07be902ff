package token_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/internal/store/storetest"
	"github.com/milan604/ops-admin/internal/token"
	"github.com/milan604/ops-admin/pkg/logger"
)

var testSecret = []byte("test-secret")

type fixture struct {
	fake *storetest.Fake
	svc  *token.Service
	now  time.Time
	user model.User
}

func setup(t *testing.T, opts ...token.Option) *fixture {
	t.Helper()
	fake := storetest.New()
	f := &fixture{
		fake: fake,
		now:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	id := fake.SeedUser(model.User{
		Name:   "Alice",
		Mobile: "0912345678",
		Email:  "alice@example.com",
		Authorities: []model.Authority{
			{FunctionKey: "P_P11", Authority: authority.Encode(authority.Read, authority.Create)},
		},
	})
	f.user = *fake.User(id)

	opts = append([]token.Option{token.WithClock(func() time.Time { return f.now })}, opts...)
	f.svc = token.NewService(fake.Repos(), testSecret, logger.NewNop(), opts...)
	return f
}

func TestIssueAndVerify(t *testing.T) {
	f := setup(t)

	pair, err := f.svc.Issue(context.Background(), &f.user)
	require.NoError(t, err)
	require.NotEmpty(t, pair.Token)
	require.Len(t, pair.RefreshToken, 64)

	// session row persisted with both tokens
	row := f.fake.Session(pair.Token)
	require.NotNil(t, row)
	require.Equal(t, f.user.ID, row.UserID)
	require.Equal(t, pair.RefreshToken, row.RefreshToken)

	payload := f.svc.Verify(pair.Token)
	require.NotNil(t, payload)
	require.Equal(t, f.user.ID, payload.ID)
	require.Equal(t, "Alice", payload.Name)
	require.Equal(t, "0912345678", payload.Mobile)
	require.Equal(t, "alice@example.com", payload.Email)
	require.Len(t, payload.Authorities, 1)
	require.Equal(t, "P_P11", payload.Authorities[0].FunctionKey)
	require.Equal(t, authority.Encode(authority.Read, authority.Create), payload.Authorities[0].Authority)
}

func TestVerifyRejectsGarbageAndForeignTokens(t *testing.T) {
	f := setup(t)

	require.Nil(t, f.svc.Verify(""))
	require.Nil(t, f.svc.Verify("not-a-jwt"))

	other := token.NewService(f.fake.Repos(), []byte("another-secret"), logger.NewNop(),
		token.WithClock(func() time.Time { return f.now }))
	pair, err := other.Issue(context.Background(), &f.user)
	require.NoError(t, err)
	require.Nil(t, f.svc.Verify(pair.Token))
}

func TestVerifyRejectsExpired(t *testing.T) {
	f := setup(t, token.WithTTL(time.Hour))

	pair, err := f.svc.Issue(context.Background(), &f.user)
	require.NoError(t, err)
	require.NotNil(t, f.svc.Verify(pair.Token))

	f.now = f.now.Add(2 * time.Hour)
	require.Nil(t, f.svc.Verify(pair.Token))
}

func TestVerifyAndLoadCurrentUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pair, err := f.svc.Issue(ctx, &f.user)
	require.NoError(t, err)

	cu, err := f.svc.VerifyAndLoadCurrentUser(ctx, "Bearer "+pair.Token)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, cu.User.ID)
	require.Equal(t, pair.Token, cu.Token)
	require.Len(t, cu.Grants, 1)

	// missing or malformed header
	_, err = f.svc.VerifyAndLoadCurrentUser(ctx, "")
	require.Error(t, err)
	_, err = f.svc.VerifyAndLoadCurrentUser(ctx, pair.Token)
	require.Error(t, err)

	// revoked session fails even though the signature is still valid
	require.NoError(t, f.svc.Revoke(ctx, pair.Token))
	_, err = f.svc.VerifyAndLoadCurrentUser(ctx, "Bearer "+pair.Token)
	require.Error(t, err)
}

func TestRefreshRotatesAccessTokenOnly(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pair, err := f.svc.Issue(ctx, &f.user)
	require.NoError(t, err)

	// different iat so the new token differs
	f.now = f.now.Add(time.Minute)

	next, err := f.svc.Refresh(ctx, pair.Token, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.Token, next.Token)
	require.Equal(t, pair.RefreshToken, next.RefreshToken)

	// old access token no longer maps to a session; the new one does
	_, err = f.svc.VerifyAndLoadCurrentUser(ctx, "Bearer "+pair.Token)
	require.Error(t, err)
	cu, err := f.svc.VerifyAndLoadCurrentUser(ctx, "Bearer "+next.Token)
	require.NoError(t, err)
	require.Equal(t, f.user.ID, cu.User.ID)

	// still exactly one session row
	require.Equal(t, 1, f.fake.SessionCount())
}

func TestRefreshMismatchMutatesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pair, err := f.svc.Issue(ctx, &f.user)
	require.NoError(t, err)

	_, err = f.svc.Refresh(ctx, pair.Token, "wrong-refresh-token")
	require.Error(t, err)

	// original session is intact and usable
	row := f.fake.Session(pair.Token)
	require.NotNil(t, row)
	require.Equal(t, pair.RefreshToken, row.RefreshToken)
	_, err = f.svc.VerifyAndLoadCurrentUser(ctx, "Bearer "+pair.Token)
	require.NoError(t, err)
}

func TestRefreshRejectsEmptyAndUnknownTokens(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Refresh(ctx, "", "refresh")
	require.Error(t, err)
	_, err = f.svc.Refresh(ctx, "token", "")
	require.Error(t, err)
	_, err = f.svc.Refresh(ctx, "unknown-token", "refresh")
	require.Error(t, err)
}

func TestRevokeIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	pair, err := f.svc.Issue(ctx, &f.user)
	require.NoError(t, err)

	require.NoError(t, f.svc.Revoke(ctx, pair.Token))
	require.NoError(t, f.svc.Revoke(ctx, pair.Token))
	require.NoError(t, f.svc.Revoke(ctx, "never-existed"))
}
