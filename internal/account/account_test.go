package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/milan604/ops-admin/internal/account"
	"github.com/milan604/ops-admin/internal/authority"
	"github.com/milan604/ops-admin/internal/model"
	"github.com/milan604/ops-admin/internal/store"
	"github.com/milan604/ops-admin/internal/store/storetest"
	"github.com/milan604/ops-admin/pkg/apperr"
	"github.com/milan604/ops-admin/pkg/logger"
)

type fixture struct {
	fake   *storetest.Fake
	svc    *account.Service
	admin  account.Caller
	reader account.Caller
}

func setup(t *testing.T) *fixture {
	t.Helper()
	fake := storetest.New()
	verifier := authority.NewVerifier(authority.DefaultFunctionMap())
	svc := account.NewService(fake.Repos(), fake, verifier, logger.NewNop())

	adminID := fake.SeedUser(model.User{
		Name:   "Root",
		Mobile: "0900000001",
		Email:  "root@example.com",
		Authorities: []model.Authority{
			{FunctionKey: "P_P11", Authority: 15},
		},
	})
	readerID := fake.SeedUser(model.User{
		Name:   "Reader",
		Mobile: "0900000002",
		Email:  "reader@example.com",
		Authorities: []model.Authority{
			{FunctionKey: "P_P11", Authority: authority.Encode(authority.Read)},
		},
	})

	return &fixture{
		fake:   fake,
		svc:    svc,
		admin:  account.Caller{ID: adminID, Grants: []authority.Grant{{FunctionKey: "P_P11", Authority: 15}}},
		reader: account.Caller{ID: readerID, Grants: []authority.Grant{{FunctionKey: "P_P11", Authority: authority.Encode(authority.Read)}}},
	}
}

func validCreate() account.CreateRequest {
	return account.CreateRequest{
		Name:   "New User",
		Mobile: "0911222333",
		Email:  "new.user@example.com",
		Authorities: []authority.Grant{
			{FunctionKey: "P_P11", Authority: authority.Encode(authority.Read)},
		},
	}
}

func TestCreateHashesDefaultPassword(t *testing.T) {
	f := setup(t)

	u, err := f.svc.Create(context.Background(), f.admin, validCreate())
	require.NoError(t, err)
	require.NotZero(t, u.ID)
	require.Equal(t, f.admin.ID, *u.CreatedBy)

	stored := f.fake.User(u.ID)
	require.NotNil(t, stored)
	// default password is the last six digits of the mobile plus "AAAA"
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("222333AAAA")))
	require.Len(t, stored.Authorities, 1)
}

func TestCreateRequiresCreateGrant(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Create(context.Background(), f.reader, validCreate())
	require.True(t, apperr.Is(err, apperr.ErrorCodeForbidden))
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*account.CreateRequest)
	}{
		{"empty name", func(r *account.CreateRequest) { r.Name = "" }},
		{"name too long", func(r *account.CreateRequest) {
			r.Name = "0123456789012345678901234567890123456789"
		}},
		{"bad mobile", func(r *account.CreateRequest) { r.Mobile = "12345" }},
		{"bad email", func(r *account.CreateRequest) { r.Email = "not-an-email" }},
		{"unknown function key", func(r *account.CreateRequest) {
			r.Authorities = []authority.Grant{{FunctionKey: "P_P99", Authority: 1}}
		}},
		{"illegal authority bit", func(r *account.CreateRequest) {
			r.Authorities = []authority.Grant{{FunctionKey: "P_P11", Authority: 16}}
		}},
		{"duplicate function key", func(r *account.CreateRequest) {
			r.Authorities = []authority.Grant{
				{FunctionKey: "P_P11", Authority: 1},
				{FunctionKey: "P_P11", Authority: 2},
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			_, err := f.svc.Create(ctx, f.admin, req)
			require.True(t, apperr.Is(err, apperr.ErrorCodeValidationFail), "got %v", err)
		})
	}
}

func TestCreateRejectsDuplicateMobileAndEmail(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := validCreate()
	req.Mobile = "0900000001" // taken by admin
	_, err := f.svc.Create(ctx, f.admin, req)
	require.True(t, apperr.Is(err, apperr.ErrorCodeConflict))

	req = validCreate()
	req.Email = "root@example.com"
	_, err = f.svc.Create(ctx, f.admin, req)
	require.True(t, apperr.Is(err, apperr.ErrorCodeConflict))
}

func TestGet(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.Get(ctx, f.reader, f.admin.ID)
	require.NoError(t, err)
	require.Equal(t, "Root", u.Name)

	_, err = f.svc.Get(ctx, f.reader, 9999)
	require.True(t, apperr.Is(err, apperr.ErrorCodeValidationFail))
}

func TestListFiltersAndPages(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	users, total, err := f.svc.List(ctx, f.reader, store.ListFilter{}, store.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, users, 2)

	users, total, err = f.svc.List(ctx, f.reader, store.ListFilter{Name: "read"}, store.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Reader", users[0].Name)

	// second page of a one-per-page listing
	users, total, err = f.svc.List(ctx, f.reader, store.ListFilter{}, store.Page{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, users, 1)
}

func TestListRequiresReadGrant(t *testing.T) {
	f := setup(t)

	nobody := account.Caller{ID: 42}
	_, _, err := f.svc.List(context.Background(), nobody, store.ListFilter{}, store.Page{Page: 1, Limit: 10})
	require.True(t, apperr.Is(err, apperr.ErrorCodeForbidden))
}

func TestUpdateReplacesGrants(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, validCreate())
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, f.admin, created.ID, account.UpdateRequest{
		Name:   "Renamed",
		Mobile: created.Mobile,
		Email:  created.Email,
		Authorities: []authority.Grant{
			{FunctionKey: "P_P01", Authority: authority.Encode(authority.Read)},
			{FunctionKey: "P_P11", Authority: 15},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.Len(t, updated.Authorities, 2)

	// unchanged mobile/email do not trip the uniqueness check
	stored := f.fake.User(created.ID)
	require.Equal(t, created.Mobile, stored.Mobile)
}

func TestUpdateChecksUniquenessOnlyWhenChanged(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, validCreate())
	require.NoError(t, err)

	req := account.UpdateRequest{
		Name:        created.Name,
		Mobile:      "0900000001", // admin's mobile
		Email:       created.Email,
		Authorities: nil,
	}
	_, err = f.svc.Update(ctx, f.admin, created.ID, req)
	require.True(t, apperr.Is(err, apperr.ErrorCodeConflict))
}

func TestUpdateRequiresUpdateGrant(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Update(context.Background(), f.reader, f.admin.ID, account.UpdateRequest{
		Name: "X", Mobile: "0911222333", Email: "x@example.com",
	})
	require.True(t, apperr.Is(err, apperr.ErrorCodeForbidden))
}

func TestDeleteRemovesSessions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, validCreate())
	require.NoError(t, err)
	f.fake.SeedSession(model.AuthToken{UserID: created.ID, Token: "tok-1", RefreshToken: "ref-1"})
	f.fake.SeedSession(model.AuthToken{UserID: f.admin.ID, Token: "tok-2", RefreshToken: "ref-2"})

	require.NoError(t, f.svc.Delete(ctx, f.admin, created.ID))

	require.Nil(t, f.fake.User(created.ID))
	require.Nil(t, f.fake.Session("tok-1"))
	// other users' sessions survive
	require.NotNil(t, f.fake.Session("tok-2"))

	// deleting a missing account reports it
	err = f.svc.Delete(ctx, f.admin, created.ID)
	require.True(t, apperr.Is(err, apperr.ErrorCodeValidationFail))
}

func TestDeleteRequiresDeleteGrant(t *testing.T) {
	f := setup(t)

	err := f.svc.Delete(context.Background(), f.reader, f.admin.ID)
	require.True(t, apperr.Is(err, apperr.ErrorCodeForbidden))
}

func TestAuthenticate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.admin, validCreate())
	require.NoError(t, err)

	// by mobile with the default password
	u, err := f.svc.Authenticate(ctx, created.Mobile, "222333AAAA")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)

	// by email
	u, err = f.svc.Authenticate(ctx, created.Email, "222333AAAA")
	require.NoError(t, err)
	require.Equal(t, created.ID, u.ID)

	// neither email nor mobile shaped
	_, err = f.svc.Authenticate(ctx, "what is this", "x")
	require.True(t, apperr.Is(err, apperr.ErrorCodeValidationFail))

	// unknown account vs wrong password are distinct messages
	_, err = f.svc.Authenticate(ctx, "0999888777", "x")
	require.EqualError(t, err, "account not found")
	_, err = f.svc.Authenticate(ctx, created.Mobile, "nope")
	require.EqualError(t, err, "wrong password")
}
