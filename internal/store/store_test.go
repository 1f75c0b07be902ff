package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRepos(t *testing.T) (Repos, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	return New(gdb).Repos(), mock
}

func userColumns() []string {
	return []string{"id", "name", "mobile", "email", "password", "created_at", "updated_at", "deleted_at", "created_by", "updated_by", "deleted_by"}
}

func TestFindByAccountLoadsGrants(t *testing.T) {
	repos, mock := newMockRepos(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "user" WHERE \(mobile = \$1 OR email = \$2\) AND "user"\."deleted_at" IS NULL`).
		WithArgs("0912345678", "0912345678", 1).
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow(7, "Alice", "0912345678", "alice@example.com", "hash", now, now, nil, nil, nil, nil))
	mock.ExpectQuery(`SELECT \* FROM "authority" WHERE "authority"\."user_id" = \$1 AND "authority"\."deleted_at" IS NULL`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "function_key", "authority"}).
			AddRow(1, 7, "P_P11", 15))

	u, err := repos.Users.FindByAccount(context.Background(), "0912345678")
	require.NoError(t, err)
	require.EqualValues(t, 7, u.ID)
	require.Len(t, u.Authorities, 1)
	require.Equal(t, "P_P11", u.Authorities[0].FunctionKey)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByAccountNotFound(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(`SELECT \* FROM "user"`).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := repos.Users.FindByAccount(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsEmailExcludesSelf(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user" WHERE email = \$1 AND id <> \$2 AND "user"\."deleted_at" IS NULL`).
		WithArgs("alice@example.com", 7).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	taken, err := repos.Users.ExistsEmail(context.Background(), "alice@example.com", 7)
	require.NoError(t, err)
	require.False(t, taken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionFindByToken(t *testing.T) {
	repos, mock := newMockRepos(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT \* FROM "auth_token" WHERE token = \$1 AND "auth_token"\."deleted_at" IS NULL`).
		WithArgs("jwt-abc", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "refresh_token", "created_at", "updated_at"}).
			AddRow(3, 7, "jwt-abc", "refresh-xyz", now, now))

	row, err := repos.Sessions.FindByToken(context.Background(), "jwt-abc")
	require.NoError(t, err)
	require.EqualValues(t, 7, row.UserID)
	require.Equal(t, "refresh-xyz", row.RefreshToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdateToken(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "auth_token" SET "token"=\$1,"updated_at"=\$2 WHERE token = \$3 AND "auth_token"\."deleted_at" IS NULL`).
		WithArgs("jwt-new", sqlmock.AnyArg(), "jwt-old").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repos.Sessions.UpdateToken(context.Background(), "jwt-old", "jwt-new")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionUpdateTokenMissingRow(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "auth_token"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repos.Sessions.UpdateToken(context.Background(), "gone", "jwt-new")
	require.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionDeleteIsSoftAndIdempotent(t *testing.T) {
	repos, mock := newMockRepos(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "auth_token" SET "deleted_at"=\$1 WHERE token = \$2 AND "auth_token"\."deleted_at" IS NULL`).
		WithArgs(sqlmock.AnyArg(), "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, repos.Sessions.Delete(context.Background(), "gone"))
	require.NoError(t, mock.ExpectationsWereMet())
}
