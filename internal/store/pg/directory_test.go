package pg

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"tierdir.org/internal/directory"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

func userColumns() []string {
	return []string{"id", "username", "email", "password_hash", "locked", "created_at", "updated_at"}
}

func TestFindNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("from users where id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	_, err := store.Find(context.Background(), "missing")
	if !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestFindScansRecord(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("from users where id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows(userColumns()).
			AddRow("u1", "ann", "ann@example.org", "hash", false, now, now))

	rec, err := store.Find(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if rec.Username != "ann" || rec.Locked {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("insert into users")).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	now := time.Now().UTC()
	rec := directory.Record{ID: "u1", Username: "ann", Email: "ann@example.org",
		PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	err := store.Create(context.Background(), &rec, "User", 5)
	if !errors.Is(err, directory.ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceRoleTierTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("select 1 from users where id = $1 for update")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta("delete from user_roles where user_id = $1")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("insert into user_roles")).
		WithArgs("u1", "Manager").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("delete from user_claims")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("insert into user_claims")).
		WithArgs("u1", "3").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("update users set updated_at")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := store.ReplaceRoleTier(context.Background(), "u1", "Manager", 3); err != nil {
		t.Fatalf("ReplaceRoleTier: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceRoleTierUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("select 1 from users where id = $1 for update")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	err := store.ReplaceRoleTier(context.Background(), "missing", "Manager", 3)
	if !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestLockUnknownUser(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("update users set locked = true")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Lock(context.Background(), "missing")
	if !errors.Is(err, directory.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRolesAndTierClaims(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("select role_name from user_roles")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"role_name"}).AddRow("Manager"))
	mock.ExpectQuery(regexp.QuoteMeta("select claim_value from user_claims")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"claim_value"}).AddRow("3"))

	roles, err := store.Roles(context.Background(), "u1")
	if err != nil || len(roles) != 1 || roles[0] != "Manager" {
		t.Fatalf("roles = %v, err = %v", roles, err)
	}
	tiers, err := store.TierClaims(context.Background(), "u1")
	if err != nil || len(tiers) != 1 || tiers[0] != "3" {
		t.Fatalf("tiers = %v, err = %v", tiers, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
