package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"user-service/internal/domain/user"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newGormMock mirrors database.NewConnection: TranslateError on and default
// transactions around writes.
func newGormMock(t *testing.T) (*GormUserRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewGormUserRepository(db), mock
}

var gormUserColumns = []string{"id", "name", "email", "age", "created_at"}

func TestGormUserRepository_SaveInsert(t *testing.T) {
	repo, mock := newGormMock(t)
	age := 30
	u := user.NewUser("Ann", "ann@x.com", &age)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WithArgs("Ann", "ann@x.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), u))
	assert.Equal(t, int64(7), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_SaveInsertDuplicate(t *testing.T) {
	repo, mock := newGormMock(t)
	u := user.NewUser("Ann", "ann@x.com", nil)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_users_email"})
	mock.ExpectRollback()

	err := repo.Save(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, user.ErrDuplicateKey)
	assert.Equal(t, "email ann@x.com: duplicate key", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_SaveUpdate(t *testing.T) {
	repo, mock := newGormMock(t)
	u := &user.User{ID: 3, Name: "Anna", Email: "anna@x.com"}

	// Only the mutable columns plus the id; created_at is never written.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET "age"=$1,"email"=$2,"name"=$3 WHERE id = $4`)).
		WithArgs(sqlmock.AnyArg(), "anna@x.com", "Anna", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Save(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_SaveUpdateMissing(t *testing.T) {
	repo, mock := newGormMock(t)
	u := &user.User{ID: 99, Name: "Ghost", Email: "ghost@x.com"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Save(context.Background(), u)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user 99 does not exist")
	assert.False(t, errors.Is(err, user.ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_SaveUpdateDuplicate(t *testing.T) {
	repo, mock := newGormMock(t)
	u := &user.User{ID: 3, Name: "Anna", Email: "bob@x.com"}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "users" SET`)).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Save(context.Background(), u)
	assert.ErrorIs(t, err, user.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_FindByID(t *testing.T) {
	repo, mock := newGormMock(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(gormUserColumns).AddRow(5, "Ann", "ann@x.com", 30, created))

	got, err := repo.FindByID(context.Background(), 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(5), got.ID)
	assert.Equal(t, "ann@x.com", got.Email)
	require.NotNil(t, got.Age)
	assert.Equal(t, 30, *got.Age)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_FindByIDMiss(t *testing.T) {
	repo, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnRows(sqlmock.NewRows(gormUserColumns))

	got, err := repo.FindByID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_FindByIDError(t *testing.T) {
	repo, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE id = $1`)).
		WillReturnError(errors.New("connection reset"))

	got, err := repo.FindByID(context.Background(), 1)
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestGormUserRepository_FindByNameContaining(t *testing.T) {
	repo, mock := newGormMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE LOWER(name) LIKE $1 ORDER BY id`)).
		WithArgs("%john%").
		WillReturnRows(sqlmock.NewRows(gormUserColumns).
			AddRow(1, "John", "john@x.com", nil, now).
			AddRow(4, "Johnny", "johnny@x.com", 41, now))

	got, err := repo.FindByNameContaining(context.Background(), "JOHN")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "John", got[0].Name)
	assert.Nil(t, got[0].Age)
	assert.Equal(t, "Johnny", got[1].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_ExistsByEmail(t *testing.T) {
	repo, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users" WHERE email = $1`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.ExistsByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(context.Background(), "nobody@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_Count(t *testing.T) {
	repo, mock := newGormMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "users"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormUserRepository_DeleteByID(t *testing.T) {
	repo, mock := newGormMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users" WHERE id = $1`)).
		WithArgs(int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteByID(context.Background(), 8))
	assert.NoError(t, mock.ExpectationsWereMet())
}
