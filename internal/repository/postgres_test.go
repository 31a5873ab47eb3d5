package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

func newMockPostgres(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return NewPostgresStore(db), mock
}

var accountColumns = []string{"id", "email", "password_hash", "profile", "settings", "created_at", "updated_at"}

func TestPostgresStore_FindByEmail(t *testing.T) {
	store, mock := newMockPostgres(t)
	id := uuid.NewString()
	created := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows(accountColumns).AddRow(
			id,
			"jane@example.com",
			"$2a$10$hash",
			[]byte(`{"monthlyIncome":5000,"currentSavings":10000,"currentInvestments":{"stocks":5000,"bonds":3000,"realEstate":0,"other":2000},"retirementGoals":{"riskTolerance":"low"}}`),
			[]byte(`{"emailNotifications":true,"darkMode":true,"twoFactorAuth":false,"marketingEmails":false}`),
			created,
			created,
		))

	account, err := store.FindByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, 10000.0, account.Profile.CurrentInvestments.Total())
	assert.Equal(t, domain.RiskConservative, account.Profile.RetirementGoals.RiskTolerance)
	assert.True(t, account.Settings.DarkMode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindMissing(t *testing.T) {
	store, mock := newMockPostgres(t)
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows(accountColumns))

	_, err := store.FindByID(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByMalformedID(t *testing.T) {
	store, mock := newMockPostgres(t)

	_, err := store.FindByID(context.Background(), "acct-1")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockPostgres(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "accounts"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	account := sampleAccount()
	account.ID = ""
	created, err := store.Create(context.Background(), account)
	require.NoError(t, err)
	_, err = uuid.Parse(created.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Email, created.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateMissing(t *testing.T) {
	store, mock := newMockPostgres(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "accounts" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	account := sampleAccount()
	account.ID = uuid.NewString()
	_, err := store.Update(context.Background(), account)
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
