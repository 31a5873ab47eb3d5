package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vanshika/finadvisor/backend/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresOptions configures OpenPostgres.
type PostgresOptions struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// OpenPostgres opens a pooled GORM connection.
func OpenPostgres(opts PostgresOptions) (*gorm.DB, error) {
	if opts.DSN == "" {
		return nil, errors.New("DATABASE_URL is required for the postgres store")
	}
	db, err := gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(db *gorm.DB, logger *slog.Logger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying sql.DB: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	driver, err := migratepg.WithInstance(sqlDB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database migrations up to date")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations applied")
	return nil
}

type accountRecord struct {
	ID           string                                     `gorm:"type:uuid;primaryKey"`
	Email        string                                     `gorm:"uniqueIndex;not null"`
	PasswordHash string                                     `gorm:"not null"`
	Profile      datatypes.JSONType[domain.FinancialProfile] `gorm:"type:jsonb"`
	Settings     datatypes.JSONType[domain.Settings]         `gorm:"type:jsonb"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (accountRecord) TableName() string {
	return "accounts"
}

func (r accountRecord) toDomain() domain.Account {
	return domain.Account{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Profile:      r.Profile.Data().WithDefaults(),
		Settings:     r.Settings.Data(),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// PostgresStore persists accounts in a single table with jsonb documents for
// the profile and settings.
type PostgresStore struct {
	db *gorm.DB
}

// NewPostgresStore wraps an open GORM connection.
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// FindByEmail loads the account row registered under email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	return s.take(ctx, "email = ?", email)
}

// FindByID loads the account row with the given uuid.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return s.take(ctx, "id = ?", id)
}

func (s *PostgresStore) take(ctx context.Context, query string, arg any) (domain.Account, error) {
	var rec accountRecord
	err := s.db.WithContext(ctx).Where(query, arg).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("find account: %w", err)
	}
	return rec.toDomain(), nil
}

// Create inserts account. A unique violation on email yields
// domain.ErrEmailTaken.
func (s *PostgresStore) Create(ctx context.Context, account domain.Account) (domain.Account, error) {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	rec := accountRecord{
		ID:           account.ID,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Profile:      datatypes.NewJSONType(account.Profile),
		Settings:     datatypes.NewJSONType(account.Settings),
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.Account{}, domain.ErrEmailTaken
		}
		return domain.Account{}, fmt.Errorf("insert account: %w", err)
	}
	return rec.toDomain(), nil
}

// Update writes the profile, settings and update timestamp of an account.
func (s *PostgresStore) Update(ctx context.Context, account domain.Account) (domain.Account, error) {
	if _, err := uuid.Parse(account.ID); err != nil {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	res := s.db.WithContext(ctx).
		Model(&accountRecord{}).
		Where("id = ?", account.ID).
		Updates(map[string]any{
			"profile":    datatypes.NewJSONType(account.Profile),
			"settings":   datatypes.NewJSONType(account.Settings),
			"updated_at": account.UpdatedAt,
		})
	if res.Error != nil {
		return domain.Account{}, fmt.Errorf("update account %s: %w", account.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return s.FindByID(ctx, account.ID)
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
