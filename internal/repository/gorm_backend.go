package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/mayoristas-py/directory-admin/internal/config"
)

const defaultDocumentName = "directory"

type documentRecord struct {
	Name      string `gorm:"primaryKey;size:64"`
	Body      string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

func (documentRecord) TableName() string { return "documents" }

// GormBackend stores the document as a single row, for deployments without
// a writable filesystem.
type GormBackend struct {
	db   *gorm.DB
	name string
}

func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if err := db.AutoMigrate(&documentRecord{}); err != nil {
		return nil, fmt.Errorf("migrate documents table: %w", err)
	}
	return &GormBackend{db: db, name: defaultDocumentName}, nil
}

func (b *GormBackend) Name() string { return "gorm:" + b.db.Dialector.Name() }

func (b *GormBackend) Read(ctx context.Context) ([]byte, error) {
	var rec documentRecord
	err := b.db.WithContext(ctx).Where("name = ?", b.name).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(rec.Body), nil
}

func (b *GormBackend) Write(ctx context.Context, data []byte) error {
	rec := documentRecord{Name: b.name, Body: string(data), UpdatedAt: time.Now().UTC()}
	return b.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&rec).Error
}

func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.StorageDriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.StorageDriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	return db, nil
}

// NewBackend picks the persistence backend from configuration.
func NewBackend(cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverSQLite, config.StorageDriverPostgres:
		db, err := OpenDatabase(cfg.StorageDriver, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return NewGormBackend(db)
	default:
		return NewFileBackend(cfg.DataFile), nil
	}
}
