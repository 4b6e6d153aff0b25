// Package jobstore persists finished job records so status history survives a
// restart. Storage is SQLite through Gorm; the in-memory job map in the job
// service stays authoritative for running jobs.
package jobstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// JobRecordModel is one job row.
type JobRecordModel struct {
	ID        string         `gorm:"column:id;primaryKey"`
	Kind      string         `gorm:"column:kind;index"`
	Source    string         `gorm:"column:source;index"`
	Status    string         `gorm:"column:status"`
	Message   string         `gorm:"column:message"`
	Artifact  string         `gorm:"column:artifact"`
	Params    datatypes.JSON `gorm:"column:params"`
	Units     datatypes.JSON `gorm:"column:units"`
	CreatedAt time.Time      `gorm:"column:created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (JobRecordModel) TableName() string { return "job_records" }

// Store wraps the Gorm handle.
type Store struct {
	db *gorm.DB
}

func NewStore(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("job store path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating job store dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening job store: %w", err)
	}
	if err := db.AutoMigrate(&JobRecordModel{}); err != nil {
		return nil, fmt.Errorf("migrating job store: %w", err)
	}
	return &Store{db: db}, nil
}

// Save inserts or updates one record by job ID.
func (s *Store) Save(ctx context.Context, rec *JobRecordModel) error {
	if rec == nil {
		return fmt.Errorf("job record cannot be nil")
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rec).Error
}

// ListRecent returns the latest records, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]JobRecordModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []JobRecordModel
	err := s.db.WithContext(ctx).Order("updated_at DESC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
