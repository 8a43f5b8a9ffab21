package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MemoryDSN is the shared in-memory SQLite database used when no DSN is set.
const MemoryDSN = "file::memory:?cache=shared"

// RaceRecord is one persisted session. The summary columns are kept for
// querying, Snapshot holds the complete PersistedSessionData.
type RaceRecord struct {
	ID             string `gorm:"primaryKey;size:16"`
	TrackName      string `gorm:"size:255"`
	CreatedAt      time.Time
	LastAccessedAt time.Time `gorm:"index"`
	Winner         int
	Finished       bool
	TotalTurns     int
	Snapshot       datatypes.JSON
}

func (RaceRecord) TableName() string {
	return "races"
}

// OpenDB connects to SQLite or Postgres. An empty SQLite dsn uses MemoryDSN.
func OpenDB(driver, dsn string) (*gorm.DB, error) {
	config := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	switch driver {
	case "sqlite":
		if dsn == "" {
			dsn = MemoryDSN
		}
		return gorm.Open(sqlite.Open(dsn), config)
	case "postgres":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store needs a dsn")
		}
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		}), config)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

// SQLPersistence implements SessionPersistence on a gorm database
type SQLPersistence struct {
	db *gorm.DB
}

// NewSQLPersistence migrates the races table and returns the store
func NewSQLPersistence(db *gorm.DB) (*SQLPersistence, error) {
	if err := db.AutoMigrate(&RaceRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate races table: %w", err)
	}
	return &SQLPersistence{db: db}, nil
}

func (sp *SQLPersistence) Save(data *PersistedSessionData) error {
	if data == nil {
		return fmt.Errorf("session cannot be nil")
	}
	snapshot, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	record := RaceRecord{
		ID:             strings.ToLower(data.ID),
		TrackName:      data.TrackName,
		CreatedAt:      data.CreatedAt,
		LastAccessedAt: data.LastAccessedAt,
		Winner:         -1,
		Snapshot:       datatypes.JSON(snapshot),
	}
	if data.Race != nil {
		record.Winner = data.Race.Winner
		record.Finished = data.Race.Finished
		record.TotalTurns = data.Race.TotalTurns
	}

	err = sp.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", data.ID, err)
	}
	return nil
}

func (sp *SQLPersistence) Load(id string) (*PersistedSessionData, error) {
	var record RaceRecord
	err := sp.db.Where("id = ?", strings.ToLower(id)).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", id, err)
	}

	var data PersistedSessionData
	if err := json.Unmarshal(record.Snapshot, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &data, nil
}

func (sp *SQLPersistence) Delete(id string) error {
	result := sp.db.Where("id = ?", strings.ToLower(id)).Delete(&RaceRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (sp *SQLPersistence) ListAll() ([]string, error) {
	var ids []string
	if err := sp.db.Model(&RaceRecord{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

func (sp *SQLPersistence) Exists(id string) bool {
	var count int64
	err := sp.db.Model(&RaceRecord{}).Where("id = ?", strings.ToLower(id)).Count(&count).Error
	return err == nil && count > 0
}

// Finished returns the ids of decided races, most recent first.
func (sp *SQLPersistence) Finished(limit int) ([]string, error) {
	var ids []string
	err := sp.db.Model(&RaceRecord{}).
		Where("finished = ?", true).
		Order("last_accessed_at DESC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list finished sessions: %w", err)
	}
	return ids, nil
}
