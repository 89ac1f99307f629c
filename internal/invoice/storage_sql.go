package invoice

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slot is one row of the slots table
type slot struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     []byte
	UpdatedAt time.Time
}

// SQLStorage implements the Storage interface on top of a SQLite table
type SQLStorage struct {
	db *gorm.DB
}

// NewSQLStorage opens the SQLite database at path and migrates the slots table
func NewSQLStorage(path string) (*SQLStorage, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if err := db.AutoMigrate(&slot{}); err != nil {
		return nil, fmt.Errorf("migrating slots: %w", err)
	}
	return &SQLStorage{db: db}, nil
}

// Get retrieves a slot value
func (s *SQLStorage) Get(key string) ([]byte, error) {
	var row slot
	err := s.db.First(&row, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("selecting slot %s: %w", key, err)
	}
	return row.Value, nil
}

// Put upserts a slot value
func (s *SQLStorage) Put(key string, data []byte) error {
	row := slot{Name: key, Value: data, UpdatedAt: time.Now().UTC()}
	if err := s.db.Save(&row).Error; err != nil {
		return fmt.Errorf("saving slot %s: %w", key, err)
	}
	return nil
}

// Delete clears a slot
func (s *SQLStorage) Delete(key string) error {
	if err := s.db.Delete(&slot{}, "name = ?", key).Error; err != nil {
		return fmt.Errorf("deleting slot %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying connection pool
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
