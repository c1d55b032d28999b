package analytics

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnalyticsManager records every executed command in a SQLite ledger.
type AnalyticsManager struct {
	db     *gorm.DB
	Logger *zap.Logger
}

type Entry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	Command    string
	Directory  string
	SessionID  string `gorm:"index"`
	ExitCode   int
	DurationMs int64
	Pid        int
	Background bool
}

func NewAnalyticsManager(dbFilePath string, logger *zap.Logger) (*AnalyticsManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// - busy_timeout(5000): another tern session may hold the write lock
	// - synchronous(1): NORMAL
	// - temp_store(2): MEMORY
	connectionString := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=temp_store(2)", dbFilePath)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening analytics database: %w", err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite serializes writes anyway.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.Exec("PRAGMA journal_mode=WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	return &AnalyticsManager{
		db:     db,
		Logger: logger,
	}, nil
}

func (analyticsManager *AnalyticsManager) Close() error {
	if analyticsManager.db == nil {
		return nil
	}
	sqlDB, err := analyticsManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (analyticsManager *AnalyticsManager) Record(entry Entry) error {
	if entry.Command == "" {
		return nil
	}
	result := analyticsManager.db.Create(&entry)
	if result.Error != nil {
		analyticsManager.Logger.Warn("failed to record command", zap.String("command", entry.Command), zap.Error(result.Error))
		return result.Error
	}
	return nil
}

// GetRecentEntries returns up to limit entries, newest first.
func (analyticsManager *AnalyticsManager) GetRecentEntries(limit int) ([]Entry, error) {
	var entries []Entry
	result := analyticsManager.db.Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (analyticsManager *AnalyticsManager) GetSessionEntries(sessionID string) ([]Entry, error) {
	var entries []Entry
	result := analyticsManager.db.Where("session_id = ?", sessionID).Order("id asc").Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

func (analyticsManager *AnalyticsManager) ResetAnalytics() error {
	result := analyticsManager.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&Entry{})
	return result.Error
}

func (analyticsManager *AnalyticsManager) DeleteEntry(id uint) error {
	result := analyticsManager.db.Delete(&Entry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("entry not found")
	}
	return nil
}

func (analyticsManager *AnalyticsManager) GetTotalCount() (int64, error) {
	var count int64
	result := analyticsManager.db.Model(&Entry{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
