package infrastructure

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// SQLiteHistoryRepository implements DownloadRecordRepository using SQLite
type SQLiteHistoryRepository struct {
	db *gorm.DB
}

// NewSQLiteHistoryRepository creates a new SQLite-backed history repository
func NewSQLiteHistoryRepository(dbPath string) (*SQLiteHistoryRepository, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&domain.DownloadRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteHistoryRepository{db: db}, nil
}

// Create stores new history records
func (r *SQLiteHistoryRepository) Create(records ...*domain.DownloadRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Create(records).Error
}

// FindRecent returns the newest records, most recent first
func (r *SQLiteHistoryRepository) FindRecent(limit int) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Order("created_at DESC, id DESC").Limit(limit).Find(&records).Error
	return records, err
}

// FindBySourceURL returns records for one source URL
func (r *SQLiteHistoryRepository) FindBySourceURL(sourceURL string) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := r.db.Where("source_url = ?", sourceURL).Order("created_at DESC").Find(&records).Error
	return records, err
}

// Count returns the total number of records
func (r *SQLiteHistoryRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&domain.DownloadRecord{}).Count(&count).Error
	return count, err
}

// GetStats returns aggregate history statistics
func (r *SQLiteHistoryRepository) GetStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{ByExtractor: make(map[string]int64)}

	if err := r.db.Model(&domain.DownloadRecord{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	if err := r.db.Model(&domain.DownloadRecord{}).
		Select("COALESCE(SUM(file_size), 0)").
		Scan(&stats.TotalBytes).Error; err != nil {
		return nil, err
	}

	rows := []struct {
		Extractor string
		Count     int64
	}{}
	if err := r.db.Model(&domain.DownloadRecord{}).
		Select("extractor, COUNT(*) AS count").
		Group("extractor").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		stats.ByExtractor[row.Extractor] = row.Count
	}

	return stats, nil
}
