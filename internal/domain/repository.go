package domain

// DownloadRecordRepository defines the interface for download-history
// persistence.
type DownloadRecordRepository interface {
	// Create stores new history records.
	Create(records ...*DownloadRecord) error

	// FindRecent returns the newest records, most recent first.
	FindRecent(limit int) ([]*DownloadRecord, error)

	// FindBySourceURL returns records for one source URL.
	FindBySourceURL(sourceURL string) ([]*DownloadRecord, error)

	// Count returns the total number of records.
	Count() (int64, error)

	// GetStats returns aggregate history statistics.
	GetStats() (*HistoryStats, error)
}

// HistoryStats summarizes the download history.
type HistoryStats struct {
	Total       int64            `json:"total"`
	TotalBytes  int64            `json:"total_bytes"`
	ByExtractor map[string]int64 `json:"by_extractor"`
}
