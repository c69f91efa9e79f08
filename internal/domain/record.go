package domain

import "time"

// DownloadRecord is one row of download history: an acquired media item
// and where it came from.
type DownloadRecord struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	SourceURL  string    `json:"source_url" gorm:"not null;index"`
	FilePath   string    `json:"file_path"`
	Title      string    `json:"title"`
	Extractor  string    `json:"extractor"`
	FileSize   int64     `json:"file_size"`
	Resolution string    `json:"resolution"`
	Codec      string    `json:"codec"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}
