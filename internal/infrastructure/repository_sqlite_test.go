package infrastructure

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-grab-go/internal/domain"
)

func newTestRepository(t *testing.T) *SQLiteHistoryRepository {
	t.Helper()

	repo, err := NewSQLiteHistoryRepository(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	return repo
}

func TestSQLiteHistoryRepository_CreateAndFindRecent(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Create(
		&domain.DownloadRecord{SourceURL: "https://example.com/1", Title: "first", Extractor: "Test", FileSize: 100},
		&domain.DownloadRecord{SourceURL: "https://example.com/2", Title: "second", Extractor: "Test", FileSize: 200},
	))

	records, err := repo.FindRecent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// newest first
	assert.Equal(t, "second", records[0].Title)
	assert.Equal(t, "first", records[1].Title)

	records, err = repo.FindRecent(1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestSQLiteHistoryRepository_CreateNothing(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Create())

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSQLiteHistoryRepository_FindBySourceURL(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Create(
		&domain.DownloadRecord{SourceURL: "https://example.com/a", Title: "a1"},
		&domain.DownloadRecord{SourceURL: "https://example.com/a", Title: "a2"},
		&domain.DownloadRecord{SourceURL: "https://example.com/b", Title: "b1"},
	))

	records, err := repo.FindBySourceURL("https://example.com/a")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = repo.FindBySourceURL("https://example.com/missing")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSQLiteHistoryRepository_GetStats(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Create(
		&domain.DownloadRecord{SourceURL: "u1", Extractor: "Youtube", FileSize: 100},
		&domain.DownloadRecord{SourceURL: "u2", Extractor: "Youtube", FileSize: 250},
		&domain.DownloadRecord{SourceURL: "u3", Extractor: "TikTok", FileSize: 50},
	))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(400), stats.TotalBytes)
	assert.Equal(t, int64(2), stats.ByExtractor["Youtube"])
	assert.Equal(t, int64(1), stats.ByExtractor["TikTok"])
}

func TestSQLiteHistoryRepository_GetStatsEmpty(t *testing.T) {
	repo := newTestRepository(t)

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.TotalBytes)
	assert.Empty(t, stats.ByExtractor)
}
