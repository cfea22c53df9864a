package library

import (
	"time"

	"github.com/samber/mo"
)

// DownloadStatus enumerates the strict state machine of a download row.
type DownloadStatus string

const (
	DownloadPending    DownloadStatus = "PENDING"
	DownloadInProgress DownloadStatus = "IN_PROGRESS"
	DownloadCompleted  DownloadStatus = "COMPLETED"
	DownloadFailed     DownloadStatus = "FAILED"
	DownloadCancelled  DownloadStatus = "CANCELLED"
)

// Terminal reports whether the status is an end state of the download state machine.
func (s DownloadStatus) Terminal() bool {
	switch s {
	case DownloadCompleted, DownloadFailed, DownloadCancelled:
		return true
	}
	return false
}

// Download is the durable download row, one per episode.
type Download struct {
	EpisodeID       string           `json:"episode_id"`
	FilePath        string           `json:"file_path"`
	FileSize        mo.Option[int64] `json:"file_size"`
	DownloadedBytes int64            `json:"downloaded_bytes"`
	Status          DownloadStatus   `json:"status"`
	ErrorMessage    string           `json:"error_message,omitempty"`
	DownloadedAt    *time.Time       `json:"downloaded_at,omitempty"`
}

// DownloadRow returns the download row for an episode.
func (l *Library) DownloadRow(episodeID string) (*Download, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := load(l.downloads)
	if err != nil {
		return nil, false, err
	}

	row, ok := rows[episodeID]
	return row, ok, nil
}

// AllDownloads returns every download row keyed by episode id.
func (l *Library) AllDownloads() (map[string]*Download, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return load(l.downloads)
}

// SaveDownload upserts a download row.
func (l *Library) SaveDownload(row *Download) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return err
	}
	if _, ok := episodes[row.EpisodeID]; !ok {
		return ErrUnknownEpisode
	}

	rows, err := load(l.downloads)
	if err != nil {
		return err
	}

	stored := *row
	rows[row.EpisodeID] = &stored

	return l.downloads.Set(rows)
}

// DeleteDownloadRow removes the download row for an episode, if present.
func (l *Library) DeleteDownloadRow(episodeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := load(l.downloads)
	if err != nil {
		return err
	}

	delete(rows, episodeID)
	return l.downloads.Set(rows)
}
