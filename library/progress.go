package library

import (
	"time"

	"github.com/samber/mo"
)

// Progress is the durable playback progress row, one per episode.
type Progress struct {
	EpisodeID       string         `json:"episode_id"`
	PositionSeconds int            `json:"position_seconds"`
	DurationSeconds mo.Option[int] `json:"duration_seconds"`
	IsCompleted     bool           `json:"is_completed"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
	LastPlayedAt    *time.Time     `json:"last_played_at,omitempty"`
	Speed           float64        `json:"speed"`
}

// Progress returns the playback progress row for an episode.
func (l *Library) Progress(episodeID string) (*Progress, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := load(l.progress)
	if err != nil {
		return nil, false, err
	}

	row, ok := rows[episodeID]
	return row, ok, nil
}

// AllProgress returns every playback progress row keyed by episode id.
func (l *Library) AllProgress() (map[string]*Progress, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return load(l.progress)
}

// SaveProgress upserts a progress row. Writes referencing an episode that is
// not materialized fail with ErrUnknownEpisode; completion state already
// recorded on the row is preserved and never cleared by a position write.
func (l *Library) SaveProgress(row *Progress) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return err
	}
	if _, ok := episodes[row.EpisodeID]; !ok {
		return ErrUnknownEpisode
	}

	rows, err := load(l.progress)
	if err != nil {
		return err
	}

	stored := *row
	if existing, ok := rows[row.EpisodeID]; ok && existing.IsCompleted {
		stored.IsCompleted = true
		stored.CompletedAt = existing.CompletedAt
	}
	rows[row.EpisodeID] = &stored

	return l.progress.Set(rows)
}

// MarkCompleted records natural end-of-media for an episode. The completion
// timestamp is written exactly once; repeated calls keep the original.
func (l *Library) MarkCompleted(episodeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return err
	}
	if _, ok := episodes[episodeID]; !ok {
		return ErrUnknownEpisode
	}

	rows, err := load(l.progress)
	if err != nil {
		return err
	}

	now := time.Now()
	row, ok := rows[episodeID]
	if !ok {
		row = &Progress{EpisodeID: episodeID, Speed: 1.0}
		rows[episodeID] = row
	}
	if !row.IsCompleted {
		row.IsCompleted = true
		row.CompletedAt = &now
	}
	row.LastPlayedAt = &now

	return l.progress.Set(rows)
}
