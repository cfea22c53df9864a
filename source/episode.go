package source

import "time"

// Episode represents a discrete playable item within a podcast.
type Episode struct {
	// Stable identifier of the episode.
	ID string `json:"id"`
	// Identifier of the owning podcast.
	PodcastID string `json:"podcast_id"`
	// Display title.
	Title string `json:"title"`
	// Show notes, often HTML.
	Description string `json:"description,omitempty"`
	// Direct URL to the audio enclosure. Empty when the episode has no playable source.
	AudioURL string `json:"audio_url"`
	// Advertised duration in seconds; zero when the feed provides none.
	DurationHint int `json:"duration_hint,omitempty"`
	// Publication timestamp.
	PublishedAt *time.Time `json:"published_at,omitempty"`
	// Artwork URL for display.
	Artwork string `json:"artwork,omitempty"`

	Podcast *Podcast `json:"-"`
}

// String returns the canonical string representation of the episode.
func (e *Episode) String() string {
	return e.Title
}
