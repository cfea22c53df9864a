package source

// Podcast represents a single podcast feed.
type Podcast struct {
	// Stable identifier of the podcast.
	ID string `json:"id"`
	// Display title.
	Title string `json:"title"`
	// Feed or homepage URL.
	URL string `json:"url"`
	// Author or publisher name.
	Author string `json:"author"`
	// Artwork URL for display.
	Artwork string `json:"artwork"`

	// Episodes associated with this podcast.
	// Populated only when necessary.
	Episodes []*Episode `json:"episodes,omitempty"`
}

// String returns the canonical string representation of the podcast.
func (p *Podcast) String() string {
	return p.Title
}
