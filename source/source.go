// Package source defines the domain models and interfaces for podcast discovery and retrieval.
package source

// Source defines the required capabilities for a podcast discovery provider.
// Implementations live outside this module; the playback and download core
// only ever consumes already-materialized Podcast and Episode values.
type Source interface {
	// Name returns the unique identifier for the discovery provider.
	Name() string

	// ID returns the unique identifier of the source.
	ID() string

	// Search executes a query against the provider to discover matching podcasts.
	Search(query string) ([]*Podcast, error)

	// EpisodesOf retrieves the complete list of available episodes for a podcast.
	EpisodesOf(podcast *Podcast) ([]*Episode, error)
}
