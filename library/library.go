// Package library implements the durable store adapter for the playback and download core.
//
// It persists three kinds of rows keyed by episode id: the episode registry
// (materialized episodes and their podcasts), playback progress, and download
// records. Storage is a set of gache-backed JSON registries on the virtualized
// filesystem; one logical row per key is guaranteed by map construction.
package library

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/castor-cli/castor/filesystem"
	"github.com/castor-cli/castor/source"
	"github.com/castor-cli/castor/where"
	"github.com/metafates/gache"
)

// ErrUnknownEpisode is returned for row writes that reference an episode absent from the registry.
// It is the moral equivalent of a foreign-key violation and is non-fatal to callers by contract.
var ErrUnknownEpisode = errors.New("unknown episode")

// Store is the narrow durable-store contract consumed by the playback session,
// the persistence loop, and the download coordinator.
type Store interface {
	Episode(id string) (*source.Episode, bool, error)
	Episodes() (map[string]*source.Episode, error)
	SaveEpisode(episode *source.Episode) error
	DeleteEpisode(id string) error

	SavePodcast(podcast *source.Podcast) error
	PodcastTitle(podcastID string) (string, bool, error)

	Progress(episodeID string) (*Progress, bool, error)
	AllProgress() (map[string]*Progress, error)
	SaveProgress(row *Progress) error
	MarkCompleted(episodeID string) error

	DownloadRow(episodeID string) (*Download, bool, error)
	AllDownloads() (map[string]*Download, error)
	SaveDownload(row *Download) error
	DeleteDownloadRow(episodeID string) error
}

// Library is the gache-backed Store implementation.
type Library struct {
	mu        sync.Mutex
	episodes  *gache.Cache[map[string]*source.Episode]
	podcasts  *gache.Cache[map[string]*source.Podcast]
	progress  *gache.Cache[map[string]*Progress]
	downloads *gache.Cache[map[string]*Download]
}

// New opens the library rooted at where.Library().
func New() *Library {
	dir := where.Library()
	return &Library{
		episodes:  registry[*source.Episode](filepath.Join(dir, "episodes.json")),
		podcasts:  registry[*source.Podcast](filepath.Join(dir, "podcasts.json")),
		progress:  registry[*Progress](filepath.Join(dir, "progress.json")),
		downloads: registry[*Download](filepath.Join(dir, "downloads.json")),
	}
}

// registry constructs a disk-backed map cacher on the swappable filesystem backend.
func registry[T any](path string) *gache.Cache[map[string]T] {
	return gache.New[map[string]T](&gache.Options{
		Path:       path,
		FileSystem: &filesystem.GacheFs{},
	})
}

// load reads the full registry map, substituting an empty map for a cold or expired cache.
func load[T any](cacher *gache.Cache[map[string]T]) (map[string]T, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]T), nil
	}
	return cached, nil
}
