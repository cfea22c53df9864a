package library

import "github.com/castor-cli/castor/source"

// Episode returns a materialized episode from the registry.
func (l *Library) Episode(id string) (*source.Episode, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return nil, false, err
	}

	episode, ok := episodes[id]
	return episode, ok, nil
}

// Episodes returns the complete episode registry keyed by episode id.
func (l *Library) Episodes() (map[string]*source.Episode, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return load(l.episodes)
}

// SaveEpisode materializes an episode, upserting it into the registry so that
// progress and download rows may reference it. The owning podcast is
// materialized alongside when attached.
func (l *Library) SaveEpisode(episode *source.Episode) error {
	if episode.Podcast != nil {
		if err := l.SavePodcast(episode.Podcast); err != nil {
			return err
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return err
	}

	// The registry must stay serializable on its own; the podcast back-reference
	// is rebuilt from the podcast registry when needed.
	stored := *episode
	stored.Podcast = nil
	episodes[episode.ID] = &stored

	return l.episodes.Set(episodes)
}

// DeleteEpisode removes an episode and cascades to its progress and download rows.
func (l *Library) DeleteEpisode(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	episodes, err := load(l.episodes)
	if err != nil {
		return err
	}
	delete(episodes, id)
	if err := l.episodes.Set(episodes); err != nil {
		return err
	}

	progress, err := load(l.progress)
	if err != nil {
		return err
	}
	delete(progress, id)
	if err := l.progress.Set(progress); err != nil {
		return err
	}

	downloads, err := load(l.downloads)
	if err != nil {
		return err
	}
	delete(downloads, id)
	return l.downloads.Set(downloads)
}

// SavePodcast upserts a podcast into the registry.
func (l *Library) SavePodcast(podcast *source.Podcast) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	podcasts, err := load(l.podcasts)
	if err != nil {
		return err
	}

	stored := *podcast
	stored.Episodes = nil
	podcasts[podcast.ID] = &stored

	return l.podcasts.Set(podcasts)
}

// PodcastTitle resolves the display title for a podcast id.
func (l *Library) PodcastTitle(podcastID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	podcasts, err := load(l.podcasts)
	if err != nil {
		return "", false, err
	}

	podcast, ok := podcasts[podcastID]
	if !ok {
		return "", false, nil
	}
	return podcast.Title, true, nil
}
