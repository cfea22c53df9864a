package playback

import (
	"errors"
	"time"

	"github.com/castor-cli/castor/key"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/log"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

// startPersistLoop launches the periodic progress writer. The loop runs only
// while an episode is loaded; a second call while running is a no-op.
func (s *Session) startPersistLoop() {
	s.mu.Lock()
	if s.persistStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.persistStop = stop
	s.mu.Unlock()

	every := viper.GetInt(key.PlaybackPersistEvery)
	if every <= 0 {
		every = 5
	}

	go func() {
		ticker := time.NewTicker(time.Duration(every) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				if s.Status().IsPlaying {
					s.flushProgress(false)
				}
			}
		}
	}()
}

func (s *Session) stopPersistLoop() {
	s.mu.Lock()
	if s.persistStop != nil {
		close(s.persistStop)
		s.persistStop = nil
	}
	s.mu.Unlock()
}

// flushProgress writes one progress row for the current episode. Position and
// duration are read from the engine directly so out-of-band flushes (pause,
// stop) capture the freshest values rather than the last folded tick.
func (s *Session) flushProgress(completed bool) {
	if !viper.GetBool(key.LibrarySaveProgress) {
		return
	}

	s.mu.RLock()
	episode := s.status.Episode
	speed := s.status.Speed
	positionMs := s.status.PositionMs
	durationMs := s.status.DurationMs
	s.mu.RUnlock()

	if episode == nil {
		return
	}

	if loaded, err := s.engine.HasMedia(); err == nil && loaded {
		if pos, err := s.engine.Position(); err == nil && pos >= 0 {
			positionMs = int64(pos * 1000)
		}
		if dur, err := s.engine.Duration(); err == nil && dur > 0 {
			durationMs = int64(dur * 1000)
		}
	}

	duration := mo.None[int]()
	if durationMs > 0 {
		duration = mo.Some(int(durationMs / 1000))
	}

	now := time.Now()
	row := &library.Progress{
		EpisodeID:       episode.ID,
		PositionSeconds: int(positionMs / 1000),
		DurationSeconds: duration,
		Speed:           speed,
		LastPlayedAt:    &now,
	}

	if err := s.lib.SaveProgress(row); err != nil {
		// A row for an episode deleted mid-playback is dropped, not fatal.
		if errors.Is(err, library.ErrUnknownEpisode) {
			log.Warnf("progress for unknown episode %q dropped", episode.ID)
			return
		}
		log.Errorf("persist progress for %q: %v", episode.ID, err)
		return
	}

	if completed {
		if err := s.lib.MarkCompleted(episode.ID); err != nil && !errors.Is(err, library.ErrUnknownEpisode) {
			log.Errorf("mark %q completed: %v", episode.ID, err)
		}
	}
}
