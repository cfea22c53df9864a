package playback

import (
	"fmt"
	"sync"

	"github.com/castor-cli/castor/key"
	"github.com/castor-cli/castor/library"
	"github.com/castor-cli/castor/log"
	"github.com/castor-cli/castor/player"
	"github.com/castor-cli/castor/source"
	"github.com/castor-cli/castor/util"
	"github.com/spf13/viper"
)

// Resolver locates a verified local audio file for an episode.
// The download coordinator implements this; when no resolver is attached the
// session always streams from the network.
type Resolver interface {
	LocalFilePath(episodeID string) (string, bool)
}

// Host is the process-lifetime collaborator. It is told when playback starts
// so the hosting process can request to be kept alive, and released on stop.
type Host interface {
	KeepAlive()
	Release()
}

// Options carries the injected collaborators of a session.
// Engine and Library are required; the rest are optional.
type Options struct {
	Engine    player.Player
	Library   library.Store
	Throttler *Throttler
	Host      Host
	Resolver  Resolver
}

// Session is the exclusive owner of the audio engine and the single source of
// truth for playback status, the current episode, and the queue. Engine
// notifications are folded into status by one dedicated goroutine; commands
// mutate status under the same lock, so observers always read a consistent
// snapshot.
type Session struct {
	engine    player.Player
	lib       library.Store
	throttler *Throttler
	host      Host
	resolver  Resolver

	mu           sync.RWMutex
	status       Status
	queue        Queue
	podcastTitle string
	broken       bool

	statusSubs []chan Status
	queueSubs  []chan []*source.Episode

	persistStop chan struct{}
	foldStop    chan struct{}
	foldDone    chan struct{}
}

// NewSession constructs a session around an injected engine and library and
// starts the event fold loop.
func NewSession(opts Options) *Session {
	s := &Session{
		engine:    opts.Engine,
		lib:       opts.Library,
		throttler: opts.Throttler,
		host:      opts.Host,
		resolver:  opts.Resolver,
		status:    Status{State: StateIdle, Speed: 1.0},
		foldStop:  make(chan struct{}),
		foldDone:  make(chan struct{}),
	}

	go s.fold()
	return s
}

// fold is the single consumer of engine events. All event-driven status
// transitions happen here, sequentially.
func (s *Session) fold() {
	defer close(s.foldDone)

	events := s.engine.Events()
	for {
		select {
		case <-s.foldStop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.apply(ev)
		}
	}
}

// apply folds one engine event into the status snapshot.
func (s *Session) apply(ev player.Event) {
	s.mu.Lock()

	switch ev.Kind {
	case player.EventPosition:
		ms := int64(ev.Seconds * 1000)
		if s.status.DurationMs > 0 {
			ms = util.Clamp(ms, 0, s.status.DurationMs)
		} else if ms < 0 {
			ms = 0
		}
		s.status.PositionMs = ms

	case player.EventDuration:
		if ev.Seconds > 0 {
			s.status.DurationMs = int64(ev.Seconds * 1000)
			s.status.PositionMs = util.Clamp(s.status.PositionMs, 0, s.status.DurationMs)
		}

	case player.EventPause:
		s.status.IsPlaying = !ev.Flag && s.status.State != StateEnded

	case player.EventSeeking:
		if ev.Flag {
			s.status.State = StateBuffering
		} else if s.status.State == StateBuffering {
			s.status.State = StateReady
		}

	case player.EventFileLoaded:
		s.status.State = StateReady

	case player.EventEndReached:
		s.status.State = StateEnded
		s.status.IsPlaying = false
		ended := s.status.Episode
		s.mu.Unlock()
		s.publish()
		s.handleEnded(ended)
		return

	case player.EventEndError:
		s.status.IsPlaying = false
		s.mu.Unlock()
		// Errors do not auto-advance: burning through the queue on a decode
		// failure would silently discard it.
		log.Errorf("engine reported playback error: %s", ev.Reason)
		s.publish()
		return
	}

	s.mu.Unlock()
	s.publish()
}

// handleEnded records natural completion and advances the queue.
func (s *Session) handleEnded(episode *source.Episode) {
	if episode != nil {
		s.flushProgress(true)
		log.Infof("episode %s reached natural end", episode.ID)
	}

	if !s.PlayNext() {
		s.stopPersistLoop()
	}
}

// Play resolves an episode from the library and starts playback.
// Unresolvable episodes are a logged no-op.
func (s *Session) Play(episodeID string, startPositionMs int64) {
	if s.refusing() {
		return
	}

	episode, ok, err := s.lib.Episode(episodeID)
	if err != nil || !ok {
		log.Warnf("play: episode %q not found: %v", episodeID, err)
		return
	}

	s.playEpisode(episode, startPositionMs)
}

// playEpisode loads an already-materialized episode into the engine.
func (s *Session) playEpisode(episode *source.Episode, startPositionMs int64) {
	target := s.resolveTarget(episode)
	if target == "" {
		log.Warnf("play: episode %q has no playable source", episode.ID)
		return
	}

	if err := s.engine.Load(target, episode.Title, nil); err != nil {
		log.Errorf("load episode %q: %v", episode.ID, err)
		if !s.engine.IsRunning() {
			// The engine process could not be brought up at all; the session
			// cannot host playback and refuses all further commands.
			s.mu.Lock()
			s.broken = true
			s.mu.Unlock()
		}
		return
	}

	speed := util.Clamp(viper.GetFloat64(key.PlaybackDefaultSpeed), MinSpeed, MaxSpeed)
	if speed == 0 {
		speed = 1.0
	}

	seekMs := startPositionMs
	if row, ok, err := s.lib.Progress(episode.ID); err == nil && ok {
		if row.Speed > 0 {
			speed = util.Clamp(row.Speed, MinSpeed, MaxSpeed)
		}
		if seekMs <= 0 && !row.IsCompleted {
			seekMs = int64(row.PositionSeconds) * 1000
		}
	}

	if seekMs > 0 {
		_ = s.engine.Seek(float64(seekMs) / 1000)
	}
	_ = s.engine.SetSpeed(speed)
	_ = s.engine.SetPause(false)

	title, found, err := s.lib.PodcastTitle(episode.PodcastID)
	if err != nil || !found {
		title = ""
	}

	s.mu.Lock()
	s.status.Episode = episode
	s.status.IsPlaying = true
	s.status.State = StateIdle
	s.status.Speed = speed
	s.status.PositionMs = seekMs
	s.status.DurationMs = int64(episode.DurationHint) * 1000
	s.podcastTitle = title
	s.mu.Unlock()

	s.publish()
	s.startPersistLoop()

	if s.host != nil {
		s.host.KeepAlive()
	}

	log.Infof("playing episode %q from %s", episode.ID, target)
}

// resolveTarget prefers a verified completed download over the network URL.
// Any failure to use the local file falls back transparently.
func (s *Session) resolveTarget(episode *source.Episode) string {
	if s.resolver != nil {
		if path, ok := s.resolver.LocalFilePath(episode.ID); ok {
			return path
		}
	}
	return episode.AudioURL
}

// Pause suspends playback and forces an immediate out-of-band progress write,
// so a pause is never lost to a crash.
func (s *Session) Pause() {
	if s.refusing() {
		return
	}
	_ = s.engine.SetPause(true)
	s.flushProgress(false)
}

// Resume continues suspended playback.
func (s *Session) Resume() {
	if s.refusing() {
		return
	}
	_ = s.engine.SetPause(false)
}

// TogglePlayPause inverts the suspension state.
func (s *Session) TogglePlayPause() {
	if s.Status().IsPlaying {
		s.Pause()
	} else {
		s.Resume()
	}
}

// SeekTo moves playback to the given absolute position, clamped into the
// media bounds, and refreshes the snapshot immediately.
func (s *Session) SeekTo(positionMs int64) {
	if s.refusing() {
		return
	}

	s.mu.Lock()
	if s.status.DurationMs > 0 {
		positionMs = util.Clamp(positionMs, 0, s.status.DurationMs)
	} else if positionMs < 0 {
		positionMs = 0
	}
	s.status.PositionMs = positionMs
	s.mu.Unlock()

	_ = s.engine.Seek(float64(positionMs) / 1000)
	s.publish()
}

// SkipForward jumps ahead by the given number of seconds, or by the
// configured skip interval when seconds is not positive.
func (s *Session) SkipForward(seconds int) {
	s.SeekTo(s.Status().PositionMs + int64(skipSeconds(seconds))*1000)
}

// SkipBackward jumps back by the given number of seconds, or by the
// configured skip interval when seconds is not positive.
func (s *Session) SkipBackward(seconds int) {
	s.SeekTo(s.Status().PositionMs - int64(skipSeconds(seconds))*1000)
}

func skipSeconds(seconds int) int {
	if seconds > 0 {
		return seconds
	}
	if configured := viper.GetInt(key.PlaybackSkipSeconds); configured > 0 {
		return configured
	}
	return 30
}

// SetSpeed applies a playback rate, clamped to the supported range.
func (s *Session) SetSpeed(speed float64) {
	if s.refusing() {
		return
	}

	speed = util.Clamp(speed, MinSpeed, MaxSpeed)
	_ = s.engine.SetSpeed(speed)

	s.mu.Lock()
	s.status.Speed = speed
	s.mu.Unlock()
	s.publish()
}

// Stop persists final progress, releases the loaded media item, clears the
// current episode and the queue, and stops the persistence loop.
func (s *Session) Stop() {
	if s.refusing() {
		return
	}

	s.flushProgress(false)
	s.stopPersistLoop()
	_ = s.engine.Unload()

	s.mu.Lock()
	speed := s.status.Speed
	s.status = Status{State: StateIdle, Speed: speed}
	s.podcastTitle = ""
	s.queue.Clear()
	s.mu.Unlock()

	if s.host != nil {
		s.host.Release()
	}

	s.publish()
	s.publishQueue()
}

// Enqueue appends an episode to the playback queue.
func (s *Session) Enqueue(episode *source.Episode) {
	s.mu.Lock()
	s.queue.Enqueue(episode)
	s.mu.Unlock()
	s.publishQueue()
}

// RemoveFromQueue removes the first queued episode with the given id.
func (s *Session) RemoveFromQueue(episodeID string) {
	s.mu.Lock()
	removed := s.queue.Remove(episodeID)
	s.mu.Unlock()
	if removed {
		s.publishQueue()
	}
}

// ClearQueue discards all queued episodes.
func (s *Session) ClearQueue() {
	s.mu.Lock()
	s.queue.Clear()
	s.mu.Unlock()
	s.publishQueue()
}

// QueueItems returns the queued episodes in FIFO order.
func (s *Session) QueueItems() []*source.Episode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.queue.Items()
}

// PlayNext pops the queue head and plays it. Returns false when the queue is empty.
func (s *Session) PlayNext() bool {
	if s.refusing() {
		return false
	}

	s.mu.Lock()
	next := s.queue.PopFront()
	s.mu.Unlock()

	if next == nil {
		return false
	}

	s.publishQueue()
	s.playEpisode(next, 0)
	return true
}

// Status returns the current immutable snapshot.
func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ShouldKeepRunning answers the process-lifetime host's liveness query:
// true while playing, or while any media item remains loaded (a paused
// session intends to resume and survives).
func (s *Session) ShouldKeepRunning() bool {
	st := s.Status()
	return st.IsPlaying || st.Episode != nil
}

// Subscribe returns a live status stream. Slow subscribers miss intermediate
// snapshots rather than blocking the session.
func (s *Session) Subscribe() <-chan Status {
	ch := make(chan Status, 8)
	s.mu.Lock()
	s.statusSubs = append(s.statusSubs, ch)
	s.mu.Unlock()
	return ch
}

// SubscribeQueue returns a live queue stream.
func (s *Session) SubscribeQueue() <-chan []*source.Episode {
	ch := make(chan []*source.Episode, 8)
	s.mu.Lock()
	s.queueSubs = append(s.queueSubs, ch)
	s.mu.Unlock()
	return ch
}

// Close tears the session down: final progress flush, loop shutdown, engine release.
func (s *Session) Close() error {
	s.flushProgress(false)
	s.stopPersistLoop()

	select {
	case <-s.foldDone:
	default:
		close(s.foldStop)
	}

	if s.throttler != nil {
		s.throttler.Stop()
	}
	if s.host != nil {
		s.host.Release()
	}

	return s.engine.Close()
}

// refusing reports whether commands are ignored because the engine could not be hosted.
func (s *Session) refusing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.broken {
		log.Warn("playback session is broken; command ignored")
	}
	return s.broken
}

// publish fans the current snapshot out to subscribers and the throttled
// notification surface.
func (s *Session) publish() {
	s.mu.RLock()
	st := s.status
	title := s.podcastTitle
	subs := s.statusSubs
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- st:
		default:
		}
	}

	if s.throttler != nil && st.Episode != nil {
		s.throttler.Offer(s.notification(st, title))
	}
}

func (s *Session) publishQueue() {
	s.mu.RLock()
	items := s.queue.Items()
	subs := s.queueSubs
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- items:
		default:
		}
	}
}

// notification renders the textual now-playing payload for the snapshot.
func (s *Session) notification(st Status, podcastTitle string) Notification {
	subtext := fmt.Sprintf("%s / %s",
		util.FormatClock(int(st.PositionMs/1000)),
		util.FormatClock(int(st.DurationMs/1000)),
	)
	if podcastTitle != "" {
		subtext = podcastTitle + " · " + subtext
	}

	return Notification{
		Title:   st.Episode.Title,
		Subtext: subtext,
		Ongoing: st.IsPlaying,
	}
}
