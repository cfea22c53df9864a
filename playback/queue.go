package playback

import (
	"github.com/castor-cli/castor/source"
	"golang.org/x/exp/slices"
)

// Queue is an insertion-ordered FIFO of episodes awaiting playback.
// It is owned exclusively by the session and carries no locking of its own.
type Queue struct {
	episodes []*source.Episode
}

// Enqueue appends an episode to the tail of the queue.
func (q *Queue) Enqueue(episode *source.Episode) {
	q.episodes = append(q.episodes, episode)
}

// PopFront removes and returns the queue head, or nil when the queue is empty.
func (q *Queue) PopFront() *source.Episode {
	if len(q.episodes) == 0 {
		return nil
	}
	head := q.episodes[0]
	q.episodes = q.episodes[1:]
	return head
}

// Remove deletes the first queued episode with the given id.
func (q *Queue) Remove(episodeID string) bool {
	idx := slices.IndexFunc(q.episodes, func(e *source.Episode) bool {
		return e.ID == episodeID
	})
	if idx < 0 {
		return false
	}
	q.episodes = slices.Delete(q.episodes, idx, idx+1)
	return true
}

// Clear removes every queued episode.
func (q *Queue) Clear() {
	q.episodes = nil
}

// Items returns a defensive copy of the queued episodes in order.
func (q *Queue) Items() []*source.Episode {
	return slices.Clone(q.episodes)
}

// Len returns the number of queued episodes.
func (q *Queue) Len() int {
	return len(q.episodes)
}

// IsEmpty reports whether the queue holds no episodes.
func (q *Queue) IsEmpty() bool {
	return len(q.episodes) == 0
}
