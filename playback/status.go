// Package playback implements the background playback session: the exclusive
// owner of the audio engine, the authoritative playback status, the episode
// queue, the durable progress persistence loop, and the throttled
// notification republisher.
package playback

import "github.com/castor-cli/castor/source"

// Playback speed bounds applied to every speed mutation.
const (
	MinSpeed = 0.5
	MaxSpeed = 3.0
)

// EngineState mirrors the engine's media lifecycle.
type EngineState int

const (
	StateIdle EngineState = iota
	StateBuffering
	StateReady
	StateEnded
)

// String returns the lowercase state identifier.
func (s EngineState) String() string {
	switch s {
	case StateBuffering:
		return "buffering"
	case StateReady:
		return "ready"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

// Status is the immutable snapshot of the playback session. It is mutated only
// by the session in response to engine events or commands, and read by
// observers through copies; no observer ever sees a partially updated value.
type Status struct {
	IsPlaying  bool        `json:"is_playing"`
	State      EngineState `json:"state"`
	PositionMs int64       `json:"position_ms"`
	DurationMs int64       `json:"duration_ms"`
	Speed      float64     `json:"speed"`

	Episode *source.Episode `json:"episode,omitempty"`
}

// HasEpisode reports whether a media item is currently attached to the session.
func (s Status) HasEpisode() bool {
	return s.Episode != nil
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s Status) ProgressPercent() float64 {
	if s.DurationMs <= 0 {
		return 0
	}
	return float64(s.PositionMs) / float64(s.DurationMs) * 100
}
