// Package player defines the abstraction layer over the audio playback engine.
// The architecture supports multiple backends, with the primary implementation targeting 'mpv' via its JSON-IPC interface.
//
// The engine is an exclusively-owned resource: exactly one component (the
// playback session) may hold and drive a Player instance. Engine activity is
// reported as typed Events on a single-consumer channel rather than callbacks,
// so all state folding happens sequentially on the consumer's side.
package player

// Player encapsulates the required capabilities for an audio playback backend.
type Player interface {
	// Load starts the engine if necessary and loads the given target (local path or URL),
	// replacing any currently loaded media. Playback starts paused=false.
	Load(target string, title string, headers map[string]string) error

	// SetPause sets the playback suspension state.
	SetPause(paused bool) error

	// SetSpeed sets the playback rate multiplier.
	SetSpeed(speed float64) error

	// Seek transitions the playback position to a specific absolute timestamp in seconds.
	Seek(seconds float64) error

	// Position retrieves the current absolute playback position in seconds.
	Position() (float64, error)

	// Duration retrieves the total temporal length of the active media file in seconds.
	Duration() (float64, error)

	// HasMedia verifies if the engine has a media file currently initialized and active.
	HasMedia() (bool, error)

	// IsRunning validates the liveness of the underlying playback process or handler.
	IsRunning() bool

	// Events returns the single-consumer channel of engine notifications.
	Events() <-chan Event

	// Unload stops playback and releases the loaded media item, keeping the engine idle.
	Unload() error

	// Close terminates the playback engine and releases all associated system resources.
	Close() error

	// Wait returns a channel that is closed when the engine process terminates.
	Wait() <-chan struct{}
}
