// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 12

// Playback Engine - these keys govern the external audio engine and the playback session.
const (
	PlayerEngine         = "player.engine"
	PlaybackPersistEvery = "playback.persist_every"
	PlaybackDefaultSpeed = "playback.default_speed"
	PlaybackSkipSeconds  = "playback.skip_seconds"
)

// Notification Surface - these keys tune the throttled now-playing republisher.
const (
	NotifyMinIntervalMs = "notify.min_interval_ms"
)

// Downloads - these keys configure the resumable episode download subsystem.
const (
	DownloadsPath = "downloads.path"
)

// Library Persistence - these keys configure the durable progress/download row store.
const (
	LibrarySaveProgress = "library.save_progress"
)

// Diagnostics Logging - these keys configure the persistent logrus backend.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// Command-Line Interface - these keys define the CLI presentation behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
