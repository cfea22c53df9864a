// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Castor is the canonical application identifier used for filesystem paths and CLI branding.
	Castor = "castor"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// UserAgent is the default HTTP User-Agent string sent when fetching episode audio from remote hosts.
	UserAgent = Castor + "/" + Version + " (+https://github.com/castor-cli/castor)"
)

// Build metadata injected at link time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
