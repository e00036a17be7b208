// Package exitcode defines the process exit codes shared by every plugin.
//
// SwiftBar only records the exit status in its plugin log, so the codes exist
// for the user running a plugin by hand from a terminal.
package exitcode

const (
	// Success indicates the menu was rendered or the click action completed.
	Success = 0

	// UserError indicates bad arguments: unknown command, missing id, unknown snippet.
	UserError = 1

	// AuthError indicates a missing or unusable credential.
	AuthError = 2

	// BackendError indicates a remote API, HTTP status or subprocess failure.
	BackendError = 3

	// RenderError indicates the menu could not be formatted. Nothing is printed.
	RenderError = 4
)
