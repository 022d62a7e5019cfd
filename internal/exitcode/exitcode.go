// Package exitcode defines exit codes for the mkboard CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates bad arguments, an unknown task or an invalid value.
	UserError = 1

	// ConfigError indicates the configuration could not be loaded.
	ConfigError = 2

	// StorageError indicates the board could not be read or written.
	StorageError = 3
)
