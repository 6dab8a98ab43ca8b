// Package model defines the domain types and value objects for the
// portguard CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (LockState, LockSpec, PortBinding) are transient runtime
// representations — the lock itself exists only as a live kernel socket,
// and leaves no persistent artifact after the holding process ends.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
