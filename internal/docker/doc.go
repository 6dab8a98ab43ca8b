// Package docker provides a thin wrapper around the Docker Engine SDK
// used for lock-port diagnostics.
//
// When a lock port turns out to be occupied, the portguard "whois" command
// asks the Docker daemon whether a container publishes that host port —
// on developer machines a forgotten container is the most common squatter.
// The package handles automatic Docker socket detection across platforms
// (Linux, macOS, Windows) and maps container port publications into the
// domain model.
package docker
