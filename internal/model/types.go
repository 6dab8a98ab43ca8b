// Package model defines the domain types for the portguard CLI.
//
// All entities in this package represent the core data structures of the
// lock domain: lock lifecycle states, named lock definitions from the
// configuration file, and container port bindings used for diagnostics.
// These types are used throughout the application for passing data
// between components.
package model

import (
	"fmt"
	"regexp"
	"strings"
)

// LockState represents the lifecycle state of a port lock guard.
// The state transitions are:
//
//	Unacquired → (TryAcquire success) → Held → (Release) → Unacquired
//	Unacquired → (TryAcquire failure) → Failed → (may retry TryAcquire)
//
// Held and Failed are not reachable from each other without a Release
// in between.
type LockState string

const (
	// StateUnacquired indicates no acquisition attempt has been made yet,
	// or a previously held lock was explicitly released.
	StateUnacquired LockState = "unacquired"

	// StateHeld indicates the guard owns the loopback port. The underlying
	// socket stays open and bound until the guard is released.
	StateHeld LockState = "held"

	// StateFailed indicates the most recent acquisition attempt failed.
	// The guard owns no socket in this state.
	StateFailed LockState = "failed"
)

// String returns the string representation of LockState.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and JSON serialization.
func (s LockState) String() string {
	return string(s)
}

// IsValid checks whether the LockState value is one of the
// predefined valid states.
func (s LockState) IsValid() bool {
	switch s {
	case StateUnacquired, StateHeld, StateFailed:
		return true
	default:
		return false
	}
}

// ProbeStatus represents the observed cross-process status of a lock
// port, as determined by an acquire-and-release probe. Unlike LockState
// (the lifecycle of one guard instance), ProbeStatus describes what some
// other process is doing with the port.
type ProbeStatus string

const (
	// StatusFree indicates the port could be bound — no instance holds the lock.
	StatusFree ProbeStatus = "free"

	// StatusHeld indicates another process holds the lock port.
	StatusHeld ProbeStatus = "held"

	// StatusDenied indicates the bind was refused for a reason other than
	// contention (typically insufficient privilege for a reserved port).
	StatusDenied ProbeStatus = "denied"
)

// String returns the string representation of ProbeStatus.
func (s ProbeStatus) String() string {
	return string(s)
}

// IsValid checks whether the ProbeStatus value is one of the
// predefined valid statuses.
func (s ProbeStatus) IsValid() bool {
	switch s {
	case StatusFree, StatusHeld, StatusDenied:
		return true
	default:
		return false
	}
}

// ParseProbeStatus converts a string to a ProbeStatus.
// Returns an error if the string does not match any valid status.
func ParseProbeStatus(s string) (ProbeStatus, error) {
	status := ProbeStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid lock status: %q (valid: free, held, denied)", s)
	}
	return status, nil
}

// nameRegex validates lock names: alphanumeric + hyphens only,
// must start and end with alphanumeric.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks if the given name is a valid lock name.
// Valid names contain only alphanumeric characters and hyphens,
// and must start/end with an alphanumeric character.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("lock name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid lock name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// LockSpec is a named lock definition from the portguard configuration
// file. It maps a human-readable name to the loopback port that serves
// as the rendezvous point for mutual exclusion.
//
// The port is the only coordination mechanism: any two processes that
// agree on the same port number contend for the same lock, whether or
// not they share a configuration file.
type LockSpec struct {
	// Name is the unique identifier for this lock within the config file.
	// Must contain only alphanumeric characters and hyphens.
	Name string `json:"name" yaml:"name"`

	// Port is the loopback port used as the exclusivity token (1-65535).
	// Port 0 is rejected: an OS-assigned ephemeral port has no fixed
	// rendezvous point, which defeats the singleton purpose.
	Port uint16 `json:"port" yaml:"port"`

	// Description is an optional human-readable note about what the
	// lock protects. Used only for display.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks whether the LockSpec has valid field values.
// It verifies the name format and the port range.
func (l *LockSpec) Validate() error {
	if err := ValidateName(l.Name); err != nil {
		return fmt.Errorf("lock spec: %w", err)
	}
	if l.Port == 0 {
		return fmt.Errorf("lock spec %q: port 0 requests an OS-assigned ephemeral port, which has no fixed rendezvous point and cannot serve as a lock", l.Name)
	}
	return nil
}

// String returns a human-readable representation of the lock spec.
// Format: "name (port <port>)"
func (l *LockSpec) String() string {
	return fmt.Sprintf("%s (port %d)", l.Name, l.Port)
}

// ValidateLockSpecs checks a slice of LockSpecs for individual validity
// and cross-spec uniqueness of both names and ports. Two names sharing
// a port would silently contend for the same lock, which is almost
// always a configuration mistake.
func ValidateLockSpecs(specs []LockSpec) error {
	// Track seen names and ports to detect duplicates.
	seenNames := make(map[string]int)
	seenPorts := make(map[uint16]string)

	for i := range specs {
		// Validate each spec individually first.
		if err := specs[i].Validate(); err != nil {
			return err
		}

		if _, exists := seenNames[specs[i].Name]; exists {
			return fmt.Errorf("lock spec: duplicate lock name %q", specs[i].Name)
		}
		seenNames[specs[i].Name] = i

		if owner, exists := seenPorts[specs[i].Port]; exists {
			return fmt.Errorf("lock spec: port %d is used by both %q and %q",
				specs[i].Port, owner, specs[i].Name)
		}
		seenPorts[specs[i].Port] = specs[i].Name
	}
	return nil
}

// PortBinding represents a single published container port, as reported
// by the Docker daemon. It is used by the "whois" command to explain
// which container occupies a lock port.
//
// This data is fetched dynamically from the Docker API, not persisted.
type PortBinding struct {
	// ContainerID is the unique Docker container identifier (SHA-256 hash prefix).
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable Docker container name.
	ContainerName string `json:"containerName"`

	// Image is the image the container was created from.
	Image string `json:"image"`

	// HostIP is the host interface the port is published on
	// (e.g., "0.0.0.0" or "127.0.0.1"). May be empty.
	HostIP string `json:"hostIp,omitempty"`

	// HostPort is the port number on the host machine.
	HostPort uint16 `json:"hostPort"`

	// ContainerPort is the port number inside the container.
	ContainerPort uint16 `json:"containerPort"`

	// Protocol is the network protocol of the binding ("tcp" or "udp").
	Protocol string `json:"protocol"`
}

// String returns a human-readable representation of the port binding.
// Format: "hostIp:hostPort → container:containerPort/protocol"
func (b *PortBinding) String() string {
	host := b.HostIP
	if host == "" {
		host = "0.0.0.0"
	}
	return fmt.Sprintf("%s:%d → %s:%d/%s", host, b.HostPort, b.ContainerName, b.ContainerPort, b.Protocol)
}

// ExitCode defines standard CLI exit codes. These codes allow scripts
// and CI systems to programmatically distinguish "another instance is
// already running" from genuine failures, which is the whole point of
// the typed error taxonomy.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitDuplicateInstance indicates the lock port is already held by
	// another process — the expected "duplicate instance" signal.
	ExitDuplicateInstance ExitCode = 2

	// ExitBindDenied indicates the bind failed for a reason other than
	// contention, most commonly insufficient privilege for a reserved port.
	ExitBindDenied ExitCode = 3

	// ExitSocketFailure indicates the OS could not allocate a socket
	// (descriptor exhaustion, sandbox restriction).
	ExitSocketFailure ExitCode = 4

	// ExitConfigNotFound indicates no portguard configuration file was
	// found, or the requested lock name is not defined in it.
	ExitConfigNotFound ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 6
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
// This follows Go's error wrapping convention introduced in Go 1.13.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
