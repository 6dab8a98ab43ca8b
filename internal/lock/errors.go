// errors.go defines the typed failure taxonomy for lock acquisition.
//
// Callers need to distinguish three situations:
//   - the port is held by another instance (the expected "duplicate
//     instance" signal, usually handled by exiting quietly),
//   - the bind was refused for another reason (most commonly insufficient
//     privilege for a reserved port — a configuration error worth logging),
//   - the OS could not allocate a socket at all (descriptor exhaustion,
//     sandbox restriction).
//
// The package never retries and never logs; every failure is surfaced as
// a typed error and fatality is the caller's decision.
package lock

import (
	"errors"
	"fmt"
	"syscall"
)

// ErrEphemeralPort is returned by TryAcquire when the guard was constructed
// with port 0. Port 0 asks the OS for an ephemeral port, which has no fixed
// rendezvous point and therefore cannot serve as a mutual-exclusion token.
var ErrEphemeralPort = errors.New("port 0 requests an OS-assigned ephemeral port, which has no fixed rendezvous point and cannot serve as a lock")

// FailureKind classifies why an acquisition attempt failed.
type FailureKind int

const (
	// KindSocketCreate indicates the OS could not allocate a socket
	// (resource exhaustion, sandbox restriction).
	KindSocketCreate FailureKind = iota

	// KindBind indicates the bind failed for a reason other than
	// contention, most commonly insufficient privilege for a port
	// below 1024.
	KindBind

	// KindAlreadyHeld indicates the bind failed because another process
	// holds the port. This is the expected duplicate-instance signal.
	KindAlreadyHeld
)

// String returns the string representation of FailureKind for
// diagnostics and JSON output.
func (k FailureKind) String() string {
	switch k {
	case KindSocketCreate:
		return "socket-create-failed"
	case KindBind:
		return "bind-failed"
	case KindAlreadyHeld:
		return "already-held"
	default:
		return fmt.Sprintf("unknown-failure-kind(%d)", int(k))
	}
}

// AcquireError is the typed error returned by Guard.TryAcquire on failure.
// It carries the failure classification, the contested port, and the
// underlying OS error (nil for KindAlreadyHeld, where the cause is implied).
type AcquireError struct {
	// Kind classifies the failure.
	Kind FailureKind

	// Port is the loopback port the guard attempted to bind.
	Port uint16

	// Err is the underlying OS error, preserved for errors.Is checks
	// against syscall errnos.
	Err error
}

// Error satisfies the error interface with a message that names the port,
// so callers can report the failure without further formatting.
func (e *AcquireError) Error() string {
	switch e.Kind {
	case KindAlreadyHeld:
		return fmt.Sprintf("port %d: another instance holds this lock", e.Port)
	case KindSocketCreate:
		return fmt.Sprintf("port %d: could not create socket: %v", e.Port, e.Err)
	default:
		return fmt.Sprintf("port %d: could not bind: %v", e.Port, e.Err)
	}
}

// Unwrap returns the underlying OS error for use with errors.Is/errors.As.
func (e *AcquireError) Unwrap() error {
	return e.Err
}

// IsAlreadyHeld reports whether err is an acquisition failure caused by
// another process holding the lock port. This is the check callers use
// to decide "exit quietly, a sibling is already running".
func IsAlreadyHeld(err error) bool {
	var ae *AcquireError
	return errors.As(err, &ae) && ae.Kind == KindAlreadyHeld
}

// KindOf extracts the failure classification from an error returned by
// TryAcquire. The second return value is false if err is not an
// AcquireError (e.g., ErrEphemeralPort or nil).
func KindOf(err error) (FailureKind, bool) {
	var ae *AcquireError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return 0, false
}

// classify maps an OS-level listen/bind error to a typed AcquireError.
//
// net.ListenPacket performs socket creation and bind as one operation, so
// the classification works backward from the errno:
//   - EADDRINUSE is contention — another process owns the port.
//   - EMFILE/ENFILE/ENOBUFS/ENOMEM mean the socket itself could not be
//     allocated; the bind was never reached.
//   - Everything else (EACCES and EPERM for reserved ports included) is
//     a bind failure, with the OS cause preserved.
func classify(port uint16, err error) *AcquireError {
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		return &AcquireError{Kind: KindAlreadyHeld, Port: port, Err: err}
	case errors.Is(err, syscall.EMFILE),
		errors.Is(err, syscall.ENFILE),
		errors.Is(err, syscall.ENOBUFS),
		errors.Is(err, syscall.ENOMEM):
		return &AcquireError{Kind: KindSocketCreate, Port: port, Err: err}
	default:
		return &AcquireError{Kind: KindBind, Port: port, Err: err}
	}
}
