// guard.go implements the Guard type: one attempt to hold the exclusivity
// token for a loopback port.
//
// Life of a Guard:
//
//	Unacquired → (TryAcquire success) → Held → (Release) → Unacquired
//	Unacquired → (TryAcquire failure) → Failed → (may retry TryAcquire)
//
// A Guard is not safe for concurrent use by multiple goroutines — it is a
// process-level singleton token, acquired once near startup. Cross-process
// correctness is enforced entirely by the kernel's port table.
package lock

import (
	"net"
	"strconv"

	"github.com/mmr-tortoise/portguard/internal/model"
)

// loopbackHost is the address the lock socket binds to. Binding to the
// loopback interface only keeps the lock invisible from the network:
// the socket occupies the local port table and nothing else.
const loopbackHost = "127.0.0.1"

// Guard represents one attempt to hold the exclusivity token for a given
// loopback port. The zero value is not usable; construct with New.
//
// Usage:
//
//	g := lock.New(8080)
//	if err := g.TryAcquire(); err != nil {
//	    if lock.IsAlreadyHeld(err) { /* duplicate instance — exit */ }
//	    /* real failure — report */
//	}
//	defer g.Release() // guaranteed release on every exit path
type Guard struct {
	// port identifies the loopback port used as the lock.
	// Immutable after construction.
	port uint16

	// state tracks the guard's position in the lifecycle state machine.
	state model.LockState

	// conn is the bound datagram socket, owned exclusively by this guard
	// while state is Held; nil otherwise. No data is ever sent or received
	// on it — its sole purpose is occupying the kernel's port table.
	conn net.PacketConn
}

// New creates a Guard for the given port. It performs no I/O: acquisition
// is deferred to the first TryAcquire call.
//
// Ports below 1024 require elevated privilege on most hosts, and port 0
// is rejected at acquisition time (see ErrEphemeralPort).
func New(port uint16) *Guard {
	return &Guard{
		port:  port,
		state: model.StateUnacquired,
	}
}

// TryAcquire attempts to claim exclusive ownership of the guard's port.
//
// If the guard already holds the lock, TryAcquire returns nil immediately
// without touching the OS — repeated calls after a success are idempotent
// no-ops, matching "acquire once, hold for process lifetime".
//
// Otherwise it binds a UDP socket to 127.0.0.1:port. On success the guard
// transitions to Held and keeps the socket open until Release. On failure
// the guard transitions to Failed and returns a typed *AcquireError whose
// Kind distinguishes contention (KindAlreadyHeld) from privilege or
// resource problems (KindBind, KindSocketCreate). A failed attempt leaves
// no socket behind, and a guard in Failed may call TryAcquire again.
func (g *Guard) TryAcquire() error {
	if g.state == model.StateHeld {
		return nil
	}

	// Port 0 would ask the OS for an ephemeral port. That always succeeds
	// and never contends with anything, so it cannot express mutual
	// exclusion — treat it as caller misuse rather than silently binding.
	if g.port == 0 {
		g.state = model.StateFailed
		return ErrEphemeralPort
	}

	// ListenPacket creates the datagram socket and binds it in one step.
	// On failure no connection is returned, so there is nothing to clean
	// up — the error only needs classification.
	conn, err := net.ListenPacket("udp", net.JoinHostPort(loopbackHost, strconv.Itoa(int(g.port))))
	if err != nil {
		g.state = model.StateFailed
		return classify(g.port, err)
	}

	g.conn = conn
	g.state = model.StateHeld
	return nil
}

// Release closes the lock socket and returns the guard to Unacquired,
// making the port available to other processes and allowing this guard
// to reacquire later. Release is idempotent and safe to call in any
// state; on a guard that holds nothing it is a no-op.
//
// Callers should defer Release immediately after a successful TryAcquire
// so the lock is freed on every exit path. A process killed without
// running deferred calls still releases the lock: the OS closes all
// descriptors on process exit.
func (g *Guard) Release() error {
	var err error
	if g.conn != nil {
		err = g.conn.Close()
		g.conn = nil
	}
	g.state = model.StateUnacquired
	return err
}

// State returns the guard's current lifecycle state.
func (g *Guard) State() model.LockState {
	return g.state
}

// Held reports whether the guard currently owns the lock port.
func (g *Guard) Held() bool {
	return g.state == model.StateHeld
}

// Port returns the loopback port this guard locks.
func (g *Guard) Port() uint16 {
	return g.port
}

// Name returns a human-readable descriptor of the lock resource
// (e.g., "port 8080"). It is used only for diagnostics and carries
// no behavioral contract.
func (g *Guard) Name() string {
	return "port " + strconv.Itoa(int(g.port))
}
