package lock

import (
	"net"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/portguard/internal/model"
)

// freeUDPPort asks the OS for a currently-free UDP port on the loopback
// interface by binding to port 0 and reading back the assigned port.
// The probe socket is closed before returning, so the port is free for
// the test to lock. This avoids hardcoded port numbers that might be
// in use on CI machines.
func freeUDPPort(t *testing.T) uint16 {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err, "failed to probe for a free UDP port")
	defer func() { _ = conn.Close() }()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)
	return uint16(udpAddr.Port)
}

// TestGuard_New verifies that construction performs no I/O and starts
// the guard in the unacquired state.
func TestGuard_New(t *testing.T) {
	g := New(8080)

	assert.Equal(t, model.StateUnacquired, g.State())
	assert.False(t, g.Held())
	assert.Equal(t, uint16(8080), g.Port())
	assert.Equal(t, "port 8080", g.Name())
}

// TestGuard_TryAcquire_FreePort verifies that acquiring a free port
// succeeds exactly once and transitions the guard to Held.
func TestGuard_TryAcquire_FreePort(t *testing.T) {
	port := freeUDPPort(t)

	g := New(port)
	defer func() { _ = g.Release() }()

	require.NoError(t, g.TryAcquire())
	assert.Equal(t, model.StateHeld, g.State())
	assert.True(t, g.Held())
}

// TestGuard_TryAcquire_Contention verifies the duplicate-instance signal:
// while guard A holds a port, guard B's acquisition fails with
// KindAlreadyHeld (distinguishable from other bind failures).
func TestGuard_TryAcquire_Contention(t *testing.T) {
	port := freeUDPPort(t)

	a := New(port)
	require.NoError(t, a.TryAcquire())
	defer func() { _ = a.Release() }()

	b := New(port)
	err := b.TryAcquire()
	require.Error(t, err, "second guard on the same port must fail")

	assert.True(t, IsAlreadyHeld(err))
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindAlreadyHeld, kind)
	assert.Equal(t, model.StateFailed, b.State())
	assert.Contains(t, err.Error(), "another instance holds this lock")
}

// TestGuard_TryAcquire_Idempotent verifies that repeated TryAcquire calls
// on an already-held guard succeed without creating a second socket.
// The contention check with a second guard proves the original socket is
// still the one occupying the port.
func TestGuard_TryAcquire_Idempotent(t *testing.T) {
	port := freeUDPPort(t)

	g := New(port)
	defer func() { _ = g.Release() }()

	require.NoError(t, g.TryAcquire())
	require.NoError(t, g.TryAcquire(), "second call on a held guard must be a no-op success")
	assert.True(t, g.Held())

	// The port must still be occupied by the first (and only) socket.
	other := New(port)
	assert.True(t, IsAlreadyHeld(other.TryAcquire()))
}

// TestGuard_ReleaseAllowsReacquisition verifies the full scenario from
// the design contract: acquire on a port, observe a duplicate fail,
// release, and observe a fresh guard succeed.
func TestGuard_ReleaseAllowsReacquisition(t *testing.T) {
	port := freeUDPPort(t)

	first := New(port)
	require.NoError(t, first.TryAcquire())

	second := New(port)
	require.True(t, IsAlreadyHeld(second.TryAcquire()))

	// Release the holder; the kernel frees the port immediately.
	require.NoError(t, first.Release())
	assert.Equal(t, model.StateUnacquired, first.State())

	third := New(port)
	defer func() { _ = third.Release() }()
	assert.NoError(t, third.TryAcquire(), "a new guard must succeed after the holder released")
}

// TestGuard_RetryAfterFailure verifies that a guard in the Failed state
// may retry TryAcquire and succeed once the contention is gone.
func TestGuard_RetryAfterFailure(t *testing.T) {
	port := freeUDPPort(t)

	holder := New(port)
	require.NoError(t, holder.TryAcquire())

	contender := New(port)
	require.Error(t, contender.TryAcquire())
	require.Equal(t, model.StateFailed, contender.State())

	require.NoError(t, holder.Release())

	defer func() { _ = contender.Release() }()
	assert.NoError(t, contender.TryAcquire())
	assert.True(t, contender.Held())
}

// TestGuard_SameGuardReacquires verifies that one guard instance can go
// through a full acquire → release → acquire cycle on its own port.
func TestGuard_SameGuardReacquires(t *testing.T) {
	port := freeUDPPort(t)

	g := New(port)
	require.NoError(t, g.TryAcquire())
	require.NoError(t, g.Release())

	defer func() { _ = g.Release() }()
	assert.NoError(t, g.TryAcquire())
	assert.True(t, g.Held())
}

// TestGuard_Release_Idempotent verifies that Release is safe to call in
// any state: on a never-acquired guard and twice in a row on a holder.
func TestGuard_Release_Idempotent(t *testing.T) {
	g := New(freeUDPPort(t))

	assert.NoError(t, g.Release(), "release on an unacquired guard is a no-op")

	require.NoError(t, g.TryAcquire())
	assert.NoError(t, g.Release())
	assert.NoError(t, g.Release(), "double release must not error")
	assert.Equal(t, model.StateUnacquired, g.State())
}

// TestGuard_TryAcquire_EphemeralPortRejected verifies that port 0 is
// flagged as misuse rather than silently bound: an ephemeral port has
// no fixed rendezvous point and cannot express mutual exclusion.
func TestGuard_TryAcquire_EphemeralPortRejected(t *testing.T) {
	g := New(0)

	err := g.TryAcquire()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEphemeralPort)
	assert.Equal(t, model.StateFailed, g.State())

	// Port 0 misuse is not an AcquireError — there was no bind attempt.
	_, ok := KindOf(err)
	assert.False(t, ok)
}

// TestGuard_TryAcquire_PrivilegedPort verifies that binding a reserved
// port without elevated privilege yields a bind failure, not the
// already-held signal. This is the distinction that lets callers report
// a configuration error instead of exiting quietly.
func TestGuard_TryAcquire_PrivilegedPort(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("reserved-port privilege semantics are Unix-specific")
	}
	if os.Geteuid() == 0 {
		t.Skip("running as root — reserved ports would bind successfully")
	}

	// Port 1 (tcpmux) requires CAP_NET_BIND_SERVICE and is essentially
	// never bound by anything on a development host.
	g := New(1)
	err := g.TryAcquire()
	require.Error(t, err)

	if IsAlreadyHeld(err) {
		t.Skip("port 1 is actually in use on this host")
	}

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindBind, kind)
	assert.Equal(t, model.StateFailed, g.State())
}
