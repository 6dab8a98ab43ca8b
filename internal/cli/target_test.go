// target_test.go contains unit tests for the shared lock-target
// resolution, failure-to-exit-code mapping, and the probe helper.
package cli

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/portguard/internal/lock"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// freeUDPPort asks the OS for a currently-free loopback UDP port.
// The probe socket is closed before returning.
func freeUDPPort(t *testing.T) uint16 {
	t.Helper()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	udpAddr, ok := conn.LocalAddr().(*net.UDPAddr)
	require.True(t, ok)
	return uint16(udpAddr.Port)
}

// chdirWithConfig creates a temp directory containing the given
// portguard.yaml contents and makes it the working directory for the
// duration of the test, so FindAndLoad discovers it.
func chdirWithConfig(t *testing.T, contents string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "portguard.yaml"), []byte(contents), 0o644))
	t.Chdir(dir)
}

// TestResolveTarget_RawPort verifies --port addressing, including the
// synthetic display name assigned to unnamed locks.
func TestResolveTarget_RawPort(t *testing.T) {
	spec, err := resolveTarget(nil, 8080)
	require.NoError(t, err)

	assert.Equal(t, uint16(8080), spec.Port)
	assert.Equal(t, "port-8080", spec.Name)
}

// TestResolveTarget_NamedLock verifies name resolution through a
// discovered configuration file.
func TestResolveTarget_NamedLock(t *testing.T) {
	chdirWithConfig(t, `
locks:
  - name: api
    port: 8080
`)

	spec, err := resolveTarget([]string{"api"}, 0)
	require.NoError(t, err)
	assert.Equal(t, uint16(8080), spec.Port)
	assert.Equal(t, "api", spec.Name)
}

// TestResolveTarget_UnknownName verifies that an undefined lock name
// surfaces the config-not-found exit code.
func TestResolveTarget_UnknownName(t *testing.T) {
	chdirWithConfig(t, `
locks:
  - name: api
    port: 8080
`)

	_, err := resolveTarget([]string{"worker"}, 0)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigNotFound, cliErr.Code)
}

// TestResolveTarget_BothOrNeither verifies the mutual exclusion between
// positional name and --port, and the error when neither is given.
func TestResolveTarget_BothOrNeither(t *testing.T) {
	_, err := resolveTarget([]string{"api"}, 8080)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not both")

	_, err = resolveTarget(nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "specify a lock name or --port")
}

// TestAcquireCLIError verifies the mapping from the acquisition failure
// taxonomy to CLI exit codes.
func TestAcquireCLIError(t *testing.T) {
	spec := &model.LockSpec{Name: "api", Port: 8080}

	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{
			name: "contention maps to duplicate-instance",
			err:  &lock.AcquireError{Kind: lock.KindAlreadyHeld, Port: 8080},
			want: model.ExitDuplicateInstance,
		},
		{
			name: "bind refusal maps to bind-denied",
			err:  &lock.AcquireError{Kind: lock.KindBind, Port: 8080},
			want: model.ExitBindDenied,
		},
		{
			name: "socket failure maps to socket-failure",
			err:  &lock.AcquireError{Kind: lock.KindSocketCreate, Port: 8080},
			want: model.ExitSocketFailure,
		},
		{
			name: "ephemeral-port misuse maps to general error",
			err:  lock.ErrEphemeralPort,
			want: model.ExitGeneralError,
		},
		{
			name: "unclassified error maps to general error",
			err:  errors.New("unexpected"),
			want: model.ExitGeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cliErr := acquireCLIError(spec, tt.err)
			assert.Equal(t, tt.want, cliErr.Code)
			// The original error must stay reachable for errors.Is checks.
			assert.True(t, errors.Is(cliErr, tt.err))
		})
	}
}

// TestProbeStatus_Free verifies that probing a free port reports it free
// and leaves it free (the probe socket is released).
func TestProbeStatus_Free(t *testing.T) {
	port := freeUDPPort(t)

	status, err := probeStatus(port)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFree, status)

	// The probe must not keep the port: a real guard can acquire it now.
	g := lock.New(port)
	defer func() { _ = g.Release() }()
	assert.NoError(t, g.TryAcquire())
}

// TestProbeStatus_Held verifies that a port held by a guard is reported
// as held, and that the probe does not steal or disturb the lock.
func TestProbeStatus_Held(t *testing.T) {
	port := freeUDPPort(t)

	holder := lock.New(port)
	require.NoError(t, holder.TryAcquire())
	defer func() { _ = holder.Release() }()

	status, err := probeStatus(port)
	require.NoError(t, err)
	assert.Equal(t, model.StatusHeld, status)
	assert.True(t, holder.Held(), "the probe must not disturb the holder")
}
