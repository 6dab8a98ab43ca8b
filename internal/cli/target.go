// target.go implements the shared plumbing for commands that operate on
// one lock: resolving the target (a lock name from the configuration file
// or a raw --port value) and translating acquisition failures into
// CLIErrors with the right exit codes.
package cli

import (
	"errors"
	"fmt"

	"github.com/mmr-tortoise/portguard/internal/config"
	"github.com/mmr-tortoise/portguard/internal/lock"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// resolveTarget determines which lock a command should operate on.
//
// Exactly one of the two addressing modes must be used:
//   - a positional lock name, resolved through the configuration file
//   - a raw --port value, which needs no configuration at all
//
// A raw port target gets a synthetic name of the form "port-<n>" so the
// output formatting does not need to special-case unnamed locks.
func resolveTarget(args []string, port uint16) (*model.LockSpec, error) {
	hasName := len(args) > 0
	hasPort := port != 0

	switch {
	case hasName && hasPort:
		return nil, model.NewCLIError(model.ExitGeneralError,
			"specify either a lock name or --port, not both")

	case hasPort:
		return &model.LockSpec{
			Name: fmt.Sprintf("port-%d", port),
			Port: port,
		}, nil

	case hasName:
		cfg, err := config.FindAndLoad()
		if err != nil {
			return nil, err
		}
		return cfg.Resolve(args[0])

	default:
		return nil, model.NewCLIError(model.ExitGeneralError,
			"specify a lock name or --port")
	}
}

// acquireCLIError translates a lock.Guard acquisition failure into a
// CLIError whose exit code reflects the failure taxonomy: contention,
// bind refusal, and socket allocation failure each get their own code
// so scripts can tell "a sibling is running" apart from real problems.
func acquireCLIError(spec *model.LockSpec, err error) *model.CLIError {
	if errors.Is(err, lock.ErrEphemeralPort) {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("lock %s cannot use port 0", spec.Name), err)
	}

	kind, ok := lock.KindOf(err)
	if !ok {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to acquire lock %s", spec.Name), err)
	}

	switch kind {
	case lock.KindAlreadyHeld:
		return model.WrapCLIError(model.ExitDuplicateInstance,
			fmt.Sprintf("lock %s: another instance is already running", spec.String()), err)
	case lock.KindSocketCreate:
		return model.WrapCLIError(model.ExitSocketFailure,
			fmt.Sprintf("lock %s: the OS could not allocate a socket", spec.String()), err)
	default:
		return model.WrapCLIError(model.ExitBindDenied,
			fmt.Sprintf("lock %s: bind refused (a port below 1024 needs elevated privilege)", spec.String()), err)
	}
}

// probeStatus performs an acquire-and-release probe on the given port and
// reports the observed cross-process status. Socket allocation failures
// are genuine errors (nothing can be said about the port) and are
// returned as such rather than folded into a status.
func probeStatus(port uint16) (model.ProbeStatus, error) {
	g := lock.New(port)

	err := g.TryAcquire()
	if err == nil {
		// The bind succeeded, so nobody holds the lock. Release right away —
		// a probe must not keep the port occupied.
		if relErr := g.Release(); relErr != nil {
			return "", fmt.Errorf("failed to release probe socket on %s: %w", g.Name(), relErr)
		}
		return model.StatusFree, nil
	}

	kind, ok := lock.KindOf(err)
	if !ok {
		return "", err
	}

	switch kind {
	case lock.KindAlreadyHeld:
		return model.StatusHeld, nil
	case lock.KindBind:
		return model.StatusDenied, nil
	default:
		return "", err
	}
}
