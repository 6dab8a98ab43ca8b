// Package cli — run.go implements the "portguard run" command.
//
// The run command is the supervised form of single-instance execution:
// it acquires the lock, executes a child command with inherited stdio
// while holding it, and releases the lock when the child exits. The
// child's exit code is propagated, so wrapping a program in
// "portguard run" is transparent to callers.
//
// If the lock is already held, the child is never started and the
// command exits with code 2 (duplicate instance).
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portguard/internal/lock"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// runFlags holds the flag values for the run command.
type runFlags struct {
	// port addresses the lock by raw port number instead of a
	// configured name.
	port uint16
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [name] -- <command> [args...]",
		Short: "Run a command while holding a lock",
		Long: `Acquire a lock, run a command while holding it, and release the lock
when the command exits. The command's exit code is propagated.

If another instance already holds the lock, the command is not started
and portguard exits with code 2.

Examples:
  portguard run api -- ./server --listen :3000
  portguard run --port 8080 -- make deploy`,

		// At least the child command is required; the optional lock name
		// is separated from it by "--" (see splitRunArgs).
		Args: cobra.MinimumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			nameArgs, argv, err := splitRunArgs(args, cmd.ArgsLenAtDash())
			if err != nil {
				return err
			}
			return runRun(cmd.Context(), nameArgs, argv, flags)
		},
	}

	cmd.Flags().Uint16Var(&flags.port, "port", 0, "Lock port to acquire (alternative to a configured name)")

	return cmd
}

// splitRunArgs separates the optional lock name from the child command.
//
// cobra reports the position of "--" via ArgsLenAtDash: everything before
// the dash addresses the lock (zero or one name), everything after is the
// child command verbatim. Without a dash, all arguments form the child
// command and the lock must be addressed with --port.
func splitRunArgs(args []string, lenAtDash int) (nameArgs, argv []string, err error) {
	if lenAtDash < 0 {
		// No "--" given: the whole argument list is the child command.
		return nil, args, nil
	}

	nameArgs = args[:lenAtDash]
	argv = args[lenAtDash:]

	if len(nameArgs) > 1 {
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("expected at most one lock name before --, got %d arguments", len(nameArgs)))
	}
	if len(argv) == 0 {
		return nil, nil, model.NewCLIError(model.ExitGeneralError,
			"no command given after --")
	}

	return nameArgs, argv, nil
}

// runRun is the main logic function for the run command.
// It acquires the lock, supervises the child process, and guarantees
// the lock is released on every exit path.
func runRun(ctx context.Context, nameArgs, argv []string, flags *runFlags) error {
	spec, err := resolveTarget(nameArgs, flags.port)
	if err != nil {
		return err
	}

	guard := lock.New(spec.Port)
	if err := guard.TryAcquire(); err != nil {
		return acquireCLIError(spec, err)
	}
	// The deferred release covers every early-error path below. The
	// happy path releases explicitly before propagating the child's
	// exit code; Release is idempotent, so both running is harmless.
	defer func() { _ = guard.Release() }()

	VerboseLog("Acquired lock %s, starting: %v", spec.String(), argv)

	// The child inherits stdio so the wrapper is invisible: interactive
	// programs, pipelines, and terminal output all behave as if the
	// program had been started directly.
	child := exec.CommandContext(ctx, argv[0], argv[1:]...)
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr

	runErr := child.Run()

	// Release before exiting: os.Exit skips deferred calls, so the
	// exit-code propagation path must not rely on the defer above.
	_ = guard.Release()
	VerboseLog("Released lock %s", spec.String())

	if runErr != nil {
		// A child that ran and exited non-zero propagates its code
		// unchanged. Any other failure (e.g., binary not found) is a
		// portguard error.
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to run %q", argv[0]), runErr)
	}

	return nil
}
