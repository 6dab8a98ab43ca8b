// Package cli — hold.go implements the "portguard hold" command.
//
// The hold command acquires a lock and keeps it until the process
// receives SIGINT or SIGTERM, then releases it. It exists for shell
// scripts that need a critical section spanning several commands:
//
//	portguard hold api & HOLDER=$!
//	... exclusive work ...
//	kill "$HOLDER"
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portguard/internal/lock"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// holdFlags holds the flag values for the hold command.
type holdFlags struct {
	// port addresses the lock by raw port number instead of a
	// configured name.
	port uint16
}

// NewHoldCommand creates the "hold" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewHoldCommand() *cobra.Command {
	flags := &holdFlags{}

	cmd := &cobra.Command{
		Use:   "hold [name]",
		Short: "Acquire a lock and hold it until interrupted",
		Long: `Acquire a lock and hold it until the process receives SIGINT or
SIGTERM, then release it and exit.

Examples:
  portguard hold api
  portguard hold --port 8080`,

		// At most one positional argument: the configured lock name.
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runHold(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().Uint16Var(&flags.port, "port", 0, "Lock port to hold (alternative to a configured name)")

	return cmd
}

// runHold is the main logic function for the hold command.
// It acquires the lock, reports it, blocks until a termination signal
// arrives, and releases the lock before returning.
func runHold(ctx context.Context, args []string, flags *holdFlags) error {
	spec, err := resolveTarget(args, flags.port)
	if err != nil {
		return err
	}

	// signal.NotifyContext cancels the context on the first SIGINT or
	// SIGTERM, which is the release trigger. The stop function restores
	// default signal handling so a second Ctrl-C kills the process even
	// if release hangs for some reason.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	guard := lock.New(spec.Port)
	if err := guard.TryAcquire(); err != nil {
		return acquireCLIError(spec, err)
	}
	defer func() { _ = guard.Release() }()

	printHoldAcquired(spec)

	// Block until a signal arrives (or the parent context is cancelled).
	// Even if the process is killed outright here, the OS closes the
	// socket on exit and the lock is freed — the explicit release below
	// only makes the common path tidy.
	<-ctx.Done()

	if err := guard.Release(); err != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to release lock %s", spec.String()), err)
	}

	VerboseLog("Released lock %s", spec.String())
	if !IsJSONOutput() {
		fmt.Printf("Released lock %s.\n", spec.String())
	}
	return nil
}

// printHoldAcquired reports the successful acquisition in text or JSON
// format. In JSON mode the object is emitted immediately so a supervising
// process can parse it while the lock is still held.
func printHoldAcquired(spec *model.LockSpec) {
	if IsJSONOutput() {
		type resultJSON struct {
			Name   string `json:"name"`
			Port   uint16 `json:"port"`
			Status string `json:"status"`
		}

		data, _ := json.MarshalIndent(resultJSON{
			Name:   spec.Name,
			Port:   spec.Port,
			Status: model.StateHeld.String(),
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("Holding lock %s. Press Ctrl-C to release.\n", spec.String())
}
