// Package cli — whois.go implements the "portguard whois" command.
//
// When a lock port turns out to be occupied, whois asks the Docker daemon
// whether a running container publishes that host port. On developer
// machines a forgotten container is the most common squatter, and
// "address already in use" alone doesn't say which process to blame.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portguard/internal/docker"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// whoisFlags holds the flag values for the whois command.
type whoisFlags struct {
	// port addresses the lock by raw port number instead of a
	// configured name.
	port uint16
}

// NewWhoisCommand creates the "whois" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewWhoisCommand() *cobra.Command {
	flags := &whoisFlags{}

	cmd := &cobra.Command{
		Use:   "whois [name]",
		Short: "Find the Docker container occupying a lock port",
		Long: `Ask the Docker daemon which running container (if any) publishes the
lock port on the host. Useful when "check" reports a lock as held and
the holder is not obvious.

Examples:
  portguard whois api
  portguard whois --port 8080`,

		// At most one positional argument: the configured lock name.
		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhois(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().Uint16Var(&flags.port, "port", 0, "Host port to look up (alternative to a configured name)")

	return cmd
}

// runWhois is the main logic function for the whois command.
// It connects to Docker, queries for containers publishing the port,
// and reports the bindings.
func runWhois(ctx context.Context, args []string, flags *whoisFlags) error {
	spec, err := resolveTarget(args, flags.port)
	if err != nil {
		return err
	}

	// Connect to Docker and verify the daemon is responsive before
	// querying. NewClient and Ping already return CLIErrors with
	// ExitDockerNotRunning.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	// defer ensures the Docker client is closed when this function returns,
	// releasing the underlying HTTP connection and resources.
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}

	VerboseLog("Connected to Docker daemon, querying publishers of port %d", spec.Port)

	bindings, err := docker.FindPortPublishers(ctx, cli, spec.Port)
	if err != nil {
		return err
	}

	printWhoisResult(spec, bindings)
	return nil
}

// printWhoisResult outputs the port bindings in text or JSON format,
// depending on the global --json flag.
func printWhoisResult(spec *model.LockSpec, bindings []model.PortBinding) {
	if IsJSONOutput() {
		type resultJSON struct {
			Name     string              `json:"name"`
			Port     uint16              `json:"port"`
			Bindings []model.PortBinding `json:"bindings"`
		}

		result := resultJSON{
			Name: spec.Name,
			Port: spec.Port,
			// Empty slice instead of nil so JSON shows [] rather than null.
			Bindings: bindings,
		}
		if result.Bindings == nil {
			result.Bindings = []model.PortBinding{}
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(bindings) == 0 {
		fmt.Printf("No running container publishes port %d. If the lock is held, the holder is an ordinary host process.\n", spec.Port)
		return
	}

	// Print header row. Container IDs are truncated to the 12-character
	// short form Docker itself displays.
	fmt.Printf("%-14s %-24s %-24s %s\n", "CONTAINER", "NAME", "IMAGE", "BINDING")
	for _, b := range bindings {
		id := b.ContainerID
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Printf("%-14s %-24s %-24s %s\n", id, b.ContainerName, b.Image, b.String())
	}
}
