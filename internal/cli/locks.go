// Package cli — locks.go implements the "portguard locks" command.
//
// The locks command loads the configuration file and probes every named
// lock, presenting the results as a text table or JSON array. An optional
// --status flag filters by observed status (free, held, denied, or all).
package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/portguard/internal/config"
	"github.com/mmr-tortoise/portguard/internal/model"
)

// locksFlags holds the flag values for the locks command.
type locksFlags struct {
	// status filters locks by their observed probe status.
	// Valid values: "free", "held", "denied", "all" (default).
	status string
}

// lockReport pairs a configured lock with its observed status for output.
type lockReport struct {
	Name        string `json:"name"`
	Port        uint16 `json:"port"`
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

// NewLocksCommand creates the "locks" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewLocksCommand() *cobra.Command {
	flags := &locksFlags{}

	cmd := &cobra.Command{
		Use:   "locks",
		Short: "List configured locks and their status",
		Long: `List all locks defined in the configuration file, probing each one
to report whether it is currently free or held.

Examples:
  portguard locks
  portguard locks --status held
  portguard locks --json`,

		// No positional arguments are required for the locks command.
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLocks(flags)
		},
	}

	cmd.Flags().StringVar(&flags.status, "status", "all",
		"Filter by status: free, held, denied, all (default: all)")

	return cmd
}

// runLocks is the main logic function for the locks command.
// It loads the configuration, probes every lock, applies the status
// filter, and outputs results in the appropriate format.
func runLocks(flags *locksFlags) error {
	// Step 1: Validate and normalize the --status flag value.
	statusFilter, filterActive, err := parseStatusFilter(flags.status)
	if err != nil {
		return err
	}

	// Step 2: Load the configuration file.
	cfg, err := config.FindAndLoad()
	if err != nil {
		return err
	}

	VerboseLog("Loaded %d lock definition(s)", len(cfg.Locks))

	// Step 3: Probe every configured lock. Each probe briefly binds and
	// releases the port, so the listing never disturbs a held lock and
	// never keeps a free one occupied.
	reports := make([]lockReport, 0, len(cfg.Locks))
	for _, spec := range cfg.Locks {
		status, err := probeStatus(spec.Port)
		if err != nil {
			return model.WrapCLIError(model.ExitSocketFailure,
				fmt.Sprintf("failed to probe lock %s", spec.String()), err)
		}

		reports = append(reports, lockReport{
			Name:        spec.Name,
			Port:        spec.Port,
			Status:      status.String(),
			Description: spec.Description,
		})
	}

	// Step 4: Sort by name for consistent output.
	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Name < reports[j].Name
	})

	// Step 5: Apply the --status filter if specified.
	if filterActive {
		reports = filterReportsByStatus(reports, statusFilter)
	}

	// Step 6: Output results in the appropriate format.
	printLocksResult(reports)
	return nil
}

// parseStatusFilter validates the --status flag value. The boolean
// reports whether a filter should be applied at all; "all" (in any
// case) disables filtering. Status values are matched case-insensitively,
// so --status HELD filters the same locks as --status held.
func parseStatusFilter(value string) (model.ProbeStatus, bool, error) {
	if strings.EqualFold(value, "all") {
		return "", false, nil
	}

	status, err := model.ParseProbeStatus(value)
	if err != nil {
		return "", false, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid status filter %q: valid values are free, held, denied, all", value))
	}
	return status, true, nil
}

// filterReportsByStatus returns the reports whose status matches the
// given value.
func filterReportsByStatus(reports []lockReport, status model.ProbeStatus) []lockReport {
	filtered := make([]lockReport, 0, len(reports))
	for _, r := range reports {
		if r.Status == status.String() {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// printLocksResult outputs the lock reports in text or JSON format,
// depending on the global --json flag.
func printLocksResult(reports []lockReport) {
	if IsJSONOutput() {
		type resultJSON struct {
			Locks []lockReport `json:"locks"`
		}

		// Use an empty slice instead of nil to ensure JSON output shows []
		// instead of null when no locks match.
		result := resultJSON{Locks: reports}
		if result.Locks == nil {
			result.Locks = []lockReport{}
		}

		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(data))
		return
	}

	if len(reports) == 0 {
		fmt.Println("No locks found.")
		return
	}

	// Print header row.
	fmt.Printf("%-20s %-8s %-8s %s\n", "NAME", "PORT", "STATUS", "DESCRIPTION")

	for _, r := range reports {
		fmt.Printf("%-20s %-8d %-8s %s\n", r.Name, r.Port, r.Status, r.Description)
	}
}
