// locks_test.go contains unit tests for the pure filtering logic used by
// the locks command. These tests verify data transformation without
// requiring a configuration file or live ports.
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/portguard/internal/model"
)

// TestFilterReportsByStatus verifies that status filtering keeps exactly
// the matching reports, preserving order.
func TestFilterReportsByStatus(t *testing.T) {
	reports := []lockReport{
		{Name: "api", Port: 8080, Status: "held"},
		{Name: "scheduler", Port: 8082, Status: "free"},
		{Name: "worker", Port: 8081, Status: "held"},
	}

	tests := []struct {
		name      string
		status    model.ProbeStatus
		wantNames []string
	}{
		{"held only", model.StatusHeld, []string{"api", "worker"}},
		{"free only", model.StatusFree, []string{"scheduler"}},
		{"no matches", model.StatusDenied, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterReportsByStatus(reports, tt.status)

			names := make([]string, 0, len(got))
			for _, r := range got {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}

// TestFilterReportsByStatus_Empty verifies the empty and nil input cases
// both produce an empty (non-nil) result.
func TestFilterReportsByStatus_Empty(t *testing.T) {
	assert.Empty(t, filterReportsByStatus(nil, model.StatusHeld))
	assert.Empty(t, filterReportsByStatus([]lockReport{}, model.StatusFree))
}

// TestParseStatusFilter verifies --status flag handling, including the
// case-insensitive forms: --status HELD must filter the same locks as
// --status held rather than passing validation and matching nothing.
func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		name       string
		value      string
		wantStatus model.ProbeStatus
		wantActive bool
		wantErr    bool
	}{
		{"lowercase held", "held", model.StatusHeld, true, false},
		{"uppercase held", "HELD", model.StatusHeld, true, false},
		{"mixed-case free", "Free", model.StatusFree, true, false},
		{"denied", "denied", model.StatusDenied, true, false},
		{"all disables filtering", "all", "", false, false},
		{"uppercase all", "ALL", "", false, false},
		{"unknown value", "busy", "", false, true},
		{"empty value", "", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, active, err := parseStatusFilter(tt.value)

			if tt.wantErr {
				require.Error(t, err)

				// Flag misuse carries the general error exit code.
				var cliErr *model.CLIError
				require.ErrorAs(t, err, &cliErr)
				assert.Equal(t, model.ExitGeneralError, cliErr.Code)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantActive, active)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

// TestParseStatusFilter_CaseVariantMatchesReports ties normalization and
// filtering together: a shouting --status value must still select the
// reports probed as "held".
func TestParseStatusFilter_CaseVariantMatchesReports(t *testing.T) {
	reports := []lockReport{
		{Name: "api", Port: 8080, Status: "held"},
		{Name: "scheduler", Port: 8082, Status: "free"},
	}

	status, active, err := parseStatusFilter("HELD")
	require.NoError(t, err)
	require.True(t, active)

	got := filterReportsByStatus(reports, status)
	require.Len(t, got, 1)
	assert.Equal(t, "api", got[0].Name)
}
