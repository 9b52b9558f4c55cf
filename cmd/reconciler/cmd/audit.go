package cmd

import (
	"fmt"
	"path/filepath"

	"upi-recon-engine/cmd/reconciler/config"
	"upi-recon-engine/internal/audit"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	auditRunID  string
	auditUserID string
	auditAction string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit events for a run",
	Long: `Query scans the run's daily audit log files and prints every event
matching the given filters.

Examples:
  reconciler audit query --run-id R20260729
  reconciler audit query --run-id R20260729 --action CYCLE_FAILED`,
	RunE: runAuditQuery,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)

	auditQueryCmd.Flags().StringVar(&auditRunID, "run-id", "", "run identifier to query (required)")
	auditQueryCmd.Flags().StringVar(&auditUserID, "user", "", "filter by user id")
	auditQueryCmd.Flags().StringVar(&auditAction, "action", "", "filter by action name")

	auditQueryCmd.MarkFlagRequired("run-id")
}

func runAuditQuery(cmd *cobra.Command, args []string) error {
	reconCfg := config.CreateReconcilerConfig()
	dir := filepath.Join(reconCfg.OutputRoot, auditRunID, "audit_logs")
	trail := audit.NewTrail(dir, reconCfg.MaxAuditEntriesPerFile, reconCfg.SourceSystem, nil)

	events, err := trail.Query(audit.Filter{
		RunID:  auditRunID,
		UserID: auditUserID,
		Action: auditAction,
	})
	if err != nil {
		return fmt.Errorf("audit query failed: %w", err)
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Audit ID", "Action", "User", "Level", "Timestamp", "Resolved"})
	for _, e := range events {
		table.Append([]string{
			e.AuditID, e.Action, e.UserID, string(e.Level),
			e.Timestamp.Format("2006-01-02T15:04:05"), fmt.Sprintf("%v", e.Resolved),
		})
	}
	table.Render()
	return nil
}
