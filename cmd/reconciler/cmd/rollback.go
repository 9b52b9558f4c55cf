package cmd

import (
	"context"
	"fmt"

	"upi-recon-engine/cmd/reconciler/config"
	"upi-recon-engine/internal/rollback"

	"github.com/spf13/cobra"
)

var (
	rbLevel    string
	rbRunID    string
	rbReason   string
	rbFileName string
	rbCycleID  string
	rbRRNs     []string
	rbConfirm  bool
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Undo a run at one of five scopes",
	Long: `Rollback undoes part or all of a run's state: an uploaded file
(INGESTION), matched records back to ORPHAN (MID_RECON or CYCLE_WISE), a
cycle's generated vouchers back to PENDING (ACCOUNTING), or the run's
entire output directory (WHOLE_PROCESS).

Examples:
  reconciler rollback --run-id R20260729 --level ingestion --file cbs_1C.csv
  reconciler rollback --run-id R20260729 --level mid_recon --rrn 100000000001
  reconciler rollback --run-id R20260729 --level cycle_wise --cycle-id 1C
  reconciler rollback --run-id R20260729 --level accounting
  reconciler rollback --run-id R20260729 --level whole_process --reason "bad upload" --confirm`,
	RunE: runRollback,
}

func init() {
	rootCmd.AddCommand(rollbackCmd)

	rollbackCmd.Flags().StringVar(&rbLevel, "level", "", "rollback level: whole_process, ingestion, mid_recon, cycle_wise, accounting (required)")
	rollbackCmd.Flags().StringVar(&rbRunID, "run-id", "", "run identifier to roll back (required)")
	rollbackCmd.Flags().StringVar(&rbReason, "reason", "", "reason for the rollback (required for whole_process)")
	rollbackCmd.Flags().StringVar(&rbFileName, "file", "", "uploaded file name to remove (ingestion)")
	rollbackCmd.Flags().StringVar(&rbCycleID, "cycle-id", "", "cycle to scope the rollback to (cycle_wise)")
	rollbackCmd.Flags().StringSliceVar(&rbRRNs, "rrn", nil, "specific RRNs to roll back (mid_recon); empty means all matched")
	rollbackCmd.Flags().BoolVar(&rbConfirm, "confirm", false, "explicit confirmation required for whole_process")

	rollbackCmd.MarkFlagRequired("level")
	rollbackCmd.MarkFlagRequired("run-id")
}

func parseRollbackLevel(s string) (rollback.Level, error) {
	switch s {
	case "whole_process":
		return rollback.LevelWholeProcess, nil
	case "ingestion":
		return rollback.LevelIngestion, nil
	case "mid_recon":
		return rollback.LevelMidRecon, nil
	case "cycle_wise":
		return rollback.LevelCycleWise, nil
	case "accounting":
		return rollback.LevelAccounting, nil
	default:
		return "", fmt.Errorf("unknown rollback level %q", s)
	}
}

func runRollback(cmd *cobra.Command, args []string) error {
	level, err := parseRollbackLevel(rbLevel)
	if err != nil {
		return err
	}

	reconCfg := config.CreateReconcilerConfig()
	manager := rollback.NewManager(reconCfg.OutputRoot, nil)

	req := rollback.Request{
		Level:    level,
		RunID:    rbRunID,
		Reason:   rbReason,
		FileName: rbFileName,
		CycleID:  rbCycleID,
		RRNs:     rbRRNs,
		Confirm:  rbConfirm,
	}

	entry, err := manager.Execute(context.Background(), req)
	if err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	fmt.Printf("Rollback %s completed: %s\n", entry.RollbackID, entry.Detail)
	return nil
}
