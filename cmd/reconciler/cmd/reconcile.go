package cmd

import (
	"context"
	"fmt"
	"os"

	"upi-recon-engine/cmd/reconciler/config"
	"upi-recon-engine/internal/reconciler"
	"upi-recon-engine/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command.
var (
	runID       string
	cycleID     string
	userID      string
	cbsFiles    []string
	switchFiles []string
	npciFiles   []string
	ntslFiles   []string
	adjFiles    []string
	showMatched bool
)

// reconcileCmd runs one reconciliation cycle.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciliation cycle",
	Long: `Reconcile runs the eight-step matching engine over the CBS, Switch,
NPCI, and NTSL files supplied for one cycle, carries unresolved entries
forward from any prior cycle of the same run, and writes reports, TTUM
files, and GL vouchers under the configured output directory.

Examples:
  reconciler reconcile --run-id R20260729 --cycle-id 1C \
    --cbs-file cbs_1C.csv --switch-file switch_1C.csv --npci-file npci_1C.csv

  reconciler reconcile --run-id R20260729 --cycle-id 2C \
    --cbs-file cbs_2C.csv --switch-file switch_2C.csv --adjustment-file adj_2C.csv`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().StringVar(&runID, "run-id", "", "run identifier, shared across a run's cycles (required)")
	reconcileCmd.Flags().StringVar(&cycleID, "cycle-id", "", "cycle identifier, e.g. 1C..10C (required)")
	reconcileCmd.Flags().StringVar(&userID, "user", "cli", "user identifier recorded in the audit trail")

	reconcileCmd.Flags().StringSliceVar(&cbsFiles, "cbs-file", nil, "path(s) to CBS input files")
	reconcileCmd.Flags().StringSliceVar(&switchFiles, "switch-file", nil, "path(s) to Switch input files")
	reconcileCmd.Flags().StringSliceVar(&npciFiles, "npci-file", nil, "path(s) to NPCI input files")
	reconcileCmd.Flags().StringSliceVar(&ntslFiles, "ntsl-file", nil, "path(s) to NTSL input files")
	reconcileCmd.Flags().StringSliceVar(&adjFiles, "adjustment-file", nil, "path(s) to adjustment input files")

	reconcileCmd.Flags().BoolVar(&showMatched, "show-matched", false, "include matched records in the console summary")

	reconcileCmd.MarkFlagRequired("run-id")
	reconcileCmd.MarkFlagRequired("cycle-id")

	config.SetDefaults()
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	if runID == "" {
		return fmt.Errorf("run-id is required")
	}
	if cycleID == "" {
		return fmt.Errorf("cycle-id is required")
	}
	if len(cbsFiles) == 0 && len(switchFiles) == 0 && len(npciFiles) == 0 && len(ntslFiles) == 0 {
		return fmt.Errorf("at least one of --cbs-file, --switch-file, --npci-file, --ntsl-file is required")
	}
	for _, files := range [][]string{cbsFiles, switchFiles, npciFiles, ntslFiles, adjFiles} {
		for _, f := range files {
			if err := validateFileExists(f, "input file"); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	verbose := viper.GetBool("verbose")

	matchCfg := config.CreateMatchingConfig()
	reconCfg := config.CreateReconcilerConfig()
	if err := config.Validate(matchCfg, reconCfg); err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Run: %s  Cycle: %s\n", runID, cycleID)
		fmt.Fprintf(os.Stderr, "CBS files: %v\n", cbsFiles)
		fmt.Fprintf(os.Stderr, "Switch files: %v\n", switchFiles)
		fmt.Fprintf(os.Stderr, "NPCI files: %v\n", npciFiles)
		fmt.Fprintf(os.Stderr, "NTSL files: %v\n", ntslFiles)
	}

	svc, err := reconciler.NewService(reconCfg, matchCfg)
	if err != nil {
		return fmt.Errorf("failed to construct reconciler: %w", err)
	}

	req := &reconciler.CycleRequest{
		RunID:       runID,
		CycleID:     cycleID,
		UserID:      userID,
		CBSFiles:    cbsFiles,
		SwitchFiles: switchFiles,
		NPCIFiles:   npciFiles,
		NTSLFiles:   ntslFiles,
		Adjustments: adjFiles,
	}

	result, err := svc.ProcessCycle(ctx, req)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	opts := reporter.DefaultConsoleOptions()
	opts.IncludeMatched = showMatched
	if err := reporter.WriteConsoleSummary(result.Records, os.Stdout, opts); err != nil {
		return fmt.Errorf("failed to write console summary: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "\nMatched: %d  Exceptions: %d  TTUM required: %d\n",
			result.MatchedCount, result.ExceptionCount, result.TTUMCount)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
