package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"upi-recon-engine/internal/models"
	"upi-recon-engine/internal/reconciler"
)

// ReconciliationValidator drives full reconciliation cycles end to end
// through internal/reconciler.Service and checks the resulting record
// status distribution against a golden expectation, rather than parsing
// and matching by hand.
type ReconciliationValidator struct {
	Verbose bool
	DataDir string
	OutDir  string
	Service *reconciler.Service
}

// ValidationTest describes one end-to-end cycle to run and the record
// counts per status/exception it is expected to produce.
type ValidationTest struct {
	Name              string
	CycleID           string
	CBSFiles          []string
	SwitchFiles       []string
	NPCIFiles         []string
	NTSLFiles         []string
	AdjustmentFiles   []string
	ExpectedStatus    map[models.Status]int
	MaxProcessingTime time.Duration
}

// TestResult is the outcome of running one ValidationTest.
type TestResult struct {
	Test           ValidationTest
	Success        bool
	ActualStatus   map[models.Status]int
	ProcessingTime time.Duration
	Errors         []string
	Warnings       []string
}

func main() {
	var (
		dataDir = flag.String("data-dir", "generated/scenarios", "Directory containing scenario fixture files")
		outDir  = flag.String("out-dir", "validator_runs", "Directory the reconciler writes cycle output under")
		verbose = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("failed to create output dir: %v", err)
	}

	svc, err := reconciler.NewService(&reconciler.Config{OutputRoot: *outDir, SourceSystem: "testdata-validator"}, nil)
	if err != nil {
		log.Fatalf("failed to build reconciler service: %v", err)
	}

	rv := &ReconciliationValidator{Verbose: *verbose, DataDir: *dataDir, OutDir: *outDir, Service: svc}

	tests := rv.DefineValidationTests()
	var results []TestResult
	allPassed := true

	for _, test := range tests {
		result := rv.RunValidationTest(test)
		results = append(results, result)
		if !result.Success {
			allPassed = false
		}
	}

	rv.PrintSummary(results)

	if !allPassed {
		os.Exit(1)
	}
}

// DefineValidationTests enumerates the scenarios scenario_generator.go
// produces and the status distribution each should settle into.
func (rv *ReconciliationValidator) DefineValidationTests() []ValidationTest {
	dir := rv.DataDir
	return []ValidationTest{
		{
			Name:              "duplicate_rrn",
			CycleID:           "1C",
			CBSFiles:          []string{filepath.Join(dir, "duplicate_rrn_cbs.csv")},
			SwitchFiles:       []string{filepath.Join(dir, "duplicate_rrn_switch.csv")},
			ExpectedStatus:    map[models.Status]int{models.StatusHanging: 2},
			MaxProcessingTime: 2 * time.Second,
		},
		{
			Name:              "cut_off",
			CycleID:           "1C",
			CBSFiles:          []string{filepath.Join(dir, "cut_off_cbs.csv")},
			SwitchFiles:       []string{filepath.Join(dir, "cut_off_switch.csv")},
			MaxProcessingTime: 2 * time.Second,
		},
		{
			Name:              "force_match",
			CycleID:           "1C",
			CBSFiles:          []string{filepath.Join(dir, "force_match_cbs.csv")},
			SwitchFiles:       []string{filepath.Join(dir, "force_match_switch.csv")},
			AdjustmentFiles:   []string{filepath.Join(dir, "force_match_adjustments.csv")},
			ExpectedStatus:    map[models.Status]int{models.StatusForceMatched: 1},
			MaxProcessingTime: 2 * time.Second,
		},
		{
			Name:              "settlement_lump",
			CycleID:           "1C",
			CBSFiles:          []string{filepath.Join(dir, "settlement_lump_cbs.csv")},
			MaxProcessingTime: 5 * time.Second,
		},
	}
}

// RunValidationTest parses the test's fixture files through one
// ProcessCycle call and tallies the resulting records by status.
func (rv *ReconciliationValidator) RunValidationTest(test ValidationTest) TestResult {
	result := TestResult{Test: test, ActualStatus: map[models.Status]int{}}

	if rv.Verbose {
		fmt.Printf("Running test: %s\n", test.Name)
	}

	start := time.Now()
	req := &reconciler.CycleRequest{
		RunID:       "validator-" + test.Name,
		CycleID:     test.CycleID,
		UserID:      "testdata-validator",
		CBSFiles:    test.CBSFiles,
		SwitchFiles: test.SwitchFiles,
		NPCIFiles:   test.NPCIFiles,
		NTSLFiles:   test.NTSLFiles,
		Adjustments: test.AdjustmentFiles,
	}

	cycleResult, err := rv.Service.ProcessCycle(context.Background(), req)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cycle failed: %v", err))
		return result
	}

	for _, rec := range cycleResult.Records {
		result.ActualStatus[rec.Status]++
	}

	result.Success = true
	for status, expected := range test.ExpectedStatus {
		if result.ActualStatus[status] != expected {
			result.Errors = append(result.Errors, fmt.Sprintf(
				"status %s: expected %d, got %d", status, expected, result.ActualStatus[status]))
			result.Success = false
		}
	}

	if test.MaxProcessingTime > 0 && result.ProcessingTime > test.MaxProcessingTime {
		result.Warnings = append(result.Warnings, fmt.Sprintf(
			"processing time %v exceeded budget %v", result.ProcessingTime, test.MaxProcessingTime))
	}

	return result
}

func (rv *ReconciliationValidator) PrintSummary(results []TestResult) {
	fmt.Println("\nReconciliation Validation Summary")
	fmt.Println(repeat("=", 60))

	for _, r := range results {
		status := "PASS"
		if !r.Success {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s (%v)\n", status, r.Test.Name, r.ProcessingTime)
		for status, count := range r.ActualStatus {
			fmt.Printf("    %s: %d\n", status, count)
		}
		for _, e := range r.Errors {
			fmt.Printf("    ERROR: %s\n", e)
		}
		for _, w := range r.Warnings {
			fmt.Printf("    WARN:  %s\n", w)
		}
	}
}

func repeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
