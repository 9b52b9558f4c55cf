package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// ScenarioValidator checks that a generated test data directory covers the
// set of reconciliation scenarios the engine is expected to handle, by
// globbing for the files scenario_generator.go produces and sanity
// checking their row counts — not by running the matcher itself (that is
// reconciliation_validator.go's job).
type ScenarioValidator struct {
	Verbose bool
	DataDir string
}

// ScenarioResult is the coverage verdict for one required scenario.
type ScenarioResult struct {
	Scenario    string
	Required    bool
	Found       bool
	Files       []string
	RowCount    int
	Issues      []string
	Suggestions []string
}

// RequiredScenario defines one scenario this validator checks for.
type RequiredScenario struct {
	Name        string
	Description string
	Required    bool
	FilePattern []string
	Validator   func(*ScenarioValidator, []string) ScenarioResult
}

var requiredScenarios = []RequiredScenario{
	{
		Name:        "duplicate_rrn",
		Description: "Duplicate RRN detection within a single source file",
		Required:    true,
		FilePattern: []string{"*duplicate_rrn*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "carry_over",
		Description: "Unmatched rows that should roll into the next cycle's hanging state",
		Required:    true,
		FilePattern: []string{"*carry_over*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "cut_off_boundary",
		Description: "Rows straddling the cycle cut-off time",
		Required:    true,
		FilePattern: []string{"*cut_off*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "settlement_lump_threshold",
		Description: "RRN-less CBS credit/debit pairs above the settlement lump amount threshold",
		Required:    true,
		FilePattern: []string{"*settlement_lump*.csv"},
		Validator:   (*ScenarioValidator).validateMinimumRows(1000),
	},
	{
		Name:        "force_match_adjustment",
		Description: "A mismatch resolved by an adjustment file carrying FORCE_MATCH",
		Required:    true,
		FilePattern: []string{"*force_match*.csv"},
		Validator:   (*ScenarioValidator).validateAdjustmentPresence,
	},
	{
		Name:        "multi_cycle",
		Description: "Fixtures spanning more than one cycle id",
		Required:    true,
		FilePattern: []string{"*multi_cycle*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "large_amounts",
		Description: "High-value source rows",
		Required:    true,
		FilePattern: []string{"*large_amounts*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "micro_transactions",
		Description: "Very small amount source rows",
		Required:    false,
		FilePattern: []string{"*micro*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "format_variations",
		Description: "CBS/Switch/NPCI/NTSL header variants the normalizer must discover",
		Required:    true,
		FilePattern: []string{"cbs_*.csv", "switch_*.csv", "npci_*.csv", "ntsl_*.csv"},
		Validator:   (*ScenarioValidator).validateRowPresence,
	},
	{
		Name:        "performance_datasets",
		Description: "Large datasets for stress/load testing",
		Required:    true,
		FilePattern: []string{"stress_*.csv"},
		Validator:   (*ScenarioValidator).validateMinimumRows(1000),
	},
}

func main() {
	var (
		dataDir = flag.String("data-dir", "generated", "Root directory to scan for generated test data")
		output  = flag.String("output", "", "Output file for the coverage report (optional)")
		verbose = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	sv := &ScenarioValidator{Verbose: *verbose, DataDir: *dataDir}

	results := sv.ValidateAll()
	sv.PrintResults(results)

	if *output != "" {
		if err := sv.WriteReport(results, *output); err != nil {
			log.Fatalf("failed to write report: %v", err)
		}
	}

	for _, r := range results {
		if r.Required && !r.Found {
			os.Exit(1)
		}
	}
}

func (sv *ScenarioValidator) ValidateAll() []ScenarioResult {
	var results []ScenarioResult
	for _, scenario := range requiredScenarios {
		files := sv.findMatchingFiles(scenario.FilePattern)
		result := scenario.Validator(sv, files)
		result.Scenario = scenario.Name
		result.Required = scenario.Required
		result.Files = files
		results = append(results, result)
	}
	return results
}

func (sv *ScenarioValidator) findMatchingFiles(patterns []string) []string {
	var matches []string
	seen := map[string]bool{}

	filepath.Walk(sv.DataDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".csv") {
			return nil
		}
		base := filepath.Base(path)
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, base); ok && !seen[path] {
				matches = append(matches, path)
				seen[path] = true
			}
		}
		return nil
	})

	return matches
}

func (sv *ScenarioValidator) validateRowPresence(files []string) ScenarioResult {
	result := ScenarioResult{Found: len(files) > 0}
	if !result.Found {
		result.Issues = append(result.Issues, "no matching files found")
		return result
	}
	for _, f := range files {
		rows, err := countCSVRows(f)
		if err != nil {
			result.Issues = append(result.Issues, fmt.Sprintf("%s: %v", f, err))
			continue
		}
		result.RowCount += rows
	}
	if result.RowCount == 0 {
		result.Found = false
		result.Issues = append(result.Issues, "matching files contain no data rows")
	}
	return result
}

func (sv *ScenarioValidator) validateMinimumRows(min int) func(*ScenarioValidator, []string) ScenarioResult {
	return func(sv *ScenarioValidator, files []string) ScenarioResult {
		result := sv.validateRowPresence(files)
		if result.Found && result.RowCount < min {
			result.Found = false
			result.Issues = append(result.Issues, fmt.Sprintf("expected at least %d rows, found %d", min, result.RowCount))
		}
		return result
	}
}

func (sv *ScenarioValidator) validateAdjustmentPresence(files []string) ScenarioResult {
	result := sv.validateRowPresence(files)
	hasAdjustment := false
	for _, f := range files {
		if strings.Contains(strings.ToLower(filepath.Base(f)), "adjustment") {
			hasAdjustment = true
		}
	}
	if result.Found && !hasAdjustment {
		result.Found = false
		result.Issues = append(result.Issues, "no adjustment file found alongside the mismatched source rows")
	}
	return result
}

func countCSVRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}
	return len(records) - 1, nil // subtract header row
}

func (sv *ScenarioValidator) PrintResults(results []ScenarioResult) {
	fmt.Println("Scenario Coverage Report")
	fmt.Println(strings.Repeat("=", 60))

	for _, r := range results {
		status := "MISSING"
		if r.Found {
			status = "OK"
		}
		req := "optional"
		if r.Required {
			req = "required"
		}
		fmt.Printf("[%-7s] %-28s (%s) files=%d rows=%d\n", status, r.Scenario, req, len(r.Files), r.RowCount)
		if sv.Verbose {
			for _, f := range r.Files {
				fmt.Printf("    - %s\n", f)
			}
		}
		for _, issue := range r.Issues {
			fmt.Printf("    issue: %s\n", issue)
		}
	}
}

func (sv *ScenarioValidator) WriteReport(results []ScenarioResult, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for _, r := range results {
		fmt.Fprintf(f, "Scenario: %s\nRequired: %v\nFound: %v\nFiles: %d\nRows: %d\n", r.Scenario, r.Required, r.Found, len(r.Files), r.RowCount)
		for _, issue := range r.Issues {
			fmt.Fprintf(f, "Issue: %s\n", issue)
		}
		fmt.Fprintln(f, strings.Repeat("-", 60))
	}
	return nil
}
