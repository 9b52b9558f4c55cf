package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Generator represents a data generator command
type Generator struct {
	Name        string
	Command     string
	Description string
}

var generators = []Generator{
	{
		Name:        "sources",
		Command:     "source_generator",
		Description: "Generate CBS/Switch/NPCI/NTSL source CSV files",
	},
	{
		Name:        "scenarios",
		Command:     "scenario_generator",
		Description: "Generate specific reconciliation test scenario datasets",
	},
}

func main() {
	var (
		generator = flag.String("generator", "", "Generator to run: sources, scenarios, or 'all'")
		list      = flag.Bool("list", false, "List available generators")
		outputDir = flag.String("output-dir", "../generated", "Output directory for generated files")
		help      = flag.Bool("help", false, "Show help for specific generator")
	)
	flag.Parse()

	if *list {
		listGenerators()
		return
	}

	if *generator == "" {
		fmt.Println("Test Data Generator CLI")
		fmt.Println("======================")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  go run generate.go -generator=<name> [options]")
		fmt.Println()
		fmt.Println("Available generators:")
		for _, gen := range generators {
			fmt.Printf("  %-12s %s\n", gen.Name, gen.Description)
		}
		fmt.Println()
		fmt.Println("Use -list to see all generators")
		fmt.Println("Use -help -generator=<name> to see generator-specific options")
		fmt.Println()
		fmt.Println("Examples:")
		fmt.Println("  go run generate.go -generator=sources -source=CBS -count=1000 -output=cbs_1C.csv")
		fmt.Println("  go run generate.go -generator=scenarios -scenario=all")
		fmt.Println("  go run generate.go -generator=all")
		return
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if *help {
		showGeneratorHelp(*generator)
		return
	}

	if *generator == "all" {
		generateAll(*outputDir)
		return
	}

	for _, gen := range generators {
		if gen.Name == *generator {
			runGenerator(gen, *outputDir, flag.Args())
			return
		}
	}

	log.Fatalf("Unknown generator: %s", *generator)
}

func listGenerators() {
	fmt.Println("Available Test Data Generators:")
	fmt.Println("===============================")
	fmt.Println()

	for _, gen := range generators {
		fmt.Printf("Name: %s\n", gen.Name)
		fmt.Printf("Description: %s\n", gen.Description)
		fmt.Printf("Command: %s\n", gen.Command)
		fmt.Println()
	}
}

func showGeneratorHelp(generatorName string) {
	for _, gen := range generators {
		if gen.Name == generatorName {
			fmt.Printf("Help for %s generator:\n", generatorName)
			fmt.Printf("======================\n\n")

			cmd := exec.Command("go", "run", gen.Command+".go", "-help")
			output, err := cmd.CombinedOutput()
			if err != nil {
				log.Printf("Failed to get help for %s: %v", generatorName, err)
				return
			}

			fmt.Println(string(output))
			return
		}
	}

	log.Fatalf("Unknown generator: %s", generatorName)
}

func runGenerator(gen Generator, outputDir string, args []string) {
	fmt.Printf("Running %s generator...\n", gen.Name)

	cmdArgs := []string{"run", gen.Command + ".go"}

	if gen.Name == "scenarios" {
		cmdArgs = append(cmdArgs, "-output-dir="+outputDir)
	}

	cmdArgs = append(cmdArgs, args...)

	cmd := exec.Command("go", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run %s generator: %v", gen.Name, err)
	}

	fmt.Printf("%s generator completed successfully\n", gen.Name)
}

func generateAll(outputDir string) {
	fmt.Println("Generating comprehensive test dataset...")
	fmt.Println("======================================")
	fmt.Println()

	seed := time.Now().UnixNano()
	fmt.Printf("Using seed: %d\n\n", seed)

	dirs := []string{
		filepath.Join(outputDir, "sources"),
		filepath.Join(outputDir, "scenarios"),
		filepath.Join(outputDir, "performance"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}

	fmt.Println("1. Generating per-source datasets...")
	generateSourceSets(outputDir, seed)

	fmt.Println("\n2. Generating scenario datasets...")
	generateScenarioSets(outputDir, seed)

	fmt.Println("\n3. Generating performance datasets...")
	generatePerformanceSets(outputDir, seed)

	fmt.Println("\n4. Generating documentation...")
	generateDocumentation(outputDir)

	fmt.Println("\nAll generators completed successfully!")
	fmt.Printf("Generated files are in: %s\n", outputDir)
}

func generateSourceSets(outputDir string, seed int64) {
	srcDir := filepath.Join(outputDir, "sources")

	sets := []struct {
		name    string
		source  string
		count   int
		pattern string
		desc    string
	}{
		{"cbs_1C.csv", "CBS", 1000, "random", "CBS cycle 1 baseline"},
		{"switch_1C.csv", "SWITCH", 1000, "random", "Switch cycle 1 baseline"},
		{"npci_1C.csv", "NPCI", 1000, "random", "NPCI cycle 1 baseline"},
		{"ntsl_1C.csv", "NTSL", 1000, "random", "NTSL cycle 1 baseline"},
		{"cbs_large_amounts.csv", "CBS", 200, "large-amounts", "Large amount CBS rows"},
		{"switch_micro.csv", "SWITCH", 200, "micro-transactions", "Micro-amount switch rows"},
		{"npci_cutoff.csv", "NPCI", 200, "cut-off-boundary", "Rows clustered around the 22:30 cut-off"},
	}

	for _, set := range sets {
		fmt.Printf("  Generating %s (%s)...\n", set.name, set.desc)

		outputPath := filepath.Join(srcDir, set.name)
		cmd := exec.Command("go", "run", "source_generator.go",
			"-output="+outputPath,
			"-source="+set.source,
			"-count="+fmt.Sprintf("%d", set.count),
			"-pattern="+set.pattern,
			"-seed="+fmt.Sprintf("%d", seed),
		)

		if err := cmd.Run(); err != nil {
			log.Printf("Failed to generate %s: %v", set.name, err)
		}
	}
}

func generateScenarioSets(outputDir string, seed int64) {
	scenarioDir := filepath.Join(outputDir, "scenarios")

	fmt.Printf("  Generating all scenario datasets...\n")

	cmd := exec.Command("go", "run", "scenario_generator.go",
		"-output-dir="+scenarioDir,
		"-scenario=all",
		"-seed="+fmt.Sprintf("%d", seed),
	)

	if err := cmd.Run(); err != nil {
		log.Printf("Failed to generate scenarios: %v", err)
	}
}

func generatePerformanceSets(outputDir string, seed int64) {
	perfDir := filepath.Join(outputDir, "performance")

	sets := []struct {
		name  string
		count int
		desc  string
	}{
		{"stress_cbs_10k.csv", 10000, "10K CBS rows for stress testing"},
		{"stress_switch_50k.csv", 50000, "50K Switch rows for load testing"},
	}

	for _, set := range sets {
		fmt.Printf("  Generating %s (%s)...\n", set.name, set.desc)

		outputPath := filepath.Join(perfDir, set.name)
		cmd := exec.Command("go", "run", "source_generator.go",
			"-output="+outputPath,
			"-source=CBS",
			"-count="+fmt.Sprintf("%d", set.count),
			"-pattern=random",
			"-seed="+fmt.Sprintf("%d", seed),
		)

		if err := cmd.Run(); err != nil {
			log.Printf("Failed to generate %s: %v", set.name, err)
		}
	}
}

func generateDocumentation(outputDir string) {
	docContent := `# Generated Test Data

This directory contains automatically generated test data for the reconciliation engine.

## Directory Structure

- **sources/**: CBS/Switch/NPCI/NTSL datasets with different patterns
- **scenarios/**: Specific reconciliation scenarios (duplicate RRN, carry-over, cut-off, etc.)
- **performance/**: Large datasets for performance and stress testing

## File Descriptions

### Sources
- cbs_1C.csv / switch_1C.csv / npci_1C.csv / ntsl_1C.csv: one cycle's baseline rows per source
- cbs_large_amounts.csv: high-value CBS rows
- switch_micro.csv: very small amount Switch rows
- npci_cutoff.csv: NPCI rows clustered around the 22:30 cycle cut-off

### Scenarios
- duplicate_rrn_*: duplicate RRN handling
- carry_over_*: unmatched rows that should roll into the next cycle's hanging state
- cut_off_*: rows that fall on either side of the cycle cut-off
- settlement_lump_*: rows that should trip the settlement lump threshold
- force_match_*: rows paired with an adjustment file carrying a FORCE_MATCH action
- multi_cycle_*: fixtures spanning more than one cycle id

### Performance
- stress_cbs_10k.csv: 10,000 CBS rows
- stress_switch_50k.csv: 50,000 Switch rows

## Regeneration

To regenerate all test data:
` + "```bash\ngo run generate.go -generator=all\n```" + `

To generate one dataset:
` + "```bash\ngo run generate.go -generator=sources -source=CBS -count=5000\ngo run generate.go -generator=scenarios -scenario=duplicate_rrn\n```" + `

Generated on: ` + time.Now().Format("2006-01-02 15:04:05") + `
`

	docPath := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(docPath, []byte(docContent), 0644); err != nil {
		log.Printf("Failed to write documentation: %v", err)
	} else {
		fmt.Printf("  Generated README.md\n")
	}
}
