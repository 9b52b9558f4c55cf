package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// ScenarioGenerator creates fixture sets for a specific reconciliation
// edge case: a handful of hand-placed RRNs per source file that are
// guaranteed to exercise one exception path, rather than a bulk random
// draw like source_generator.go.
type ScenarioGenerator struct {
	Seed      int64
	OutputDir string
}

func main() {
	var (
		outputDir = flag.String("output-dir", "generated_scenarios", "Output directory for scenario files")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		scenario  = flag.String("scenario", "all", "Scenario: all, duplicate_rrn, carry_over, cut_off, settlement_lump, force_match, multi_cycle")
	)
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	gen := &ScenarioGenerator{Seed: *seed, OutputDir: *outputDir}

	switch *scenario {
	case "duplicate_rrn":
		gen.GenerateDuplicateRRNScenario()
	case "carry_over":
		gen.GenerateCarryOverScenario()
	case "cut_off":
		gen.GenerateCutOffScenario()
	case "settlement_lump":
		gen.GenerateSettlementLumpScenario()
	case "force_match":
		gen.GenerateForceMatchScenario()
	case "multi_cycle":
		gen.GenerateMultiCycleScenario()
	case "all":
		gen.GenerateAllScenarios()
	default:
		log.Fatalf("unknown scenario: %s", *scenario)
	}

	fmt.Printf("Generated scenarios in %s\n", *outputDir)
	fmt.Printf("Seed used: %d\n", *seed)
}

func (sg *ScenarioGenerator) GenerateAllScenarios() {
	fmt.Println("Generating all scenarios...")
	sg.GenerateDuplicateRRNScenario()
	sg.GenerateCarryOverScenario()
	sg.GenerateCutOffScenario()
	sg.GenerateSettlementLumpScenario()
	sg.GenerateForceMatchScenario()
	sg.GenerateMultiCycleScenario()
}

var sourceHeader = []string{"RRN", "UPI_Tran_ID", "Amount", "Tran_Date", "Tran_Time", "Dr_Cr", "RC",
	"Tran_Type", "Sub_Type", "Payer_PSP", "Payee_PSP", "MCC", "Channel"}

func sourceRow(rrn, upiID string, amount decimal.Decimal, day time.Time, tod string, drCr, rc string) []string {
	return []string{
		rrn, upiID, amount.StringFixed(2), day.Format("2006-01-02"), tod, drCr, rc,
		"PAY", "DEFAULT", "hdfc", "icici", "5411", "P2P",
	}
}

// GenerateDuplicateRRNScenario: the same RRN appears twice on the CBS side
// for one cycle with the same sign, which Step 4 marks UNMATCHED
// DOUBLE_DEBIT_CREDIT rather than matching both copies. With no NPCI file
// the Switch rows are HANGING (SWITCH_ONLY), so both records end HANGING.
func (sg *ScenarioGenerator) GenerateDuplicateRRNScenario() {
	fmt.Println("Generating duplicate RRN scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	cbs := [][]string{sourceHeader,
		sourceRow("300000000001", "CBSDUP001", decimal.NewFromFloat(100.00), day, "10:00:00", "CREDIT", "00"),
		sourceRow("300000000001", "CBSDUP001B", decimal.NewFromFloat(100.00), day, "10:00:05", "CREDIT", "00"),
		sourceRow("300000000002", "CBSDUP002", decimal.NewFromFloat(250.50), day, "10:05:00", "DEBIT", "00"),
	}
	sw := [][]string{sourceHeader,
		sourceRow("300000000001", "SWDUP001", decimal.NewFromFloat(100.00), day, "10:00:00", "CREDIT", "00"),
		sourceRow("300000000002", "SWDUP002", decimal.NewFromFloat(250.50), day, "10:05:00", "DEBIT", "00"),
	}

	sg.writeCSV("duplicate_rrn_cbs.csv", cbs)
	sg.writeCSV("duplicate_rrn_switch.csv", sw)
}

// GenerateCarryOverScenario: NPCI rows after the default 22:30 cut-off with
// no CBS/Switch counterpart in this cycle; Step 1 marks them HANGING
// (CUT_OFF), so they are carried into the next cycle's hanging state.
func (sg *ScenarioGenerator) GenerateCarryOverScenario() {
	fmt.Println("Generating carry-over scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	npci := [][]string{sourceHeader,
		sourceRow("400000000001", "NPCICO001", decimal.NewFromFloat(500.00), day, "22:45:00", "CREDIT", "00"),
		sourceRow("400000000002", "NPCICO002", decimal.NewFromFloat(750.00), day, "23:00:00", "DEBIT", "00"),
	}
	ntsl := [][]string{sourceHeader,
		sourceRow("400000000001", "NTSLCO001", decimal.NewFromFloat(500.00), day, "21:00:00", "CREDIT", "00"),
	}

	sg.writeCSV("carry_over_npci.csv", npci)
	sg.writeCSV("carry_over_ntsl.csv", ntsl)
}

// GenerateCutOffScenario: CBS and Switch rows straddling the default 22:30
// cycle cut-off, one just before it and two at or after it. Step 1's time
// check reads NPCI rows only and this scenario has no NPCI file, so these
// Switch rows are flagged HANGING (SWITCH_ONLY), not CUT_OFF.
func (sg *ScenarioGenerator) GenerateCutOffScenario() {
	fmt.Println("Generating cut-off boundary scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	cbs := [][]string{sourceHeader,
		sourceRow("500000000001", "CBSCO001", decimal.NewFromFloat(100.00), day, "22:29:00", "CREDIT", "00"),
		sourceRow("500000000002", "CBSCO002", decimal.NewFromFloat(200.00), day, "22:30:00", "CREDIT", "00"),
		sourceRow("500000000003", "CBSCO003", decimal.NewFromFloat(300.00), day, "22:31:00", "CREDIT", "00"),
	}
	sw := [][]string{sourceHeader,
		sourceRow("500000000001", "SWCO001", decimal.NewFromFloat(100.00), day, "22:29:00", "CREDIT", "00"),
		sourceRow("500000000002", "SWCO002", decimal.NewFromFloat(200.00), day, "22:30:00", "CREDIT", "00"),
		sourceRow("500000000003", "SWCO003", decimal.NewFromFloat(300.00), day, "22:31:00", "CREDIT", "00"),
	}

	sg.writeCSV("cut_off_cbs.csv", cbs)
	sg.writeCSV("cut_off_switch.csv", sw)
}

// GenerateSettlementLumpScenario: 1200 CBS rows with no RRN and an amount
// above the default settlement lump threshold (1000), alternating credit
// and debit, so Step 3 pairs each credit with a debit of equal amount and
// marks both MATCHED SETTLEMENT_ENTRY.
func (sg *ScenarioGenerator) GenerateSettlementLumpScenario() {
	fmt.Println("Generating settlement lump threshold scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	cbs := [][]string{sourceHeader}
	for i := 0; i < 1200; i++ {
		drCr := "CREDIT"
		if i%2 == 1 {
			drCr = "DEBIT"
		}
		cbs = append(cbs, sourceRow("", fmt.Sprintf("CBSLMP%06d", i), decimal.NewFromFloat(1500.00), day, "12:00:00", drCr, "00"))
	}
	sg.writeCSV("settlement_lump_cbs.csv", cbs)
	// Deliberately no Switch/NPCI/NTSL rows: Step 3 reads CBS rows only.
}

// GenerateForceMatchScenario: a CBS/Switch pair with a genuine amount
// mismatch, paired with an adjustment file carrying a FORCE_MATCH action
// for the same RRN so Step 0 pre-processing resolves it before matching.
func (sg *ScenarioGenerator) GenerateForceMatchScenario() {
	fmt.Println("Generating force-match scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	cbs := [][]string{sourceHeader,
		sourceRow("700000000001", "CBSFM001", decimal.NewFromFloat(999.00), day, "15:00:00", "CREDIT", "00"),
	}
	sw := [][]string{sourceHeader,
		sourceRow("700000000001", "SWFM001", decimal.NewFromFloat(1000.00), day, "15:00:00", "CREDIT", "00"),
	}
	adjustments := [][]string{
		{"RRN", "Type", "Amount", "Status"},
		{"700000000001", "FORCE_MATCH", "1000.00", "APPROVED"},
	}

	sg.writeCSV("force_match_cbs.csv", cbs)
	sg.writeCSV("force_match_switch.csv", sw)
	sg.writeCSV("force_match_adjustments.csv", adjustments)
}

// GenerateMultiCycleScenario: two cycles' worth of CBS/Switch fixtures so
// a test can exercise carry-over propagation across a ProcessCycle sequence.
func (sg *ScenarioGenerator) GenerateMultiCycleScenario() {
	fmt.Println("Generating multi-cycle scenario...")
	day := time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)

	cbs1C := [][]string{sourceHeader,
		sourceRow("800000000001", "CBSMC001", decimal.NewFromFloat(100.00), day, "09:00:00", "CREDIT", "00"),
	}
	sw1C := [][]string{sourceHeader} // no Switch row for 800000000001 until 2C
	cbs2C := [][]string{sourceHeader,
		sourceRow("800000000002", "CBSMC002", decimal.NewFromFloat(200.00), day, "11:00:00", "CREDIT", "00"),
	}
	sw2C := [][]string{sourceHeader,
		sourceRow("800000000001", "SWMC001", decimal.NewFromFloat(100.00), day, "09:00:00", "CREDIT", "00"),
		sourceRow("800000000002", "SWMC002", decimal.NewFromFloat(200.00), day, "11:00:00", "CREDIT", "00"),
	}

	sg.writeCSV("multi_cycle_1C_cbs.csv", cbs1C)
	sg.writeCSV("multi_cycle_1C_switch.csv", sw1C)
	sg.writeCSV("multi_cycle_2C_cbs.csv", cbs2C)
	sg.writeCSV("multi_cycle_2C_switch.csv", sw2C)
}

func (sg *ScenarioGenerator) writeCSV(filename string, data [][]string) {
	path := fmt.Sprintf("%s/%s", sg.OutputDir, filename)

	file, err := os.Create(path)
	if err != nil {
		log.Printf("failed to create %s: %v", path, err)
		return
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	for _, record := range data {
		if err := writer.Write(record); err != nil {
			log.Printf("failed to write record to %s: %v", path, err)
			return
		}
	}

	fmt.Printf("  Created %s with %d records\n", filename, len(data)-1)
}
