package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// SourceGenerator produces CBS/Switch/NPCI/NTSL fixture CSVs carrying the
// canonical header set internal/normalizer discovers (RRN, UPI_Tran_ID,
// Amount, Tran_Date, Tran_Time, Dr_Cr, RC, Tran_Type, Sub_Type, Payer_PSP,
// Payee_PSP, MCC, Channel), generalising the donor's single transaction
// schema into the five-source reconciliation domain.
type SourceGenerator struct {
	Count     int
	StartDate time.Time
	EndDate   time.Time
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Seed      int64
}

// RowTemplate is one generated source row.
type RowTemplate struct {
	RRN      string
	UPITranID string
	Amount   decimal.Decimal
	TranDate time.Time
	TranTime time.Time
	DrCr     string
	RC       string
	TranType string
	SubType  string
	PayerPSP string
	PayeePSP string
	MCC      string
	Channel  string
}

var pspPool = []string{"hdfc", "icici", "sbi", "axis", "kotak", "yesbank"}
var mccPool = []string{"5411", "5812", "6011", "4900", "5999"}
var channelPool = []string{"P2P", "P2M", "QR", "INTENT"}

func main() {
	var (
		output    = flag.String("output", "generated_cbs.csv", "Output CSV file path")
		source    = flag.String("source", "CBS", "Source type: CBS, SWITCH, NPCI, NTSL")
		count     = flag.Int("count", 1000, "Number of rows to generate")
		startDate = flag.String("start-date", "2026-07-01", "Start date (YYYY-MM-DD)")
		endDate   = flag.String("end-date", "2026-07-29", "End date (YYYY-MM-DD)")
		minAmount = flag.Float64("min-amount", 1.00, "Minimum transaction amount")
		maxAmount = flag.Float64("max-amount", 50000.00, "Maximum transaction amount")
		seed      = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
		pattern   = flag.String("pattern", "random", "Generation pattern: random, large-amounts, micro-transactions, cut-off-boundary")
		failRate  = flag.Float64("fail-rate", 0.05, "Fraction of rows with a FAIL response code")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("invalid start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatalf("invalid end date: %v", err)
	}

	gen := &SourceGenerator{
		Count:     *count,
		StartDate: start,
		EndDate:   end,
		MinAmount: decimal.NewFromFloat(*minAmount),
		MaxAmount: decimal.NewFromFloat(*maxAmount),
		Seed:      *seed,
	}

	var rows []RowTemplate
	switch *pattern {
	case "large-amounts":
		rows = gen.generate(*source, decimal.NewFromFloat(10000), decimal.NewFromFloat(1000000), *failRate)
	case "micro-transactions":
		rows = gen.generate(*source, decimal.NewFromFloat(0.01), decimal.NewFromFloat(10), *failRate)
	case "cut-off-boundary":
		rows = gen.generateCutOffBoundary(*source, *failRate)
	default:
		rows = gen.generate(*source, gen.MinAmount, gen.MaxAmount, *failRate)
	}

	if err := writeRowsCSV(*output, rows); err != nil {
		log.Fatalf("failed to write CSV: %v", err)
	}

	fmt.Printf("Generated %d %s rows in %s\n", len(rows), *source, *output)
	fmt.Printf("Date range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Seed used: %d\n", *seed)
}

func (g *SourceGenerator) generate(source string, minAmt, maxAmt decimal.Decimal, failRate float64) []RowTemplate {
	rnd := rand.New(rand.NewSource(g.Seed))
	rows := make([]RowTemplate, g.Count)
	duration := g.EndDate.Sub(g.StartDate)
	amountRange := maxAmt.Sub(minAmt)

	for i := 0; i < g.Count; i++ {
		randomDuration := time.Duration(rnd.Int63n(int64(duration) + 1))
		txTime := g.StartDate.Add(randomDuration)
		amount := decimal.NewFromFloat(rnd.Float64()).Mul(amountRange).Add(minAmt).Round(2)

		drCr := "CREDIT"
		if rnd.Float64() < 0.45 {
			drCr = "DEBIT"
		}

		rc := "00"
		if rnd.Float64() < failRate {
			rc = "U69" // NPCI-style generic decline code
		}

		rrn := fmt.Sprintf("%012d", 100000000000+int64(i)+int64(rnd.Intn(1000)))
		rows[i] = RowTemplate{
			RRN:       rrn,
			UPITranID: fmt.Sprintf("%s%010d", source, i+1),
			Amount:    amount,
			TranDate:  txTime,
			TranTime:  txTime,
			DrCr:      drCr,
			RC:        rc,
			TranType:  "PAY",
			SubType:   "DEFAULT",
			PayerPSP:  pspPool[rnd.Intn(len(pspPool))],
			PayeePSP:  pspPool[rnd.Intn(len(pspPool))],
			MCC:       mccPool[rnd.Intn(len(mccPool))],
			Channel:   channelPool[rnd.Intn(len(channelPool))],
		}
	}
	return rows
}

// generateCutOffBoundary clusters rows around 22:30, the default cycle
// cut-off, so a generated fixture exercises the cut-off exception directly.
func (g *SourceGenerator) generateCutOffBoundary(source string, failRate float64) []RowTemplate {
	rnd := rand.New(rand.NewSource(g.Seed))
	rows := make([]RowTemplate, g.Count)
	amountRange := g.MaxAmount.Sub(g.MinAmount)

	for i := 0; i < g.Count; i++ {
		day := g.StartDate.AddDate(0, 0, rnd.Intn(int(g.EndDate.Sub(g.StartDate).Hours()/24)+1))
		offsetMinutes := rnd.Intn(21) - 10 // 22:20 to 22:40
		txTime := time.Date(day.Year(), day.Month(), day.Day(), 22, 30, 0, 0, day.Location()).
			Add(time.Duration(offsetMinutes) * time.Minute)

		amount := decimal.NewFromFloat(rnd.Float64()).Mul(amountRange).Add(g.MinAmount).Round(2)
		drCr := "CREDIT"
		if rnd.Float64() < 0.45 {
			drCr = "DEBIT"
		}
		rc := "00"
		if rnd.Float64() < failRate {
			rc = "U69"
		}

		rows[i] = RowTemplate{
			RRN:       fmt.Sprintf("%012d", 200000000000+i),
			UPITranID: fmt.Sprintf("%sCO%08d", source, i+1),
			Amount:    amount,
			TranDate:  txTime,
			TranTime:  txTime,
			DrCr:      drCr,
			RC:        rc,
			TranType:  "PAY",
			SubType:   "DEFAULT",
			PayerPSP:  pspPool[rnd.Intn(len(pspPool))],
			PayeePSP:  pspPool[rnd.Intn(len(pspPool))],
			MCC:       mccPool[rnd.Intn(len(mccPool))],
			Channel:   channelPool[rnd.Intn(len(channelPool))],
		}
	}
	return rows
}

func writeRowsCSV(filename string, rows []RowTemplate) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"RRN", "UPI_Tran_ID", "Amount", "Tran_Date", "Tran_Time", "Dr_Cr", "RC",
		"Tran_Type", "Sub_Type", "Payer_PSP", "Payee_PSP", "MCC", "Channel"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.RRN,
			r.UPITranID,
			r.Amount.String(),
			r.TranDate.Format("2006-01-02"),
			r.TranTime.Format("15:04:05"),
			r.DrCr,
			r.RC,
			r.TranType,
			r.SubType,
			r.PayerPSP,
			r.PayeePSP,
			r.MCC,
			r.Channel,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	return nil
}
