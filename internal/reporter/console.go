package reporter

import (
	"fmt"
	"io"
	"sort"

	"upi-recon-engine/internal/models"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// ConsoleOptions controls the console summary that `reconciler reconcile`
// prints (`--show-matched` sets IncludeMatched),
// generalising the donor reporter's ReportConfig console knobs
// (IncludeMatchedTransactions, SortByAmount, TableMaxWidth) from
// bank-statement terms to reconciliation-record terms.
type ConsoleOptions struct {
	IncludeMatched bool
	SortByAmount   bool
	MaxRows        int
}

// DefaultConsoleOptions mirrors the donor's DefaultReportConfig console
// defaults: matched rows suppressed, unmatched/exception rows shown, no
// artificial row cap beyond a sane default.
func DefaultConsoleOptions() *ConsoleOptions {
	return &ConsoleOptions{
		IncludeMatched: false,
		SortByAmount:   false,
		MaxRows:        100,
	}
}

// WriteConsoleSummary renders a per-status breakdown followed by a
// row-per-record table, honoring opts.
func WriteConsoleSummary(records []*models.Record, writer io.Writer, opts *ConsoleOptions) error {
	if opts == nil {
		opts = DefaultConsoleOptions()
	}

	fmt.Fprintf(writer, "RECONCILIATION SUMMARY\n\n")
	writeStatusBreakdown(records, writer)
	fmt.Fprintf(writer, "\n")

	rows := selectConsoleRows(records, opts)
	if opts.SortByAmount {
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].amount.GreaterThan(rows[j].amount)
		})
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = rows[:opts.MaxRows]
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"RRN", "Amount", "Status", "Exception", "Direction"})
	for _, row := range rows {
		table.Append([]string{row.rrn, row.amount.StringFixed(2), row.status, row.exception, row.direction})
	}
	table.Render()
	return nil
}

func writeStatusBreakdown(records []*models.Record, writer io.Writer) {
	counts := map[models.Status]int{}
	for _, r := range records {
		counts[r.Status]++
	}
	statuses := []models.Status{
		models.StatusMatched, models.StatusForceMatched, models.StatusPartialMatch,
		models.StatusMismatch, models.StatusPartialMismatch, models.StatusHanging,
		models.StatusOrphan, models.StatusDuplicate, models.StatusException,
		models.StatusUnmatched, models.StatusUnknown,
	}
	for _, s := range statuses {
		if n := counts[s]; n > 0 {
			fmt.Fprintf(writer, "%-16s %d\n", s, n)
		}
	}
}

type consoleRow struct {
	rrn       string
	amount    decimal.Decimal
	status    string
	exception string
	direction string
}

func selectConsoleRows(records []*models.Record, opts *ConsoleOptions) []consoleRow {
	var rows []consoleRow
	for _, r := range records {
		if !opts.IncludeMatched && (r.Status == models.StatusMatched || r.Status == models.StatusForceMatched) {
			continue
		}
		rep := r.AnySource()
		if rep == nil {
			continue
		}
		rows = append(rows, consoleRow{
			rrn:       rep.Key(),
			amount:    rep.Amount,
			status:    string(r.Status),
			exception: string(r.ExceptionType),
			direction: string(r.Direction),
		})
	}
	return rows
}
