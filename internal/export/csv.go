package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"finsync/internal/core"
)

var columns = []string{"Date", "Type", "Category", "Description", "Amount", "Payment Method", "Tags", "Notes"}

// WriteCSV streams transactions as CSV, most recent first as given.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range txs {
		record := []string{
			t.Date.Format("2006-01-02"),
			string(t.Kind),
			t.Category,
			t.Description,
			fmt.Sprintf("%.2f", t.Amount),
			t.PaymentMethod,
			strings.Join(t.Tags, ";"),
			t.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
