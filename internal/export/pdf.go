package export

import (
	"fmt"
	"io"
	"time"

	"github.com/phpdave11/gofpdf"

	"finsync/internal/core"
)

// WritePDF renders a transaction statement with income/expense totals and a
// row per transaction.
func WritePDF(w io.Writer, user core.User, txs []core.Transaction) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("FinSync Transaction Statement", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "FinSync Transaction Statement")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Account: %s", user.Email))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Generated: %s", time.Now().UTC().Format("2006-01-02 15:04")))
	pdf.Ln(10)

	var income, expense float64
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			income += t.Amount
		case core.Expense:
			expense += t.Amount
		}
	}

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Total Income: %.2f    Total Expenses: %.2f    Net: %.2f",
		income, expense, income-expense))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(28, 7, "Date")
	pdf.Cell(22, 7, "Type")
	pdf.Cell(35, 7, "Category")
	pdf.Cell(70, 7, "Description")
	pdf.Cell(30, 7, "Amount")
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 10)
	for _, t := range txs {
		desc := truncate(t.Description, 40)
		pdf.Cell(28, 6, t.Date.Format("2006-01-02"))
		pdf.Cell(22, 6, string(t.Kind))
		pdf.Cell(35, 6, t.Category)
		pdf.Cell(70, 6, desc)
		pdf.Cell(30, 6, fmt.Sprintf("%.2f", t.Amount))
		pdf.Ln(6)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// truncate shortens s to at most max runes, never splitting a multibyte
// character.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
