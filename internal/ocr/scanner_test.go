package ocr

import (
	"strings"
	"testing"
	"time"
)

func TestScanStatementLines(t *testing.T) {
	statement := strings.Join([]string{
		"SWIGGY ORDER 12/08/2026 ₹1,249.50",
		"UBER TRIP 13/08/2026 Rs. 340",
		"Some header line with no numbers",
		"ELECTRICITY BILL 1-8-26 2,430.00",
		"",
	}, "\n")

	result, err := Scan(strings.NewReader(statement))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}

	if len(result.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3: %+v", len(result.Candidates), result.Candidates)
	}

	first := result.Candidates[0]
	if first.Amount != 1249.50 {
		t.Errorf("first amount = %v, want 1249.50", first.Amount)
	}
	if want := time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC); !first.Date.Equal(want) {
		t.Errorf("first date = %v, want %v", first.Date, want)
	}
	if first.Category != "Other" || first.Kind != "expense" {
		t.Errorf("defaults = %s/%s, want Other/expense", first.Category, first.Kind)
	}
	if !strings.Contains(first.Description, "SWIGGY") {
		t.Errorf("description = %q, want it to keep the merchant", first.Description)
	}

	second := result.Candidates[1]
	if second.Amount != 340 {
		t.Errorf("second amount = %v, want 340", second.Amount)
	}

	third := result.Candidates[2]
	if third.Amount != 2430 {
		t.Errorf("third amount = %v, want 2430", third.Amount)
	}
	if want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC); !third.Date.Equal(want) {
		t.Errorf("third date = %v, want %v", third.Date, want)
	}

	if !strings.Contains(result.Text, "Some header line") {
		t.Error("raw text should include non-matching lines")
	}
}

func TestScanIgnoresDateOnlyLines(t *testing.T) {
	result, err := Scan(strings.NewReader("Statement period 01/08/2026\n"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Candidates) != 0 {
		t.Fatalf("candidates = %+v, want none", result.Candidates)
	}
}

func TestScanTwoDigitYear(t *testing.T) {
	result, err := Scan(strings.NewReader("COFFEE 5/1/26 180.00\n"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(result.Candidates))
	}
	if got := result.Candidates[0].Date.Year(); got != 2026 {
		t.Errorf("year = %d, want 2026", got)
	}
}

func TestScanRejectsInvalidDate(t *testing.T) {
	result, err := Scan(strings.NewReader("WEIRD 45/20/26 500.00\n"))
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("candidates = %d, want 1", len(result.Candidates))
	}
	if !result.Candidates[0].Date.IsZero() {
		t.Errorf("date = %v, want zero for unparseable", result.Candidates[0].Date)
	}
}
