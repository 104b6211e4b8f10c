package ocr

import (
	"bufio"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finsync/internal/core"
)

// Candidate is one probable transaction extracted from statement text. The
// caller reviews candidates before importing them.
type Candidate struct {
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Kind        string    `json:"type"`
	Line        string    `json:"line"`
}

// ScanResult is the outcome of scanning one statement.
type ScanResult struct {
	Text       string      `json:"text"`
	Candidates []Candidate `json:"candidates"`
}

var (
	// Currency amounts: optional ₹/Rs prefix, comma grouping, optional decimals.
	amountPattern = regexp.MustCompile(`(?:₹|Rs\.?\s?|INR\s?)?([\d,]+\.\d{1,2}|[\d,]{2,})`)
	// Dates in d/m/y or d-m-y order, two or four digit year.
	datePattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})[/-](\d{2,4})`)
)

// Scan reads statement text line by line and extracts candidate
// transactions. A line qualifies when it contains a parseable amount; a
// date on the same line is attached, otherwise the zero time is kept and
// the caller substitutes today. All candidates default to expense/Other
// since statements rarely carry category information.
func Scan(r io.Reader) (ScanResult, error) {
	var result ScanResult
	var text strings.Builder

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		text.WriteString(line)
		text.WriteByte('\n')

		candidate, ok := scanLine(line)
		if ok {
			result.Candidates = append(result.Candidates, candidate)
		}
	}
	if err := sc.Err(); err != nil {
		return ScanResult{}, err
	}

	result.Text = text.String()
	return result, nil
}

func scanLine(line string) (Candidate, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Candidate{}, false
	}

	// Blank out any date first so its digits cannot be mistaken for an amount.
	withoutDate := datePattern.ReplaceAllString(trimmed, "")
	m := amountPattern.FindStringSubmatch(withoutDate)
	if m == nil {
		return Candidate{}, false
	}

	amount, err := parseAmount(m[1])
	if err != nil || amount <= 0 {
		return Candidate{}, false
	}

	c := Candidate{
		Amount:      amount,
		Description: describeLine(trimmed),
		Category:    "Other",
		Kind:        string(core.Expense),
		Line:        trimmed,
	}
	if d, ok := parseDate(trimmed); ok {
		c.Date = d
	}
	return c, true
}

// parseAmount strips comma grouping and parses exactly, then converts once
// to float64 for storage.
func parseAmount(raw string) (float64, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, err
	}
	f, _ := d.Float64()
	return f, nil
}

func parseDate(line string) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}
	day := atoi(m[1])
	month := atoi(m[2])
	year := atoi(m[3])
	if year < 100 {
		year += 2000
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// describeLine strips the matched amount and date from the line to leave a
// usable description, falling back to the whole line.
func describeLine(line string) string {
	desc := datePattern.ReplaceAllString(line, "")
	desc = amountPattern.ReplaceAllString(desc, "")
	desc = strings.Trim(desc, " -–:\t")
	desc = strings.Join(strings.Fields(desc), " ")
	if desc == "" {
		return line
	}
	return desc
}
