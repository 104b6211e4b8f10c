package core

import (
	"fmt"
	"time"
)

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

const (
	AlertPending       AlertStatus = "pending"
	AlertReviewed      AlertStatus = "reviewed"
	AlertResolved      AlertStatus = "resolved"
	AlertFalsePositive AlertStatus = "false_positive"
)

// Single static-threshold rule: anything above FraudAmountThreshold raises an
// alert, anything above FraudHighThreshold raises it at high severity.
const (
	FraudAmountThreshold = 20000.0
	FraudHighThreshold   = 50000.0
)

type (
	Severity    string
	AlertStatus string

	// FraudAlert flags a suspiciously large transaction for admin review.
	FraudAlert struct {
		ID            string      `json:"id"`
		OwnerID       string      `json:"userId"`
		TransactionID string      `json:"transactionId"`
		AlertType     string      `json:"alertType"`
		Severity      Severity    `json:"severity"`
		Description   string      `json:"description"`
		Amount        float64     `json:"amount"`
		Status        AlertStatus `json:"status"`
		ReviewedBy    string      `json:"reviewedBy,omitempty"`
		ReviewedAt    time.Time   `json:"reviewedAt"`
		CreatedAt     time.Time   `json:"createdAt"`
	}
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

func (s AlertStatus) Valid() bool {
	switch s {
	case AlertPending, AlertReviewed, AlertResolved, AlertFalsePositive:
		return true
	}
	return false
}

// ReviewableAs reports whether an admin may move a pending alert to the given
// status. Only pending -> resolved and pending -> false_positive are defined.
func (a FraudAlert) ReviewableAs(next AlertStatus) bool {
	if a.Status != AlertPending {
		return false
	}
	return next == AlertResolved || next == AlertFalsePositive
}

// EvaluateFraud applies the large-transaction rule to a created transaction.
// It returns a pending alert and true when the amount crosses the threshold.
func EvaluateFraud(t Transaction) (FraudAlert, bool) {
	if t.Amount <= FraudAmountThreshold {
		return FraudAlert{}, false
	}
	severity := SeverityMedium
	if t.Amount > FraudHighThreshold {
		severity = SeverityHigh
	}
	return FraudAlert{
		OwnerID:       t.OwnerID,
		TransactionID: t.ID,
		AlertType:     "large_transaction",
		Severity:      severity,
		Description:   fmt.Sprintf("Large %s of %.2f in %s", t.Kind, t.Amount, t.Category),
		Amount:        t.Amount,
		Status:        AlertPending,
	}, true
}
