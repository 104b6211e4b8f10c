package core

import (
	"errors"
	"strings"
	"time"
)

// InvestmentTypes is the closed set of portfolio entry types.
var InvestmentTypes = []string{"Stock", "Mutual Fund", "SIP", "Crypto", "FD", "Other"}

// Investment is one portfolio holding. ProfitLoss and ProfitLossPercentage
// are derived and recomputed on every write.
type Investment struct {
	ID                   string    `json:"id"`
	OwnerID              string    `json:"ownerId"`
	Type                 string    `json:"type"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol,omitempty"`
	InvestedAmount       float64   `json:"investedAmount"`
	CurrentValue         float64   `json:"currentValue"`
	PurchaseDate         time.Time `json:"purchaseDate"`
	Quantity             float64   `json:"quantity,omitempty"`
	PurchasePrice        float64   `json:"purchasePrice,omitempty"`
	CurrentPrice         float64   `json:"currentPrice,omitempty"`
	ProfitLoss           float64   `json:"profitLoss"`
	ProfitLossPercentage float64   `json:"profitLossPercentage"`
	Notes                string    `json:"notes,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func ValidInvestmentType(t string) bool {
	for _, known := range InvestmentTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (inv Investment) Validate() error {
	if !ValidInvestmentType(inv.Type) {
		return errors.New("unknown investment type")
	}
	if strings.TrimSpace(inv.Name) == "" {
		return errors.New("name cannot be empty")
	}
	if inv.InvestedAmount < 0 || inv.CurrentValue < 0 {
		return ErrInvalidAmount
	}
	if inv.PurchaseDate.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// Recalculate refreshes the derived profit fields. A zero invested amount
// yields a 0 percentage, never NaN or Inf.
func (inv *Investment) Recalculate() {
	inv.ProfitLoss = inv.CurrentValue - inv.InvestedAmount
	if inv.InvestedAmount > 0 {
		inv.ProfitLossPercentage = inv.ProfitLoss / inv.InvestedAmount * 100
	} else {
		inv.ProfitLossPercentage = 0
	}
}

// PortfolioSummary aggregates a set of holdings.
type PortfolioSummary struct {
	TotalInvested        float64 `json:"totalInvested"`
	TotalCurrent         float64 `json:"totalCurrent"`
	TotalProfitLoss      float64 `json:"totalProfitLoss"`
	ProfitLossPercentage float64 `json:"totalProfitLossPercentage"`
}

// SummarizePortfolio totals invested and current values across holdings.
func SummarizePortfolio(investments []Investment) PortfolioSummary {
	var s PortfolioSummary
	for _, inv := range investments {
		s.TotalInvested += inv.InvestedAmount
		s.TotalCurrent += inv.CurrentValue
	}
	s.TotalProfitLoss = s.TotalCurrent - s.TotalInvested
	if s.TotalInvested > 0 {
		s.ProfitLossPercentage = s.TotalProfitLoss / s.TotalInvested * 100
	}
	return s
}
