package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
)

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type (
	TransactionKind string
	GoalStatus      string
	Role            string

	// Transaction is a single income or expense record owned by one user.
	Transaction struct {
		ID            string          `json:"id"`
		OwnerID       string          `json:"ownerId"`
		Kind          TransactionKind `json:"type"`
		Amount        float64         `json:"amount"`
		Category      string          `json:"category"`
		Description   string          `json:"description"`
		Notes         string          `json:"notes,omitempty"`
		Date          time.Time       `json:"date"`
		PaymentMethod string          `json:"paymentMethod"`
		Tags          []string        `json:"tags"`
		Imported      bool            `json:"imported"`
		CreatedAt     time.Time       `json:"createdAt"`
		UpdatedAt     time.Time       `json:"updatedAt"`
	}

	// Budget is a per-category monthly spending limit with a denormalized
	// running total of expenses in its (category, month, year) window.
	Budget struct {
		ID           string    `json:"id"`
		OwnerID      string    `json:"ownerId"`
		Category     string    `json:"category"`
		MonthlyLimit float64   `json:"monthlyLimit"`
		CurrentSpent float64   `json:"currentSpent"`
		Month        int       `json:"month"`
		Year         int       `json:"year"`
		Threshold80  bool      `json:"threshold80"`
		Threshold100 bool      `json:"threshold100"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}

	// Goal is a savings target with a deadline.
	Goal struct {
		ID            string     `json:"id"`
		OwnerID       string     `json:"ownerId"`
		Title         string     `json:"title"`
		Description   string     `json:"description,omitempty"`
		TargetAmount  float64    `json:"targetAmount"`
		CurrentAmount float64    `json:"currentAmount"`
		TargetDate    time.Time  `json:"targetDate"`
		Status        GoalStatus `json:"status"`
		CreatedAt     time.Time  `json:"createdAt"`
		UpdatedAt     time.Time  `json:"updatedAt"`
	}

	// User mirrors an identity-provider account inside our own store.
	User struct {
		ID        string      `json:"id"`
		SubjectID string      `json:"-"`
		Email     string      `json:"email"`
		Name      string      `json:"name"`
		Role      Role        `json:"role"`
		Prefs     Preferences `json:"preferences"`
		CreatedAt time.Time   `json:"createdAt"`
		UpdatedAt time.Time   `json:"updatedAt"`
	}

	Preferences struct {
		Currency     string `json:"currency"`
		Theme        string `json:"theme"`
		EmailAlerts  bool   `json:"emailAlerts"`
		PushAlerts   bool   `json:"pushAlerts"`
		BudgetAlerts bool   `json:"budgetAlerts"`
	}
)

var (
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidAmount   = errors.New("amount must be zero or positive")
	ErrInvalidCategory = errors.New("unknown category")
	ErrInvalidMonth    = errors.New("month must be between 1 and 12")
	ErrInvalidYear     = errors.New("invalid year")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrEmptyTitle      = errors.New("title cannot be empty")
)

// Categories is the closed set of transaction and budget categories.
var Categories = []string{
	"Food", "Rent", "Travel", "Bills", "Shopping", "Entertainment",
	"Healthcare", "Education", "Salary", "Freelance", "Investment",
	"Other", "Food Delivery", "Transport", "Utilities", "Subscriptions",
}

// PaymentMethods is the closed set of accepted payment methods.
var PaymentMethods = []string{"Cash", "Card", "UPI", "Bank Transfer", "Wallet", "Other"}

// DefaultPaymentMethod is applied when a transaction omits the field.
const DefaultPaymentMethod = "UPI"

// Currencies accepted in user preferences.
var Currencies = []string{"INR", "USD", "EUR", "AED"}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func ValidPaymentMethod(m string) bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

func (k TransactionKind) Valid() bool {
	return k == Income || k == Expense
}

func (s GoalStatus) Valid() bool {
	return s == GoalActive || s == GoalPaused || s == GoalCompleted
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount < 0 || math.IsNaN(t.Amount) || math.IsInf(t.Amount, 0) {
		return ErrInvalidAmount
	}
	if !ValidCategory(t.Category) {
		return ErrInvalidCategory
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.PaymentMethod != "" && !ValidPaymentMethod(t.PaymentMethod) {
		return errors.New("unknown payment method")
	}
	return nil
}

func (b Budget) Validate() error {
	if !ValidCategory(b.Category) {
		return ErrInvalidCategory
	}
	if b.MonthlyLimit < 0 {
		return ErrInvalidAmount
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 1970 || b.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

// Percent reports how much of the monthly limit has been spent, as a
// percentage. A zero limit reports 0 rather than dividing by zero.
func (b Budget) Percent() float64 {
	if b.MonthlyLimit <= 0 {
		return 0
	}
	return b.CurrentSpent / b.MonthlyLimit * 100
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if g.TargetAmount < 0 || g.CurrentAmount < 0 {
		return ErrInvalidAmount
	}
	if g.TargetDate.IsZero() {
		return ErrZeroDate
	}
	if g.Status != "" && !g.Status.Valid() {
		return errors.New("invalid goal status")
	}
	return nil
}

// SuggestedWeekly is the contribution per remaining week needed to reach the
// target by the target date, floored at zero. Past-due or fully funded goals
// suggest nothing.
func (g Goal) SuggestedWeekly(now time.Time) float64 {
	remaining := g.TargetAmount - g.CurrentAmount
	if remaining <= 0 {
		return 0
	}
	days := g.TargetDate.Sub(now).Hours() / 24
	if days <= 0 {
		return 0
	}
	weeks := math.Ceil(days / 7)
	return remaining / weeks
}

// Reached reports whether the goal's current amount covers its target.
func (g Goal) Reached() bool {
	return g.TargetAmount > 0 && g.CurrentAmount >= g.TargetAmount
}
