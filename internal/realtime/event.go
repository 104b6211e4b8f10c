package realtime

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event names pushed over the websocket.
const (
	EventTransactionAdded    = "transaction-added"
	EventTransactionUpdated  = "transaction-updated"
	EventTransactionDeleted  = "transaction-deleted"
	EventTransactionsImport  = "transactions-imported"
	EventBudgetUpdated       = "budget-updated"
	EventBudgetDeleted       = "budget-deleted"
	EventBudgetAlert         = "budget-alert"
	EventGoalCreated         = "goal-created"
	EventGoalUpdated         = "goal-updated"
	EventGoalDeleted         = "goal-deleted"
	EventGoalCompleted       = "goal-completed"
	EventInvestmentAdded     = "investment-added"
	EventInvestmentUpdated   = "investment-updated"
	EventInvestmentDeleted   = "investment-deleted"
	EventDataReset           = "data-reset"
	EventFraudAlert          = "fraud-alert"
)

// Event is one message pushed to connected clients.
type Event struct {
	Name      string    `json:"event"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(name string, payload any) Event {
	return Event{Name: name, Payload: payload, Timestamp: time.Now().UTC()}
}

func (e Event) marshal() ([]byte, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event %s: %w", e.Name, err)
	}
	return raw, nil
}

// UserRoom is the room name for one user's private events.
func UserRoom(userID string) string {
	return "user-" + userID
}

// AdminRoom receives system-wide events such as fraud alerts.
const AdminRoom = "admin-room"
