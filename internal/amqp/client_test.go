package amqp

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped at 30s
		{10, 30 * time.Second}, // capped at 30s
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			result := exponentialBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "nil error", err: nil, expected: false},
		{name: "connection refused", err: errors.New("connection refused"), expected: true},
		{name: "connection closed", err: errors.New("connection closed"), expected: true},
		{name: "unexpected EOF", err: errors.New("unexpected EOF"), expected: true},
		{name: "broken pipe", err: errors.New("broken pipe"), expected: true},
		{name: "closed network connection", err: errors.New("use of closed network connection"), expected: true},
		{name: "handler error", err: errors.New("append to sheet: quota exceeded"), expected: false},
		{name: "validation error", err: errors.New("invalid input"), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isConnectionError(tt.err)
			if result != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

func TestNewTransactionSyncMessage(t *testing.T) {
	msg := NewTransactionSyncMessage("7c9e6679-7425-40de-944b-e07fc1f90ae7", 2)

	if msg.ID != "7c9e6679-7425-40de-944b-e07fc1f90ae7" {
		t.Errorf("ID = %v, want the given uuid", msg.ID)
	}
	if msg.Version != 2 {
		t.Errorf("Version = %v, want 2", msg.Version)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestTransactionSyncMessage_JSON(t *testing.T) {
	timestamp := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &TransactionSyncMessage{
		ID:        "abc-123",
		Version:   2,
		Timestamp: timestamp,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := TransactionSyncMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("TransactionSyncMessageFromJSON() error = %v", err)
	}

	if parsed.ID != msg.ID || parsed.Version != msg.Version {
		t.Errorf("parsed = %+v, want %+v", parsed, msg)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("parsed Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestTransactionSyncMessage_InvalidJSON(t *testing.T) {
	if _, err := TransactionSyncMessageFromJSON([]byte(`{"version": "nope"}`)); err == nil {
		t.Error("TransactionSyncMessageFromJSON() should fail with invalid JSON")
	}
}
