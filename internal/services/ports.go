package services

import (
	"context"

	"finsync/internal/core"
	"finsync/internal/realtime"
)

// SyncPublisher enqueues spreadsheet mirror requests. The AMQP client
// implements it; services treat a nil publisher as "sync disabled".
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string, version int64) error
}

// EventPublisher pushes realtime events to connected clients.
type EventPublisher interface {
	PublishToUser(userID string, e realtime.Event)
	PublishToAdmins(e realtime.Event)
}

// FraudNotifier forwards fraud alerts to an external channel. Optional.
type FraudNotifier interface {
	NotifyFraudAlert(ctx context.Context, a core.FraudAlert)
}
