package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names the write that produced a WalletEvent.
type EventType string

const (
	TransactionCreated EventType = "transaction.created"
	TransactionUpdated EventType = "transaction.updated"
	TransactionDeleted EventType = "transaction.deleted"
	RecurringCreated   EventType = "recurring_expense.created"
	RecurringDeleted   EventType = "recurring_expense.deleted"
	AlertCreated       EventType = "alert.created"
)

// WalletEvent tells the worker that a user's spending picture changed. It
// carries ids only; the worker reloads whatever it needs from the store.
type WalletEvent struct {
	Type      EventType `json:"type"`
	UserID    string    `json:"user_id"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewWalletEvent(typ EventType, userID, entityID string) *WalletEvent {
	return &WalletEvent{
		Type:      typ,
		UserID:    userID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *WalletEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// WalletEventFromJSON decodes and checks a message body.
func WalletEventFromJSON(data []byte) (*WalletEvent, error) {
	var msg WalletEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.UserID == "" || msg.Type == "" {
		return nil, fmt.Errorf("wallet event missing type or user_id")
	}
	return &msg, nil
}
