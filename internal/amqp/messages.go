package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/core"
)

// Event types published after a transaction write.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionUpdated = "transaction.updated"
	EventTransactionDeleted = "transaction.deleted"
)

// TransactionEvent announces a change to one transaction. Consumers fetch
// the current row if they need more than these fields.
type TransactionEvent struct {
	Type          string    `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	UserID        int64     `json:"user_id"`
	Kind          core.Kind `json:"kind,omitempty"`
	AmountCents   int64     `json:"amount_cents,omitempty"`
	Category      string    `json:"category,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewTransactionEvent builds an event for tx. For deletions only the ids are
// known.
func NewTransactionEvent(eventType string, owner int64, tx core.Transaction) *TransactionEvent {
	evt := &TransactionEvent{
		Type:          eventType,
		TransactionID: tx.ID,
		UserID:        owner,
		Kind:          tx.Kind,
		AmountCents:   tx.Amount.Cents,
		Timestamp:     time.Now().UTC(),
	}
	if tx.Category != nil {
		evt.Category = *tx.Category
	}
	return evt
}

func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
