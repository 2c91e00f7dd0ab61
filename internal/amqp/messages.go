package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"expensify/internal/core"
)

type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionDeleted EventType = "transaction.deleted"
)

// TransactionEvent announces a committed ledger change. Deletions carry only
// the transaction ID.
type TransactionEvent struct {
	Type          EventType           `json:"type"`
	TransactionID string              `json:"transaction_id"`
	RuleID        string              `json:"rule_id,omitempty"`
	Amount        decimal.NullDecimal `json:"amount"`
	CategoryID    string              `json:"category_id,omitempty"`
	Date          string              `json:"date,omitempty"`
	Note          string              `json:"note,omitempty"`
	IsIncome      bool                `json:"is_income"`
	Timestamp     time.Time           `json:"timestamp"`
}

// NewTransactionCreatedEvent describes tx. ruleID is empty for manual entries.
func NewTransactionCreatedEvent(tx core.Transaction, ruleID string) *TransactionEvent {
	return &TransactionEvent{
		Type:          EventTransactionCreated,
		TransactionID: tx.ID,
		RuleID:        ruleID,
		Amount:        decimal.NewNullDecimal(tx.Amount),
		CategoryID:    tx.CategoryID,
		Date:          tx.Date.ISO(),
		Note:          tx.Note,
		IsIncome:      tx.IsIncome,
		Timestamp:     time.Now(),
	}
}

func NewTransactionDeletedEvent(id string) *TransactionEvent {
	return &TransactionEvent{
		Type:          EventTransactionDeleted,
		TransactionID: id,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes an event published by Client.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var evt TransactionEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
