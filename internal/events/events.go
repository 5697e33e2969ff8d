// Package events carries domain events emitted after a unit of work
// commits. Publishing is best-effort and never affects the committed unit.
package events

import "time"

type Publisher interface {
	Publish(topic string, event any) error
}

const TopicTransactionCompleted = "transaction_completed"

type TransactionCompleted struct {
	EntryID         int64     `json:"entry_id"`
	Reference       string    `json:"reference"`
	Kind            string    `json:"kind"`
	SourceAccountID *uint64   `json:"source_account_id,omitempty"`
	TargetAccountID *uint64   `json:"target_account_id,omitempty"`
	Amount          string    `json:"amount"`
	OccurredAt      time.Time `json:"occurred_at"`
}
