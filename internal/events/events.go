// Package events publishes marketplace facts to external consumers. Delivery
// is best effort: publishing happens after the state change has committed and
// a failure never rolls it back.
package events

import (
	"context"
	"time"
)

// TypePurchaseRecorded is emitted after a purchase commits.
const TypePurchaseRecorded = "purchase.recorded"

// Event is the envelope written to the broker.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// PurchaseRecorded mirrors the purchase log entry.
type PurchaseRecorded struct {
	PromptID  uint64    `json:"prompt_id"`
	Buyer     string    `json:"buyer"`
	Seller    string    `json:"seller"`
	Price     uint64    `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }
