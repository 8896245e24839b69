package models

// Event is the tagged union delivered on the subscription manager's stream.
// Delivery is at-most-once per occurrence and ordered per subscription only.
type Event interface {
	// EventType returns the wire tag for the event ("new_block",
	// "address_transaction", "pending_transaction", "subscription_error").
	EventType() string
}

// NewBlockEvent announces one observed head change.
type NewBlockEvent struct {
	Number uint64 `json:"number"`
	Hash   string `json:"hash"`
}

func (NewBlockEvent) EventType() string { return "new_block" }

// AddressTransactionEvent announces one transaction touching a watched
// address, emitted individually per match.
type AddressTransactionEvent struct {
	Address     string      `json:"address"`
	Transaction Transaction `json:"transaction"`
	BlockNumber uint64      `json:"block_number"`
}

func (AddressTransactionEvent) EventType() string { return "address_transaction" }

// PendingTransactionEvent announces a transaction seen in the mempool.
// Reserved: no subscription kind emits it yet.
type PendingTransactionEvent struct {
	Transaction Transaction `json:"transaction"`
}

func (PendingTransactionEvent) EventType() string { return "pending_transaction" }

// SubscriptionErrorEvent is the terminal event of a failed subscription task.
// After it, the subscription is gone and must be explicitly restarted.
type SubscriptionErrorEvent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func (SubscriptionErrorEvent) EventType() string { return "subscription_error" }
