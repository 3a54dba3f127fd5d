package output

import "github.com/paybridge/wechat-bridge/internal/core"

// OutcomeMessaging is an output port (secondary port) for publishing
// resolved outcomes as events for downstream consumers.
// Secondary adapters (RabbitMQ implementations) will implement this.
type OutcomeMessaging interface {
	// PublishOutcome publishes one resolved-outcome event
	PublishOutcome(orderID string, outcome core.Outcome) error
	// Close closes the messaging connection
	Close() error
}
