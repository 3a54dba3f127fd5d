package service

import (
	"fmt"
	"log"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

// FulfillmentProcessor consumes resolved-outcome events and runs the
// merchant-side follow-up for each order
type FulfillmentProcessor struct {
	orderRepo output.OrderRepository
}

// NewFulfillmentProcessor creates a new fulfillment processor
func NewFulfillmentProcessor(orderRepo output.OrderRepository) *FulfillmentProcessor {
	return &FulfillmentProcessor{orderRepo: orderRepo}
}

// ProcessOutcome handles one resolved-outcome event. A transient failure
// returns an error so the event is redelivered; an event with no local
// order record is dropped by the consumer's terminal-error handling.
func (p *FulfillmentProcessor) ProcessOutcome(orderID string, outcome core.Outcome) error {
	order, err := p.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}

	// The event is published after the status transition commits, but
	// guard against redelivery racing a slow commit
	if !order.IsTerminal() {
		return fmt.Errorf("order %s not yet resolved", orderID)
	}

	switch outcome {
	case core.OutcomeSuccess:
		log.Printf("Fulfilling order %s (%d minor units, %q)", order.ID, order.AmountMinorUnits, order.Description)
	case core.OutcomeFail:
		log.Printf("Order %s failed; nothing to fulfill", order.ID)
	default:
		return fmt.Errorf("unknown outcome %q for order %s", outcome, orderID)
	}
	return nil
}
