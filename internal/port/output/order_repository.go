package output

import (
	"errors"

	"github.com/paybridge/wechat-bridge/internal/core"
)

// ErrOrderNotFound is returned when no order exists for an id
var ErrOrderNotFound = errors.New("order not found")

// ResolveResult reports the effect of an idempotent resolve attempt
type ResolveResult struct {
	// Applied is true when this call performed the PENDING -> terminal
	// transition. False means the order was already terminal.
	Applied bool
	// Prior is the status the order held before the call
	Prior core.OrderStatus
}

// OrderRepository is an output port (secondary port) for order
// reconciliation state.
// Secondary adapters (database or in-memory implementations) will
// implement this.
type OrderRepository interface {
	// Create stores a new order in PENDING status
	Create(order *core.Order) error

	// GetByID retrieves an order by its merchant-assigned id.
	// Returns ErrOrderNotFound when absent.
	GetByID(id string) (*core.Order, error)

	// Resolve atomically transitions the order to the given terminal
	// status if it is still PENDING. An already-terminal order is left
	// untouched and reported through ResolveResult.Prior. No transition
	// ever leaves a terminal status.
	Resolve(id string, status core.OrderStatus) (ResolveResult, error)

	// Delete removes an order record. Used to release the provisional
	// row when the gateway rejects the order-creation call.
	Delete(id string) error
}
