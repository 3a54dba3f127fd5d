package core

import "time"

// OrderStatus represents the reconciliation state of an order
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusResolvedSuccess OrderStatus = "RESOLVED_SUCCESS"
	OrderStatusResolvedFail    OrderStatus = "RESOLVED_FAIL"
)

// Outcome is the terminal result of a payment order as reported by the gateway
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFail    Outcome = "FAIL"
)

// Status returns the order status an outcome resolves to
func (o Outcome) Status() OrderStatus {
	if o == OutcomeSuccess {
		return OrderStatusResolvedSuccess
	}
	return OrderStatusResolvedFail
}

// Order represents a payment order domain entity.
// Immutable after creation except for its reconciliation status.
type Order struct {
	ID               string
	AmountMinorUnits int64
	Description      string
	NotifyURL        string
	Status           OrderStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsPending checks if the order is awaiting its gateway notification
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsTerminal checks if the order has been resolved
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusResolvedSuccess || o.Status == OrderStatusResolvedFail
}
