package input

import (
	"context"
	"time"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/core/session"
)

// OrderService is an input port (primary port) for payment order operations
// Primary adapters (HTTP handlers) will use this
type OrderService interface {
	// InitiateOrder creates an order against the gateway and, on
	// success, registers the caller-provided sink before returning
	InitiateOrder(ctx context.Context, req InitiateOrderRequest) (*InitiateOrderResponse, error)

	// GetOrder retrieves an order's current reconciliation state
	GetOrder(id string) (*OrderStatusResponse, error)
}

// InitiateOrderRequest represents the request to initiate a payment order
type InitiateOrderRequest struct {
	// OrderID is the merchant-assigned id; generated when empty
	OrderID          string
	AmountMinorUnits int64
	Description      string
	// NotifyURL overrides the configured callback endpoint when set
	NotifyURL string
	// Sink, when non-nil, is registered as the order's waiter before
	// the order handle is returned, so an immediate notification
	// cannot race ahead of registration
	Sink session.Sink
}

// InitiateOrderResponse represents a successfully initiated order
type InitiateOrderResponse struct {
	OrderID   string
	CodeURL   string
	Status    core.OrderStatus
	CreatedAt time.Time
}

// OrderStatusResponse represents an order's observable state
type OrderStatusResponse struct {
	OrderID          string
	AmountMinorUnits int64
	Description      string
	Status           core.OrderStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
