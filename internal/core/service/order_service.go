package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/core/session"
	"github.com/paybridge/wechat-bridge/internal/port/input"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

// Gateway contract limits for merchant order fields
const (
	orderIDMinLen     = 6
	orderIDMaxLen     = 32
	descriptionMaxLen = 127
)

// OrderServiceImpl implements the OrderService input port
type OrderServiceImpl struct {
	orderRepo output.OrderRepository
	gateway   output.GatewayClient
	registry  *session.Registry
	// notifyURL is the default callback endpoint given to the gateway
	notifyURL string
}

// NewOrderService creates a new order service
func NewOrderService(
	orderRepo output.OrderRepository,
	gateway output.GatewayClient,
	registry *session.Registry,
	notifyURL string,
) input.OrderService {
	return &OrderServiceImpl{
		orderRepo: orderRepo,
		gateway:   gateway,
		registry:  registry,
		notifyURL: notifyURL,
	}
}

// InitiateOrder creates the order, sends it to the gateway and, on
// success, registers the caller's sink before returning the handle, so a
// notification arriving immediately after creation cannot race ahead of
// registration.
func (s *OrderServiceImpl) InitiateOrder(ctx context.Context, req input.InitiateOrderRequest) (*input.InitiateOrderResponse, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		orderID = newOrderID()
	}
	if len(orderID) < orderIDMinLen || len(orderID) > orderIDMaxLen {
		return nil, fmt.Errorf("order id length must be %d to %d characters", orderIDMinLen, orderIDMaxLen)
	}

	// Validate amount
	if req.AmountMinorUnits <= 0 {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	// Validate description
	description := strings.TrimSpace(req.Description)
	if description == "" {
		return nil, fmt.Errorf("description is required")
	}
	if len(description) > descriptionMaxLen {
		return nil, fmt.Errorf("description length must be at most %d characters", descriptionMaxLen)
	}

	notifyURL := req.NotifyURL
	if notifyURL == "" {
		notifyURL = s.notifyURL
	}
	if notifyURL == "" {
		return nil, fmt.Errorf("notify url is required")
	}

	// Create order entity
	order := &core.Order{
		ID:               orderID,
		AmountMinorUnits: req.AmountMinorUnits,
		Description:      description,
		NotifyURL:        notifyURL,
		Status:           core.OrderStatusPending,
	}

	// Record the pending order before the remote call, so a callback
	// arriving right after creation finds the row
	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	handle, err := s.gateway.CreateOrder(ctx, order)
	if err != nil {
		// Release the provisional record; the typed gateway failure
		// propagates to the caller untouched and is never retried here
		if delErr := s.orderRepo.Delete(orderID); delErr != nil {
			log.Printf("Failed to release order %s after gateway error: %v", orderID, delErr)
		}
		return nil, err
	}

	if req.Sink != nil {
		s.registry.Register(orderID, req.Sink)
	}

	return &input.InitiateOrderResponse{
		OrderID:   orderID,
		CodeURL:   handle.CodeURL,
		Status:    order.Status,
		CreatedAt: order.CreatedAt,
	}, nil
}

// GetOrder retrieves an order's current reconciliation state
func (s *OrderServiceImpl) GetOrder(id string) (*input.OrderStatusResponse, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	return &input.OrderStatusResponse{
		OrderID:          order.ID,
		AmountMinorUnits: order.AmountMinorUnits,
		Description:      order.Description,
		Status:           order.Status,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}, nil
}

// newOrderID generates a 32-char merchant order id
func newOrderID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
