package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
)

// OrderRepository is an in-memory secondary adapter implementing the
// OrderRepository output port. Suitable for tests and brokerless runs;
// orders live only as long as the process.
type OrderRepository struct {
	mu     sync.Mutex
	orders map[string]core.Order
}

// NewOrderRepository creates an empty in-memory order repository
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]core.Order)}
}

// Create stores a new order
func (r *OrderRepository) Create(order *core.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("order %s already exists", order.ID)
	}
	now := time.Now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = now
	}
	r.orders[order.ID] = *order
	return nil
}

// GetByID retrieves an order by its merchant-assigned id
func (r *OrderRepository) GetByID(id string) (*core.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, output.ErrOrderNotFound
	}
	return &order, nil
}

// Resolve atomically transitions an order to a terminal status if it is
// still PENDING; the mutex makes concurrent duplicates apply exactly once.
func (r *OrderRepository) Resolve(id string, status core.OrderStatus) (output.ResolveResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return output.ResolveResult{}, output.ErrOrderNotFound
	}
	if !order.IsPending() {
		return output.ResolveResult{Applied: false, Prior: order.Status}, nil
	}
	order.Status = status
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return output.ResolveResult{Applied: true, Prior: core.OrderStatusPending}, nil
}

// Delete removes an order record
func (r *OrderRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.orders, id)
	return nil
}

var _ output.OrderRepository = (*OrderRepository)(nil)
