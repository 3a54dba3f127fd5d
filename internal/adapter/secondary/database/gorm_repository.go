package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/paybridge/wechat-bridge/internal/constant/model/db"
	"github.com/paybridge/wechat-bridge/internal/core"
	"github.com/paybridge/wechat-bridge/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository is a secondary adapter that implements the
// OrderRepository output port
type GormOrderRepository struct {
	gormDB *gorm.DB
}

// NewGormOrderRepository creates a new GORM order repository
func NewGormOrderRepository(gormDB *gorm.DB) output.OrderRepository {
	return &GormOrderRepository{gormDB: gormDB}
}

// toCore converts db.Order to core.Order
func toCore(o *db.Order) *core.Order {
	return &core.Order{
		ID:               o.ID,
		AmountMinorUnits: o.AmountMinorUnits,
		Description:      o.Description,
		NotifyURL:        o.NotifyURL,
		Status:           core.OrderStatus(o.Status),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// fromCore converts core.Order to db.Order
func fromCore(o *core.Order) *db.Order {
	return &db.Order{
		ID:               o.ID,
		AmountMinorUnits: o.AmountMinorUnits,
		Description:      o.Description,
		NotifyURL:        o.NotifyURL,
		Status:           db.OrderStatus(o.Status),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

// Create stores a new order
func (r *GormOrderRepository) Create(order *core.Order) error {
	dbOrder := fromCore(order)
	if err := r.gormDB.Create(dbOrder).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	// Update core entity with timestamps set by GORM hooks
	order.CreatedAt = dbOrder.CreatedAt
	order.UpdatedAt = dbOrder.UpdatedAt
	return nil
}

// GetByID retrieves an order by its merchant-assigned id
func (r *GormOrderRepository) GetByID(id string) (*core.Order, error) {
	var dbOrder db.Order
	if err := r.gormDB.Where("id = ?", id).First(&dbOrder).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, output.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return toCore(&dbOrder), nil
}

// Resolve atomically transitions an order to a terminal status if it is
// still PENDING. Uses SELECT FOR UPDATE so concurrent duplicate
// notifications cannot both apply.
func (r *GormOrderRepository) Resolve(id string, status core.OrderStatus) (output.ResolveResult, error) {
	var result output.ResolveResult
	err := r.gormDB.Transaction(func(tx *gorm.DB) error {
		var dbOrder db.Order

		// Lock the row and check status using SELECT FOR UPDATE
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&dbOrder).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return output.ErrOrderNotFound
			}
			return fmt.Errorf("failed to lock order: %w", err)
		}

		// A terminal order stays as it is; report the prior status
		if !dbOrder.IsPending() {
			result = output.ResolveResult{Applied: false, Prior: core.OrderStatus(dbOrder.Status)}
			return nil
		}

		dbOrder.Status = db.OrderStatus(status)
		dbOrder.UpdatedAt = time.Now()

		if err := tx.Save(&dbOrder).Error; err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}

		result = output.ResolveResult{Applied: true, Prior: core.OrderStatusPending}
		return nil
	})
	return result, err
}

// Delete removes an order record
func (r *GormOrderRepository) Delete(id string) error {
	if err := r.gormDB.Delete(&db.Order{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}
