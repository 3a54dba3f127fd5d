package db

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the reconciliation state of an order
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusResolvedSuccess OrderStatus = "RESOLVED_SUCCESS"
	OrderStatusResolvedFail    OrderStatus = "RESOLVED_FAIL"
)

// Order represents a payment order entity in the database
type Order struct {
	ID               string      `gorm:"type:varchar(32);primary_key" json:"id"`
	AmountMinorUnits int64       `gorm:"not null" json:"amount_minor_units"`
	Description      string      `gorm:"type:varchar(127);not null" json:"description"`
	NotifyURL        string      `gorm:"type:varchar(255);not null" json:"notify_url"`
	Status           OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate is a GORM hook that runs before creating a record
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if o.CreatedAt.IsZero() {
		o.CreatedAt = now
	}
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = now
	}
	return nil
}

// BeforeUpdate is a GORM hook that runs before updating a record
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	o.UpdatedAt = time.Now()
	return nil
}

// IsPending checks if the order is awaiting its notification
func (o *Order) IsPending() bool {
	return o.Status == OrderStatusPending
}

// IsTerminal checks if the order is in a terminal state
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusResolvedSuccess || o.Status == OrderStatusResolvedFail
}
