// internal/service/order/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// OrderModel 是订单表的持久化模型，与领域实体分离。
type OrderModel struct {
	OrderID       string    `gorm:"column:order_id;primaryKey;size:64"`
	CustomerID    int       `gorm:"column:customer_id;index"`
	ProductID     int       `gorm:"column:product_id;index"`
	Quantity      int       `gorm:"column:quantity"`
	Date          time.Time `gorm:"column:order_date;index"`
	State         string    `gorm:"column:status;size:20"`
	FailureReason string    `gorm:"column:failure_reason;size:40"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (OrderModel) TableName() string { return "orders" }

func toModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		OrderID:       o.OrderID,
		CustomerID:    o.CustomerID,
		ProductID:     o.ProductID,
		Quantity:      o.Quantity,
		Date:          o.Date,
		State:         string(o.State),
		FailureReason: o.FailureReason,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toDomain(m *OrderModel) *domain.Order {
	return &domain.Order{
		OrderID:       m.OrderID,
		CustomerID:    m.CustomerID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity,
		Date:          m.Date,
		State:         domain.State(m.State),
		FailureReason: m.FailureReason,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
