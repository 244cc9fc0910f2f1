// internal/service/stock/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

// StockModel 对应数据库中的 stock 表。
type StockModel struct {
	ProductID    int    `gorm:"primaryKey;column:product_id"`
	Name         string `gorm:"size:255"`
	Quantity     int    `gorm:"not null;default:0"`
	ReorderLevel int    `gorm:"not null;default:0"`
	SyncPending  bool   `gorm:"not null;default:false;index"`
	Version      uint64 `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (StockModel) TableName() string {
	return "stock"
}

// ReservationModel 对应 stock_reservation 表，按幂等令牌唯一。
type ReservationModel struct {
	Token       string `gorm:"primaryKey;size:64"`
	ProductID   int    `gorm:"not null;index"`
	Op          string `gorm:"size:16;not null"`
	Amount      int    `gorm:"not null"`
	NewQuantity int    `gorm:"not null"`
	AppliedAt   time.Time
}

func (ReservationModel) TableName() string {
	return "stock_reservation"
}

func stockToModel(s *domain.Stock) *StockModel {
	return &StockModel{
		ProductID:    s.ProductID,
		Name:         s.Name,
		Quantity:     s.Quantity,
		ReorderLevel: s.ReorderLevel,
		SyncPending:  s.SyncPending,
		Version:      s.Version,
	}
}

func stockToDomain(m *StockModel) *domain.Stock {
	return &domain.Stock{
		ProductID:    m.ProductID,
		Name:         m.Name,
		Quantity:     m.Quantity,
		ReorderLevel: m.ReorderLevel,
		SyncPending:  m.SyncPending,
		Version:      m.Version,
	}
}
