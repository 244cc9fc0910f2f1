// internal/service/product/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/product/domain"
)

// ProductModel 对应数据库中的 product 表。
type ProductModel struct {
	ProductID  int     `gorm:"primaryKey;column:product_id"`
	Name       string  `gorm:"size:255;not null"`
	Price      float64 `gorm:"type:decimal(10,2)"`
	StockLevel int     `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName 指定 GORM 使用的表名。
func (ProductModel) TableName() string {
	return "product"
}

func toModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ProductID:  p.ProductID,
		Name:       p.Name,
		Price:      p.Price,
		StockLevel: p.StockLevel,
	}
}

func toDomain(m *ProductModel) *domain.Product {
	return &domain.Product{
		ProductID:  m.ProductID,
		Name:       m.Name,
		Price:      m.Price,
		StockLevel: m.StockLevel,
	}
}
