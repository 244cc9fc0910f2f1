// internal/service/product/domain/repository.go
package domain

import "context"

// ProductRepository 定义商品聚合的持久化接口，由基础设施层实现。
type ProductRepository interface {
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, productID int) (*Product, error)
	ExistsByID(ctx context.Context, productID int) (bool, error)
	DeleteByID(ctx context.Context, productID int) error
	FindAll(ctx context.Context) ([]*Product, error)
	// FindAvailable 返回 stockLevel > 0 的商品。
	FindAvailable(ctx context.Context) ([]*Product, error)
	FindByPriceRange(ctx context.Context, low, high float64) ([]*Product, error)
	// UpdateStockLevel 只更新数量字段，是库存服务同步数量时走的路径。
	UpdateStockLevel(ctx context.Context, productID, stockLevel int) error
}
