// internal/service/product/domain/product.go
package domain

import "errors"

var (
	// ErrProductNotFound 表示目标商品不存在。
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct 表示商品字段不合法。
	ErrInvalidProduct = errors.New("invalid product data")
)

// Product 是商品聚合根。StockLevel 是目录视角下的在手数量，
// 预留决策以库存服务的账本为准，这里只是它的同步读模型。
type Product struct {
	ProductID  int
	Name       string
	Price      float64
	StockLevel int
}

// Validate 校验商品字段。
func (p *Product) Validate() error {
	if p.ProductID == 0 || p.Name == "" {
		return ErrInvalidProduct
	}
	if p.StockLevel < 0 || p.Price < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// Availability 是存在性 + 数量探测的结果，不落库。
type Availability struct {
	ProductID int  `json:"productId"`
	Exists    bool `json:"exists"`
	Quantity  int  `json:"quantity"`
}
