// internal/service/product/port/stock.go
package port

import "context"

// StockImporter 是商品服务的出站端口：新建商品时向库存服务播种影子行。
type StockImporter interface {
	SaveStock(ctx context.Context, productID int, name string, quantity int) error
}
