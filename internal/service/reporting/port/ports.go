// internal/service/reporting/port/ports.go
package port

import (
	"context"
	"time"
)

// OrderRow 是订单报表的一行。
type OrderRow struct {
	OrderID    string    `json:"orderId"`
	CustomerID int       `json:"customerId"`
	ProductID  int       `json:"productId"`
	Quantity   int       `json:"quantity"`
	Status     string    `json:"status"`
	Date       time.Time `json:"date"`
}

// LowStockRow 是低库存报表的一行。
type LowStockRow struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// StockRow 是全量库存视图的一行。
type StockRow struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// OrderReportSource 是订单服务的出站端口。
type OrderReportSource interface {
	FetchOrdersByDate(ctx context.Context, start, end string) ([]OrderRow, error)
}

// StockReportSource 是库存服务的出站端口。
type StockReportSource interface {
	FetchLowStocks(ctx context.Context) ([]LowStockRow, error)
}

// ProductReportSource 是商品服务的出站端口。
type ProductReportSource interface {
	FetchOverallStocks(ctx context.Context) ([]StockRow, error)
}
