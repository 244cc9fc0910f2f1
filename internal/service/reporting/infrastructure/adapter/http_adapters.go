// internal/service/reporting/infrastructure/adapter/http_adapters.go
package adapter

import (
	"context"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/port"
)

// OrderHTTPAdapter 通过 RPC 信封拉取订单报表，实现 port.OrderReportSource。
type OrderHTTPAdapter struct {
	client *httpclient.Client
}

func NewOrderHTTPAdapter(client *httpclient.Client) *OrderHTTPAdapter {
	return &OrderHTTPAdapter{client: client}
}

type dateRangeRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func (a *OrderHTTPAdapter) FetchOrdersByDate(ctx context.Context, start, end string) ([]port.OrderRow, error) {
	var rows []port.OrderRow
	req := dateRangeRequest{StartDate: start, EndDate: end}
	if err := a.client.PostJSON(ctx, constants.OrderService, constants.OrderReportPath, req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// StockHTTPAdapter 拉取低库存报表，实现 port.StockReportSource。
type StockHTTPAdapter struct {
	client *httpclient.Client
}

func NewStockHTTPAdapter(client *httpclient.Client) *StockHTTPAdapter {
	return &StockHTTPAdapter{client: client}
}

func (a *StockHTTPAdapter) FetchLowStocks(ctx context.Context) ([]port.LowStockRow, error) {
	var rows []port.LowStockRow
	if err := a.client.GetJSON(ctx, constants.StockService, constants.StockLowStockPath, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ProductHTTPAdapter 拉取全量库存视图，实现 port.ProductReportSource。
type ProductHTTPAdapter struct {
	client *httpclient.Client
}

func NewProductHTTPAdapter(client *httpclient.Client) *ProductHTTPAdapter {
	return &ProductHTTPAdapter{client: client}
}

func (a *ProductHTTPAdapter) FetchOverallStocks(ctx context.Context) ([]port.StockRow, error) {
	var rows []port.StockRow
	if err := a.client.GetJSON(ctx, constants.ProductService, constants.ProductOverallStocksPath, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
