// internal/service/product/infrastructure/adapter/stock_http_adapter.go
package adapter

import (
	"context"

	"github.com/google/uuid"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
)

// StockHTTPAdapter 实现 port.StockImporter，通过 RPC 信封调用库存服务。
type StockHTTPAdapter struct {
	client *httpclient.Client
}

func NewStockHTTPAdapter(client *httpclient.Client) *StockHTTPAdapter {
	return &StockHTTPAdapter{client: client}
}

type saveStockRequest struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// SaveStock 向库存服务播种影子库存行。带幂等令牌，超时后可以安全重试。
func (a *StockHTTPAdapter) SaveStock(ctx context.Context, productID int, name string, quantity int) error {
	req := saveStockRequest{ProductID: productID, Name: name, Quantity: quantity}
	return a.client.PostJSON(ctx, constants.StockService, constants.StockSavePath, req, nil,
		httpclient.WithIdempotencyToken(uuid.New().String()))
}
