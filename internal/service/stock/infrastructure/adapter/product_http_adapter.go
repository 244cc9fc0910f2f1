// internal/service/stock/infrastructure/adapter/product_http_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

// ProductHTTPAdapter 实现 port.ProductRegistry。
type ProductHTTPAdapter struct {
	client *httpclient.Client
}

func NewProductHTTPAdapter(client *httpclient.Client) *ProductHTTPAdapter {
	return &ProductHTTPAdapter{client: client}
}

type quantityUpdateRequest struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// SyncQuantity 把账本数量推给商品服务。同一 (商品, 数量) 的推送天然幂等，
// 令牌由两者确定性派生，重试不会产生新效果。
func (a *ProductHTTPAdapter) SyncQuantity(ctx context.Context, productID, newQuantity int) error {
	req := quantityUpdateRequest{ProductID: productID, Quantity: newQuantity}
	token := fmt.Sprintf("sync-%d-%d", productID, newQuantity)
	return a.client.PutJSON(ctx, constants.ProductService, constants.ProductUpdateQuantityPath, req, nil,
		httpclient.WithIdempotencyToken(token))
}

// FetchOverallStocks 拉取商品全量 {id, name, quantity} 视图。
func (a *ProductHTTPAdapter) FetchOverallStocks(ctx context.Context) ([]domain.ImportRow, error) {
	var rows []domain.ImportRow
	if err := a.client.GetJSON(ctx, constants.ProductService, constants.ProductOverallStocksPath, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
