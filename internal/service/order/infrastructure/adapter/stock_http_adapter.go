// internal/service/order/infrastructure/adapter/stock_http_adapter.go
package adapter

import (
	"context"
	"fmt"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// StockHTTPAdapter 通过 RPC 信封调用库存服务，实现 port.StockLedger。
type StockHTTPAdapter struct {
	client *httpclient.Client
}

func NewStockHTTPAdapter(client *httpclient.Client) *StockHTTPAdapter {
	return &StockHTTPAdapter{client: client}
}

type stockMutationRequest struct {
	ProductID        int    `json:"productId"`
	Quantity         int    `json:"quantity"`
	IdempotencyToken string `json:"idempotencyToken"`
}

type stockMutationResponse struct {
	ProductID   int `json:"productId"`
	NewQuantity int `json:"newQuantity"`
}

// Reserve 预占库存。超时/不可达在信封重试耗尽后被归为
// ErrReservationIndeterminate：远端是否已扣减未知，由编排层决定不提交。
func (a *StockHTTPAdapter) Reserve(ctx context.Context, productID, quantity int, token string) (int, error) {
	newQuantity, err := a.mutate(ctx, constants.StockReservePath, productID, quantity, token)
	if err != nil {
		if kind, ok := httpclient.KindOf(err); ok {
			switch kind {
			case httpclient.KindTimeout, httpclient.KindUnavailable:
				return 0, fmt.Errorf("%w: %v", domain.ErrReservationIndeterminate, err)
			case httpclient.KindRejected:
				switch httpclient.ReasonOf(err) {
				case "INSUFFICIENT_STOCK":
					return 0, domain.ErrInsufficientQuantity
				case "STOCK_NOT_FOUND":
					return 0, domain.ErrProductNotFound
				}
			}
		}
		return 0, err
	}
	return newQuantity, nil
}

// Release 归还库存，Reserve 的补偿操作。失败原样上抛由调用方记录。
func (a *StockHTTPAdapter) Release(ctx context.Context, productID, quantity int, token string) (int, error) {
	return a.mutate(ctx, constants.StockReleasePath, productID, quantity, token)
}

func (a *StockHTTPAdapter) mutate(ctx context.Context, path string, productID, quantity int, token string) (int, error) {
	req := stockMutationRequest{ProductID: productID, Quantity: quantity, IdempotencyToken: token}
	var resp stockMutationResponse
	err := a.client.PostJSON(ctx, constants.StockService, path, req, &resp, httpclient.WithIdempotencyToken(token))
	if err != nil {
		return 0, err
	}
	return resp.NewQuantity, nil
}
