// internal/service/order/infrastructure/adapter/product_http_adapter.go
package adapter

import (
	"context"
	"net/url"
	"strconv"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/constants"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/httpclient"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain/port"
)

// ProductHTTPAdapter 通过 RPC 信封调用商品服务，实现 port.ProductRegistry。
type ProductHTTPAdapter struct {
	client *httpclient.Client
}

func NewProductHTTPAdapter(client *httpclient.Client) *ProductHTTPAdapter {
	return &ProductHTTPAdapter{client: client}
}

type availabilityResponse struct {
	ProductID int  `json:"productId"`
	Exists    bool `json:"exists"`
	Quantity  int  `json:"quantity"`
}

// CheckAvailability 探测商品是否存在及其可用数量。
// 信封内部已做有界重试，走到这里的超时/不可达都是重试耗尽后的结果。
func (a *ProductHTTPAdapter) CheckAvailability(ctx context.Context, productID int) (*port.Availability, error) {
	q := url.Values{}
	q.Set("productId", strconv.Itoa(productID))

	var resp availabilityResponse
	err := a.client.GetJSON(ctx, constants.ProductService, constants.ProductAvailabilityPath, &resp, httpclient.WithQuery(q))
	if err != nil {
		if kind, ok := httpclient.KindOf(err); ok {
			switch kind {
			case httpclient.KindTimeout, httpclient.KindUnavailable:
				return nil, domain.ErrUpstreamUnavailable
			case httpclient.KindRejected:
				if httpclient.ReasonOf(err) == "PRODUCT_NOT_FOUND" {
					return &port.Availability{ProductID: productID, Exists: false}, nil
				}
			}
		}
		return nil, err
	}

	return &port.Availability{
		ProductID: resp.ProductID,
		Exists:    resp.Exists,
		Quantity:  resp.Quantity,
	}, nil
}
