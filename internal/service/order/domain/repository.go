// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现。
type OrderRepository interface {
	// Save 保存一个订单聚合（用于创建或更新）。
	Save(ctx context.Context, order *Order) error

	// FindByOrderID 根据订单号查找。
	FindByOrderID(ctx context.Context, orderID string) (*Order, error)

	// FindByCustomerID 返回某个客户的全部订单。
	FindByCustomerID(ctx context.Context, customerID int) ([]*Order, error)

	// FindAll 返回全部订单。
	FindAll(ctx context.Context) ([]*Order, error)

	// FindByDateRange 返回下单日期落在 [start, end] 内的订单。
	FindByDateRange(ctx context.Context, start, end time.Time) ([]*Order, error)

	// UpdateState 单独更新订单状态，供运营侧人工修正使用。
	UpdateState(ctx context.Context, orderID string, state State) error

	// DateBounds 返回现有数据的最早与最晚下单日期，
	// 没有任何订单时返回 ErrDateNotFound。
	DateBounds(ctx context.Context) (min, max time.Time, err error)
}
