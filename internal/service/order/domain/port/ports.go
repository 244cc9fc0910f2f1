// internal/service/order/domain/port/ports.go
package port

import (
	"context"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// Availability 是商品存在性与可用数量探测的结果。
// 读到的数量是建议性的：并发订单可能在探测与预占之间抢走库存。
type Availability struct {
	ProductID int
	Exists    bool
	Quantity  int
}

// ProductRegistry 是商品目录的出站端口。
type ProductRegistry interface {
	// CheckAvailability 探测商品是否存在及其可用数量。
	CheckAvailability(ctx context.Context, productID int) (*Availability, error)
}

// StockLedger 是库存账本的出站端口。
// Reserve 与 Release 都携带幂等令牌：超时重试不会二次扣减。
type StockLedger interface {
	Reserve(ctx context.Context, productID, quantity int, token string) (newQuantity int, err error)
	Release(ctx context.Context, productID, quantity int, token string) (newQuantity int, err error)
}

// NotificationProducer 发布订单生命周期事件。
type NotificationProducer interface {
	PublishLifecycleEvent(ctx context.Context, event *domain.OrderLifecycleEvent) error
}

// CustomerIDGenerator 签发客户编号。
// 编号来自外部持久化的序列，多实例并发下单也不会重号。
type CustomerIDGenerator interface {
	NextCustomerID(ctx context.Context) (int, error)
}
