// internal/service/order/application/saga/handler.go
package saga

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain/port"
)

// OrderContext 在履约流程中传递上下文数据。
// 所有外部依赖都是出站端口，责任链只面向抽象。
type OrderContext struct {
	Ctx    context.Context
	Order  *domain.Order
	Tracer trace.Tracer

	Products port.ProductRegistry
	Stocks   port.StockLedger
	Notifier port.NotificationProducer
	Repo     domain.OrderRepository

	// Token 是本次 Saga 的幂等令牌，预占与补偿调用共享同一前缀。
	Token string

	compensations []func(ctx context.Context)
	compLock      sync.Mutex
}

// AddCompensation 注册一个补偿函数，触发时按后进先出执行。
func (c *OrderContext) AddCompensation(comp func(ctx context.Context)) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	c.compensations = append([]func(context.Context){comp}, c.compensations...)
}

// TriggerCompensation 执行所有已注册的补偿函数。
func (c *OrderContext) TriggerCompensation(ctx context.Context) {
	c.compLock.Lock()
	defer c.compLock.Unlock()
	logger.Ctx(ctx).Info().Str("orderId", c.Order.OrderID).
		Int("count", len(c.compensations)).Msg("executing compensation functions")
	for _, comp := range c.compensations {
		comp(ctx)
	}
	c.compensations = nil
}

// Handler 是责任链中的一个处理步骤。
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}
