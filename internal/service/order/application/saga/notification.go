// internal/service/order/application/saga/notification.go
package saga

import (
	"time"

	"github.com/google/uuid"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// NotificationHandler 在订单提交后发布生命周期事件。
// 订单此时已经成立，发布失败只记录，不回滚流程。
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.PublishNotification")
	defer span.End()

	order := orderCtx.Order
	event := &domain.OrderLifecycleEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		State:      order.State,
		OccurredAt: time.Now(),
	}
	if err := orderCtx.Notifier.PublishLifecycleEvent(ctx, event); err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).Str("orderId", order.OrderID).
			Msg("failed to publish order lifecycle event")
	}

	return h.executeNext(orderCtx)
}
