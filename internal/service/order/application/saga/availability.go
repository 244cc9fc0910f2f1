// internal/service/order/application/saga/availability.go
package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// AvailabilityHandler 负责商品存在性与可用数量探测。
// 探测结果是建议性的（time-of-check）：并发订单可能在探测之后
// 抢走库存，真正的守门人是预占步骤。
type AvailabilityHandler struct {
	NextHandler
}

func (h *AvailabilityHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CheckAvailability")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(
		attribute.Int("product.id", order.ProductID),
		attribute.Int("order.quantity", order.Quantity),
	)

	avail, err := orderCtx.Products.CheckAvailability(ctx, order.ProductID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "availability probe failed")
		return fmt.Errorf("availability probe for product %d: %w", order.ProductID, err)
	}

	if !avail.Exists {
		span.AddEvent("product not found in registry")
		return domain.ErrProductNotFound
	}
	if avail.Quantity < order.Quantity {
		span.SetAttributes(attribute.Int("product.available", avail.Quantity))
		return domain.ErrInsufficientQuantity
	}

	span.AddEvent("availability confirmed")
	return h.executeNext(orderCtx)
}
