// internal/service/order/application/saga/reservation.go
package saga

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/metrics"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
)

// ReservationHandler 负责库存预占，Saga 中唯一的远端副作用步骤。
// 预占成功后注册补偿：后续任何失败都会归还同等数量的库存。
type ReservationHandler struct {
	NextHandler
}

func (h *ReservationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ReserveStock")
	defer span.End()

	order := orderCtx.Order
	span.SetAttributes(
		attribute.Int("product.id", order.ProductID),
		attribute.Int("order.quantity", order.Quantity),
		attribute.String("idempotency.token", orderCtx.Token),
	)

	if err := order.BeginReservation(); err != nil {
		return err
	}

	newQuantity, err := orderCtx.Stocks.Reserve(ctx, order.ProductID, order.Quantity, orderCtx.Token)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stock reservation failed")
		if errors.Is(err, domain.ErrReservationIndeterminate) {
			// 远端是否已扣减未知：不注册补偿（盲目 Release 可能把
			// 从未扣减的库存加回去），也绝不提交订单。
			span.AddEvent("reservation outcome unknown after retries")
			return err
		}
		return err
	}

	if err := order.MarkReserved(); err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("stock.newQuantity", newQuantity))
	span.AddEvent("stock reserved")

	// 补偿令牌由预占令牌派生：归还调用自身也是幂等的。
	releaseToken := orderCtx.Token + "/release"
	orderCtx.AddCompensation(func(compCtx context.Context) {
		compCtx, compSpan := orderCtx.Tracer.Start(compCtx, "saga.compensation.ReleaseStock")
		defer compSpan.End()
		metrics.Compensations.Inc()

		if _, err := orderCtx.Stocks.Release(compCtx, order.ProductID, order.Quantity, releaseToken); err != nil {
			// 补偿失败意味着库存被静默占用，必须显式暴露等待人工介入
			compSpan.RecordError(err)
			compSpan.SetStatus(codes.Error, "compensating release failed")
			logger.Ctx(compCtx).Error().Err(err).Str("orderId", order.OrderID).
				Int("productId", order.ProductID).Int("quantity", order.Quantity).
				Msg("compensating release failed, stock remains reserved without an order")
			return
		}
		if err := order.MarkReleased(order.FailureReason); err != nil {
			logger.Ctx(compCtx).Error().Err(err).Str("orderId", order.OrderID).
				Msgf("failed to mark order as released from state %s", order.State)
		}
	})

	return h.executeNext(orderCtx)
}
