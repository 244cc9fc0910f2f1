// internal/service/order/application/saga/commit.go
package saga

import (
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// CommitHandler 负责把订单以 ACCEPTED 状态落库。
// 落库失败时返回错误，由编排层触发已注册的补偿归还库存，
// 调用方绝不会在库存仍被占用的情况下看到"订单失败"。
type CommitHandler struct {
	NextHandler
}

func (h *CommitHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CommitOrder")
	defer span.End()

	order := orderCtx.Order
	if err := order.Accept(); err != nil {
		return err
	}
	if err := orderCtx.Repo.Save(ctx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to persist accepted order")
		if abortErr := order.AbortCommit(); abortErr != nil {
			span.RecordError(abortErr)
		}
		return fmt.Errorf("failed to persist accepted order %s: %w", order.OrderID, err)
	}

	span.AddEvent("order committed as ACCEPTED")
	return h.executeNext(orderCtx)
}
