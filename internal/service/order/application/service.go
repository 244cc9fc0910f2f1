// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/metrics"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/application/saga"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain/port"
)

// OrderApplicationService 编排订单履约流程与订单查询。
type OrderApplicationService struct {
	repo              domain.OrderRepository
	products          port.ProductRegistry
	stocks            port.StockLedger
	notifier          port.NotificationProducer
	idgen             port.CustomerIDGenerator
	tracer            trace.Tracer
	processingTimeout time.Duration
}

func NewOrderApplicationService(
	repo domain.OrderRepository,
	products port.ProductRegistry,
	stocks port.StockLedger,
	notifier port.NotificationProducer,
	idgen port.CustomerIDGenerator,
	tracer trace.Tracer,
	processingTimeout time.Duration,
) *OrderApplicationService {
	if processingTimeout <= 0 {
		processingTimeout = 30 * time.Second
	}
	return &OrderApplicationService{
		repo: repo, products: products, stocks: stocks,
		notifier: notifier, idgen: idgen, tracer: tracer,
		processingTimeout: processingTimeout,
	}
}

// CreateOrder 驱动一笔订单走完 验证 → 探测 → 预占 → 提交 的全流程。
// 返回的订单要么处于 ACCEPTED 终态，要么携带一个带类型的失败原因；
// 任何失败都不会留下"订单不存在但库存被占用"的中间态
// （预占结果不确定时除外，此时歧义被显式暴露）。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()

	// 参数校验在任何 I/O 之前完成
	if req.ProductID == 0 || req.Quantity <= 0 {
		metrics.OrdersCreated.WithLabelValues("invalid").Inc()
		return nil, domain.ErrInvalidRequest
	}

	processingCtx, cancel := context.WithTimeout(ctx, s.processingTimeout)
	defer cancel()

	customerID := req.CustomerID
	if customerID == 0 {
		id, err := s.idgen.NextCustomerID(processingCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "customer id generation failed")
			metrics.OrdersCreated.WithLabelValues("failed").Inc()
			return nil, err
		}
		customerID = id
	}

	orderID := uuid.NewString()
	order, err := domain.NewOrder(orderID, customerID, req.ProductID, req.Quantity)
	if err != nil {
		metrics.OrdersCreated.WithLabelValues("invalid").Inc()
		return nil, err
	}
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.Int("product.id", req.ProductID),
		attribute.Int("order.quantity", req.Quantity),
	)

	// 初始落库：PENDING 状态先于任何远端调用存在
	if err := s.repo.Save(processingCtx, order); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save initial order")
		metrics.OrdersCreated.WithLabelValues("failed").Inc()
		return nil, err
	}

	orderContext := &saga.OrderContext{
		Ctx:      processingCtx,
		Order:    order,
		Tracer:   s.tracer,
		Products: s.products,
		Stocks:   s.stocks,
		Notifier: s.notifier,
		Repo:     s.repo,
		Token:    orderID,
	}

	if err := s.buildChain().Handle(orderContext); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "order processing chain failed")
		s.settleFailure(processingCtx, orderContext, err)
		return toResult(order), err
	}

	metrics.OrdersCreated.WithLabelValues("accepted").Inc()
	logger.Ctx(processingCtx).Info().Str("orderId", orderID).
		Int("productId", req.ProductID).Int("quantity", req.Quantity).
		Msg("order accepted")
	span.AddEvent("order accepted")
	return toResult(order), nil
}

// buildChain 组装履约责任链：探测 → 预占 → 提交 → 通知。
func (s *OrderApplicationService) buildChain() saga.Handler {
	availability := &saga.AvailabilityHandler{}
	availability.
		SetNext(&saga.ReservationHandler{}).
		SetNext(&saga.CommitHandler{}).
		SetNext(&saga.NotificationHandler{})
	return availability
}

// settleFailure 把失败的订单推到正确的终态并持久化：
// 预占已生效的先触发补偿归还库存，再按错误类型落 REJECTED / FAILED。
func (s *OrderApplicationService) settleFailure(ctx context.Context, orderCtx *saga.OrderContext, cause error) {
	order := orderCtx.Order

	if order.State == domain.StateReserved {
		if err := order.BeginCompensation(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("orderId", order.OrderID).
				Msg("failed to enter compensation state")
		}
	}
	if order.State == domain.StateCompensating {
		order.FailureReason = reasonOf(cause)
		orderCtx.TriggerCompensation(ctx)
	}

	// 补偿路径之外的失败按类型落终态；
	// 补偿成功时状态已是 RELEASED，补偿失败时保持 COMPENSATING 等待修复。
	if !order.State.IsTerminal() && order.State != domain.StateCompensating {
		reason := reasonOf(cause)
		var terr error
		if isRejection(cause) {
			terr = order.Reject(reason)
		} else {
			terr = order.Fail(reason)
		}
		if terr != nil {
			logger.Ctx(ctx).Error().Err(terr).Str("orderId", order.OrderID).
				Msg("failed to settle order into terminal state")
		}
	}

	if err := s.repo.Save(ctx, order); err != nil {
		logger.Ctx(ctx).Error().Err(err).Str("orderId", order.OrderID).
			Msg("failed to persist settled order state")
	}

	event := &domain.OrderLifecycleEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		State:      order.State,
		Reason:     order.FailureReason,
		OccurredAt: time.Now(),
	}
	if err := s.notifier.PublishLifecycleEvent(ctx, event); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("orderId", order.OrderID).
			Msg("failed to publish order failure event")
	}

	metrics.OrdersCreated.WithLabelValues(statusLabel(order.State)).Inc()
	logger.Ctx(ctx).Warn().Err(cause).Str("orderId", order.OrderID).
		Str("state", string(order.State)).Msg("order settled as failure")
}

// isRejection 判断错误是否为业务上的明确拒绝（而非基础设施故障）。
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrInsufficientQuantity)
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "PRODUCT_NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return "INSUFFICIENT_QUANTITY"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrReservationIndeterminate):
		return "RESERVATION_INDETERMINATE"
	default:
		return "INTERNAL"
	}
}

func statusLabel(state domain.State) string {
	switch state {
	case domain.StateRejected:
		return "rejected"
	case domain.StateReleased:
		return "released"
	case domain.StateCompensating:
		return "compensating"
	default:
		return "failed"
	}
}

func toResult(order *domain.Order) *OrderResult {
	return &OrderResult{
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		ProductID:  order.ProductID,
		Quantity:   order.Quantity,
		Status:     string(order.State),
		Date:       order.Date,
	}
}

// GetByOrderID 查询单笔订单。
func (s *OrderApplicationService) GetByOrderID(ctx context.Context, orderID string) (*OrderResult, error) {
	order, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toResult(order), nil
}

// GetByCustomerID 查询某客户的全部订单。
func (s *OrderApplicationService) GetByCustomerID(ctx context.Context, customerID int) ([]*OrderResult, error) {
	orders, err := s.repo.FindByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return toResults(orders), nil
}

// GetAll 返回全部订单。
func (s *OrderApplicationService) GetAll(ctx context.Context) ([]*OrderResult, error) {
	orders, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toResults(orders), nil
}

// UpdateStatus 运营侧人工修正订单状态。
func (s *OrderApplicationService) UpdateStatus(ctx context.Context, orderID string, status string) error {
	return s.repo.UpdateState(ctx, orderID, domain.State(status))
}

// GetOrderReportByDate 返回下单日期落在 [start, end] 内的订单。
// 范围整体落在已有数据之外时返回 ErrDateNotFound。
func (s *OrderApplicationService) GetOrderReportByDate(ctx context.Context, start, end time.Time) ([]*OrderResult, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrderReportByDate")
	defer span.End()

	if end.Before(start) {
		return nil, domain.ErrInvalidRequest
	}
	min, max, err := s.repo.DateBounds(ctx)
	if err != nil {
		return nil, err
	}
	if end.Before(min) || start.After(max) {
		return nil, domain.ErrDateNotFound
	}

	orders, err := s.repo.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return toResults(orders), nil
}

func toResults(orders []*domain.Order) []*OrderResult {
	out := make([]*OrderResult, 0, len(orders))
	for _, o := range orders {
		out = append(out, toResult(o))
	}
	return out
}
