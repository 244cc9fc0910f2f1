// internal/service/order/application/service_test.go
package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/domain/port"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/order/infrastructure"
)

// fakeProducts 返回脚本化的探测结果。
type fakeProducts struct {
	avail *port.Availability
	err   error
}

func (f *fakeProducts) CheckAvailability(_ context.Context, productID int) (*port.Availability, error) {
	if f.err != nil {
		return nil, f.err
	}
	a := *f.avail
	a.ProductID = productID
	return &a, nil
}

// reserveCall 记录一次对库存端口的调用。
type reserveCall struct {
	op        string
	productID int
	quantity  int
	token     string
}

// fakeStocks 是带真实扣减语义的库存端口假件：
// 按令牌去重，数量不足拒绝，可注入 reserveErr。
type fakeStocks struct {
	mu         sync.Mutex
	quantity   int
	calls      []reserveCall
	reserveErr error
	applied    map[string]int
}

func newFakeStocks(quantity int) *fakeStocks {
	return &fakeStocks{quantity: quantity, applied: make(map[string]int)}
}

func (f *fakeStocks) Reserve(_ context.Context, productID, quantity int, token string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reserveCall{op: "reserve", productID: productID, quantity: quantity, token: token})
	if f.reserveErr != nil {
		return 0, f.reserveErr
	}
	if q, ok := f.applied[token]; ok {
		return q, nil
	}
	if f.quantity < quantity {
		return 0, domain.ErrInsufficientQuantity
	}
	f.quantity -= quantity
	f.applied[token] = f.quantity
	return f.quantity, nil
}

func (f *fakeStocks) Release(_ context.Context, productID, quantity int, token string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, reserveCall{op: "release", productID: productID, quantity: quantity, token: token})
	if q, ok := f.applied[token]; ok {
		return q, nil
	}
	f.quantity += quantity
	f.applied[token] = f.quantity
	return f.quantity, nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []*domain.OrderLifecycleEvent
}

func (f *fakeNotifier) PublishLifecycleEvent(_ context.Context, event *domain.OrderLifecycleEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

type fakeIDGen struct{ next int64 }

func (f *fakeIDGen) NextCustomerID(_ context.Context) (int, error) {
	f.next++
	return int(f.next), nil
}

// flakyRepo 包装内存仓储，在保存 ACCEPTED 状态时注入失败，
// 用于驱动提交失败后的补偿路径。
type flakyRepo struct {
	domain.OrderRepository
	failAcceptedSave bool
}

func (r *flakyRepo) Save(ctx context.Context, order *domain.Order) error {
	if r.failAcceptedSave && order.State == domain.StateAccepted {
		return errors.New("database write failed")
	}
	return r.OrderRepository.Save(ctx, order)
}

type env struct {
	svc      *application.OrderApplicationService
	repo     *infrastructure.MemoryOrderRepository
	flaky    *flakyRepo
	products *fakeProducts
	stocks   *fakeStocks
	notifier *fakeNotifier
}

func newEnv(initialStock int) *env {
	repo := infrastructure.NewMemoryOrderRepository()
	flaky := &flakyRepo{OrderRepository: repo}
	products := &fakeProducts{avail: &port.Availability{Exists: true, Quantity: initialStock}}
	stocks := newFakeStocks(initialStock)
	notifier := &fakeNotifier{}

	svc := application.NewOrderApplicationService(
		flaky, products, stocks, notifier, &fakeIDGen{},
		otel.Tracer("order-test"), 5*time.Second,
	)
	return &env{svc: svc, repo: repo, flaky: flaky, products: products, stocks: stocks, notifier: notifier}
}

func TestCreateOrderHappyPath(t *testing.T) {
	e := newEnv(100)

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 10})
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateAccepted), result.Status)
	assert.NotEmpty(t, result.OrderID)
	assert.Equal(t, 1, result.CustomerID)

	// 库存被精确扣减一次
	assert.Equal(t, 90, e.stocks.quantity)
	require.Len(t, e.stocks.calls, 1)
	assert.Equal(t, "reserve", e.stocks.calls[0].op)
	assert.Equal(t, result.OrderID, e.stocks.calls[0].token)

	stored, err := e.repo.FindByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateAccepted, stored.State)

	// 成功事件已发布
	require.Len(t, e.notifier.events, 1)
	assert.Equal(t, domain.StateAccepted, e.notifier.events[0].State)
}

func TestCreateOrderValidatesBeforeAnyIO(t *testing.T) {
	e := newEnv(100)

	_, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 0, Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	_, err = e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	// 没有任何远端调用发生
	assert.Empty(t, e.stocks.calls)
}

func TestCreateOrderProductNotFound(t *testing.T) {
	e := newEnv(100)
	e.products.avail = &port.Availability{Exists: false}

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 42, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, string(domain.StateRejected), result.Status)
	assert.Empty(t, e.stocks.calls)
}

func TestCreateOrderInsufficientQuantityAtProbe(t *testing.T) {
	e := newEnv(5)

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.Equal(t, string(domain.StateRejected), result.Status)

	// 探测阶段就被拒绝，库存服务从未被调用，数量不变
	assert.Empty(t, e.stocks.calls)
	assert.Equal(t, 5, e.stocks.quantity)
}

// TestCreateOrderRaceLostAtReservation 复现探测/预占之间的竞态：
// 探测读到的数量是旧值，真正的守门发生在预占步骤。
func TestCreateOrderRaceLostAtReservation(t *testing.T) {
	e := newEnv(10)
	// 探测仍然报告 10 件可用，但账本已被并发订单扣到 2 件
	e.stocks.quantity = 2

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 8})
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.Equal(t, string(domain.StateRejected), result.Status)

	// 预占被调用过、但被拒绝，账本数量不变
	require.Len(t, e.stocks.calls, 1)
	assert.Equal(t, 2, e.stocks.quantity)
}

func TestCreateOrderUpstreamUnavailable(t *testing.T) {
	e := newEnv(100)
	e.products.err = domain.ErrUpstreamUnavailable

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	assert.Equal(t, string(domain.StateFailed), result.Status)
	assert.Empty(t, e.stocks.calls)
}

// TestCreateOrderIndeterminateReservation 校验预占结果不确定时的安全行为：
// 订单不得提交为 ACCEPTED，也不得盲目补偿。
func TestCreateOrderIndeterminateReservation(t *testing.T) {
	e := newEnv(100)
	e.stocks.reserveErr = domain.ErrReservationIndeterminate

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 10})
	assert.ErrorIs(t, err, domain.ErrReservationIndeterminate)
	assert.Equal(t, string(domain.StateFailed), result.Status)

	// 没有 Release 被发出：远端是否扣减未知，盲目归还可能凭空加库存
	for _, call := range e.stocks.calls {
		assert.NotEqual(t, "release", call.op)
	}

	stored, err := e.repo.FindByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.NotEqual(t, domain.StateAccepted, stored.State)
	assert.Equal(t, "RESERVATION_INDETERMINATE", stored.FailureReason)
}

// TestCreateOrderCompensationOnCommitFailure 校验提交失败后的补偿：
// 预占成功、落库失败，必须发出同量 Release，最终库存恢复原值。
func TestCreateOrderCompensationOnCommitFailure(t *testing.T) {
	e := newEnv(100)
	e.flaky.failAcceptedSave = true

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 10})
	require.Error(t, err)
	assert.Equal(t, string(domain.StateReleased), result.Status)

	// reserve 之后跟着等量的 release，令牌派生自预占令牌
	require.Len(t, e.stocks.calls, 2)
	assert.Equal(t, "reserve", e.stocks.calls[0].op)
	assert.Equal(t, "release", e.stocks.calls[1].op)
	assert.Equal(t, e.stocks.calls[0].quantity, e.stocks.calls[1].quantity)
	assert.Equal(t, e.stocks.calls[0].token+"/release", e.stocks.calls[1].token)

	// 最终库存与预占前一致
	assert.Equal(t, 100, e.stocks.quantity)

	stored, err := e.repo.FindByOrderID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateReleased, stored.State)
}

func TestCreateOrderUsesProvidedCustomerID(t *testing.T) {
	e := newEnv(100)

	result, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 1, CustomerID: 77})
	require.NoError(t, err)
	assert.Equal(t, 77, result.CustomerID)
}

func TestGetOrderReportByDate(t *testing.T) {
	e := newEnv(100)

	_, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 1})
	require.NoError(t, err)

	now := time.Now()
	results, err := e.svc.GetOrderReportByDate(context.Background(), now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, results, 1)

	// 范围整体落在数据之外
	_, err = e.svc.GetOrderReportByDate(context.Background(), now.Add(24*time.Hour), now.Add(48*time.Hour))
	assert.ErrorIs(t, err, domain.ErrDateNotFound)

	// 终点早于起点
	_, err = e.svc.GetOrderReportByDate(context.Background(), now, now.Add(-time.Hour))
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOrderQueries(t *testing.T) {
	e := newEnv(100)

	r1, err := e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 1, CustomerID: 7})
	require.NoError(t, err)
	_, err = e.svc.CreateOrder(context.Background(), application.CreateOrderRequest{ProductID: 5, Quantity: 2, CustomerID: 8})
	require.NoError(t, err)

	byID, err := e.svc.GetByOrderID(context.Background(), r1.OrderID)
	require.NoError(t, err)
	assert.Equal(t, r1.OrderID, byID.OrderID)

	_, err = e.svc.GetByOrderID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	byCustomer, err := e.svc.GetByCustomerID(context.Background(), 7)
	require.NoError(t, err)
	assert.Len(t, byCustomer, 1)

	all, err := e.svc.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, e.svc.UpdateStatus(context.Background(), r1.OrderID, "FAILED"))
	updated, err := e.svc.GetByOrderID(context.Background(), r1.OrderID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StateFailed), updated.Status)
}
