// internal/service/stock/application/service_test.go
package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/application"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/locking"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/infrastructure/rule"
)

// fakeRegistry 记录传播调用，可以按需注入失败。
type fakeRegistry struct {
	mu       sync.Mutex
	synced   map[int]int
	failSync bool
	rows     []domain.ImportRow
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{synced: make(map[int]int)}
}

func (f *fakeRegistry) SyncQuantity(_ context.Context, productID, newQuantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSync {
		return errors.New("product service unreachable")
	}
	f.synced[productID] = newQuantity
	return nil
}

func (f *fakeRegistry) FetchOverallStocks(_ context.Context) ([]domain.ImportRow, error) {
	return f.rows, nil
}

type fakeRepairQueue struct {
	mu     sync.Mutex
	events []int
}

func (f *fakeRepairQueue) EnqueueRepair(_ context.Context, productID, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, productID)
	return nil
}

type fixture struct {
	svc      *application.StockApplicationService
	repo     *infrastructure.MemoryStockRepository
	registry *fakeRegistry
	repair   *fakeRepairQueue
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := infrastructure.NewMemoryStockRepository()
	registry := newFakeRegistry()
	repair := &fakeRepairQueue{}
	lowRule, err := rule.NewCELReorderRule(rule.DefaultExpression)
	require.NoError(t, err)

	// 内存仓储同时承担账本与幂等记录两个角色
	svc := application.NewStockApplicationService(
		repo,
		repo,
		registry,
		repair,
		locking.NewKeyedMutex(),
		lowRule,
		otel.Tracer("stock-test"),
		20,
	)
	return &fixture{svc: svc, repo: repo, registry: registry, repair: repair}
}

func (f *fixture) seed(t *testing.T, productID, quantity int) {
	t.Helper()
	err := f.repo.Save(context.Background(), &domain.Stock{
		ProductID: productID, Name: "widget", Quantity: quantity, ReorderLevel: 20,
	})
	require.NoError(t, err)
}

func TestReserveDecrementsQuantity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	got, err := f.svc.Reserve(context.Background(), 1, 30, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 70, got)

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.Quantity)
	assert.False(t, stock.SyncPending)

	// 新数量已同步到商品目录
	assert.Equal(t, 70, f.registry.synced[1])
}

func TestReserveInsufficientStockLeavesLedgerUntouched(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 5)

	_, err := f.svc.Reserve(context.Background(), 1, 10, "tok-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stock.Quantity)
}

func TestReserveUnknownProduct(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reserve(context.Background(), 42, 1, "tok-1")
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}

func TestReserveRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 10)

	_, err := f.svc.Reserve(context.Background(), 1, 0, "tok-1")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	_, err = f.svc.Reserve(context.Background(), 1, -3, "tok-2")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestIdempotentRetryReturnsRecordedResult(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	first, err := f.svc.Reserve(context.Background(), 1, 30, "tok-retry")
	require.NoError(t, err)

	// 相同令牌重试：拿到首次的结果，账本不再扣减
	second, err := f.svc.Reserve(context.Background(), 1, 30, "tok-retry")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.Quantity)
}

// failingOnceStockRepo 让第一次带幂等记录的写入整体失败，
// 模拟账本变更与令牌记录落库时的事务回滚。
type failingOnceStockRepo struct {
	*infrastructure.MemoryStockRepository
	failed bool
}

func (r *failingOnceStockRepo) UpdateWithVersion(ctx context.Context, stock *domain.Stock, expectedVersion uint64, record *domain.ReservationRecord) error {
	if record != nil && !r.failed {
		r.failed = true
		return errors.New("transaction rolled back")
	}
	return r.MemoryStockRepository.UpdateWithVersion(ctx, stock, expectedVersion, record)
}

// TestRetryAfterFailedLedgerWriteDebitsOnce 校验写入失败后整体回滚：
// 账本没有被扣减、令牌没有留下记录，同令牌重试恰好扣减一次。
func TestRetryAfterFailedLedgerWriteDebitsOnce(t *testing.T) {
	repo := &failingOnceStockRepo{MemoryStockRepository: infrastructure.NewMemoryStockRepository()}
	lowRule, err := rule.NewCELReorderRule(rule.DefaultExpression)
	require.NoError(t, err)
	svc := application.NewStockApplicationService(
		repo, repo, newFakeRegistry(), &fakeRepairQueue{}, locking.NewKeyedMutex(),
		lowRule, otel.Tracer("stock-test"), 20,
	)
	require.NoError(t, repo.Save(context.Background(), &domain.Stock{
		ProductID: 1, Name: "widget", Quantity: 100, ReorderLevel: 20,
	}))

	_, err = svc.Reserve(context.Background(), 1, 30, "tok-crash")
	require.Error(t, err)

	stock, err := repo.FindByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 100, stock.Quantity)
	_, err = repo.FindByToken(context.Background(), "tok-crash")
	assert.ErrorIs(t, err, domain.ErrReservationNotFound)

	got, err := svc.Reserve(context.Background(), 1, 30, "tok-crash")
	require.NoError(t, err)
	assert.Equal(t, 70, got)

	stock, err = repo.FindByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.Quantity)
}

// TestConcurrentSameTokenDebitsOnce 用同一令牌并发重复请求：
// 全部成功且拿到同一结果，账本只扣减一次。
func TestConcurrentSameTokenDebitsOnce(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	const workers = 20
	results := make([]int, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			results[n], errs[n] = f.svc.Reserve(context.Background(), 1, 30, "tok-dup")
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, 70, results[i])
	}

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 70, stock.Quantity)
}

func TestTokenReuseWithDifferentArgsRejected(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	_, err := f.svc.Reserve(context.Background(), 1, 30, "tok-x")
	require.NoError(t, err)

	_, err = f.svc.Reserve(context.Background(), 1, 40, "tok-x")
	assert.ErrorIs(t, err, domain.ErrTokenReused)

	_, err = f.svc.Release(context.Background(), 1, 30, "tok-x")
	assert.ErrorIs(t, err, domain.ErrTokenReused)
}

func TestReleaseCompensatesReserve(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)

	_, err := f.svc.Reserve(context.Background(), 1, 30, "tok-1")
	require.NoError(t, err)

	got, err := f.svc.Release(context.Background(), 1, 30, "tok-1/release")
	require.NoError(t, err)
	assert.Equal(t, 100, got)
}

func TestRestockIncreasesQuantity(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 10)

	got, err := f.svc.Restock(context.Background(), 1, 25, "tok-restock")
	require.NoError(t, err)
	assert.Equal(t, 35, got)
}

// TestConcurrentReservesNeverOversell 用远超库存量的并发预留轰击同一商品，
// 校验成功数恰好等于初始库存、最终数量为零、绝不超卖。
func TestConcurrentReservesNeverOversell(t *testing.T) {
	f := newFixture(t)
	const initial = 50
	const workers = 200
	f.seed(t, 1, initial)

	var wg sync.WaitGroup
	var succeeded, rejected int64
	var mu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := f.svc.Reserve(context.Background(), 1, 1, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if errors.Is(err, domain.ErrInsufficientStock) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(initial), succeeded)
	assert.Equal(t, int64(workers-initial), rejected)

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stock.Quantity)
}

func TestPropagationFailureMarksSyncPending(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)
	f.registry.failSync = true

	// 传播失败不影响预留结果
	got, err := f.svc.Reserve(context.Background(), 1, 30, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 70, got)

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, stock.SyncPending)
	assert.Equal(t, []int{1}, f.repair.events)
}

func TestRepairSyncClearsPendingFlag(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 100)
	f.registry.failSync = true

	_, err := f.svc.Reserve(context.Background(), 1, 30, "tok-1")
	require.NoError(t, err)

	f.registry.failSync = false
	require.NoError(t, f.svc.RepairSync(context.Background(), 1))

	stock, err := f.svc.GetStockByProductID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, stock.SyncPending)
	assert.Equal(t, 70, f.registry.synced[1])

	// 标记已清除时重复修复是空操作
	require.NoError(t, f.svc.RepairSync(context.Background(), 1))
}

func TestGetLowStockItems(t *testing.T) {
	f := newFixture(t)
	f.seed(t, 1, 5)   // 低于补货线
	f.seed(t, 2, 20)  // 等于补货线，同样命中
	f.seed(t, 3, 500) // 充足

	low, err := f.svc.GetLowStockItems(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, 1, low[0].ProductID)
	assert.Equal(t, 2, low[1].ProductID)
}

func TestSaveStockAppliesDefaultReorderLevel(t *testing.T) {
	f := newFixture(t)
	err := f.svc.SaveStock(context.Background(), domain.ImportRow{ProductID: 7, Name: "gear", Quantity: 40})
	require.NoError(t, err)

	stock, err := f.svc.GetStockByProductID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 20, stock.ReorderLevel)
	assert.Equal(t, 40, stock.Quantity)

	err = f.svc.SaveStock(context.Background(), domain.ImportRow{ProductID: 8, Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestImportFromProducts(t *testing.T) {
	f := newFixture(t)
	f.registry.rows = []domain.ImportRow{
		{ProductID: 1, Name: "widget", Quantity: 10},
		{ProductID: 2, Name: "gadget", Quantity: 30},
	}

	count, err := f.svc.ImportFromProducts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := f.repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
