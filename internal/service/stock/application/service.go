// internal/service/stock/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/metrics"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain/port"
)

// maxCASAttempts 是乐观锁冲突后的最大重读次数。
// 正常情况下按键互斥锁已经把同商品的变更串行化，这里只在
// 多实例共用一张表、且没有启用分布式锁时才会真的冲突。
const maxCASAttempts = 5

// StockApplicationService 维护库存账本并驱动双账本同步。
type StockApplicationService struct {
	repo         domain.StockRepository
	reservations domain.ReservationRepository
	products     port.ProductRegistry
	repair       port.RepairQueue
	locker       port.Locker
	rule         port.ReorderRule
	tracer       trace.Tracer

	defaultReorderLevel int
}

func NewStockApplicationService(
	repo domain.StockRepository,
	reservations domain.ReservationRepository,
	products port.ProductRegistry,
	repair port.RepairQueue,
	locker port.Locker,
	rule port.ReorderRule,
	tracer trace.Tracer,
	defaultReorderLevel int,
) *StockApplicationService {
	return &StockApplicationService{
		repo: repo, reservations: reservations, products: products,
		repair: repair, locker: locker, rule: rule, tracer: tracer,
		defaultReorderLevel: defaultReorderLevel,
	}
}

// Reserve 为订单预占库存：quantity -= amount。
// 相同令牌的重试返回首次生效的结果，不会二次扣减。
func (s *StockApplicationService) Reserve(ctx context.Context, productID, amount int, token string) (int, error) {
	return s.mutate(ctx, productID, amount, token, domain.OpReserve)
}

// Release 是 Reserve 的补偿操作：quantity += amount。
func (s *StockApplicationService) Release(ctx context.Context, productID, amount int, token string) (int, error) {
	return s.mutate(ctx, productID, amount, token, domain.OpRelease)
}

// Restock 增加库存（补货）。
func (s *StockApplicationService) Restock(ctx context.Context, productID, amount int, token string) (int, error) {
	return s.mutate(ctx, productID, amount, token, domain.OpRestock)
}

// mutate 是三种账本变更共用的执行路径：
// 幂等检查 → 按商品加锁 → 锁内复查令牌 → 乐观锁写入（连带幂等记录）→
// 向商品服务传播。
func (s *StockApplicationService) mutate(ctx context.Context, productID, amount int, token string, op domain.OpKind) (int, error) {
	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("stock.%s", op))
	defer span.End()
	span.SetAttributes(
		attribute.Int("product.id", productID),
		attribute.Int("stock.amount", amount),
		attribute.String("stock.op", string(op)),
	)

	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}

	// 1. 锁外的幂等快路径：令牌已生效则直接返回记录的结果，
	//    超时重试的调用方不参与锁竞争就能拿到与首次一致的应答。
	if token != "" {
		newQuantity, replayed, err := s.lookupToken(ctx, token, productID, amount, op)
		if err != nil {
			return 0, err
		}
		if replayed {
			span.AddEvent("idempotent replay, returning recorded result")
			return newQuantity, nil
		}
	}

	// 2. 锁内完成复查与读-校验-写；传播放在锁外，锁绝不跨出站调用。
	newQuantity, replayed, err := s.applyLedgerChange(ctx, productID, amount, token, op)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if replayed {
		span.AddEvent("idempotent replay, returning recorded result")
		return newQuantity, nil
	}

	// 3. 先本地落库、后对外传播：预留结果绝不丢失，传播失败走修复通道。
	s.propagate(ctx, productID, newQuantity)

	return newQuantity, nil
}

// lookupToken 查令牌记录。命中时 replayed 为 true 并返回记录的结果，
// 参数不一致则判为令牌复用。
func (s *StockApplicationService) lookupToken(ctx context.Context, token string, productID, amount int, op domain.OpKind) (int, bool, error) {
	rec, err := s.reservations.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if !rec.Matches(productID, op, amount) {
		return 0, false, domain.ErrTokenReused
	}
	return rec.NewQuantity, true, nil
}

// applyLedgerChange 在按商品的互斥锁内执行乐观锁写入。
// 锁把同商品的变更串行化；版本号是多实例（未启用分布式锁）下的
// 最后一道正确性防线，冲突时重读重算。幂等记录连同账本变更
// 一起交给仓储原子落库：记录写不进去，扣减也不生效。
func (s *StockApplicationService) applyLedgerChange(ctx context.Context, productID, amount int, token string, op domain.OpKind) (int, bool, error) {
	release, err := s.locker.Acquire(ctx, fmt.Sprintf("product-%d", productID))
	if err != nil {
		return 0, false, fmt.Errorf("failed to lock product %d: %w", productID, err)
	}
	defer release()

	// 锁内复查令牌：关掉快路径查完、锁拿到之前并发重复请求的竞态窗口。
	if token != "" {
		newQuantity, replayed, err := s.lookupToken(ctx, token, productID, amount, op)
		if err != nil || replayed {
			return newQuantity, replayed, err
		}
	}

	for attempt := 0; ; attempt++ {
		stock, err := s.repo.FindByProductID(ctx, productID)
		if err != nil {
			return 0, false, err
		}

		expectedVersion := stock.Version
		newQuantity, err := stock.Apply(op, amount)
		if err != nil {
			return 0, false, err
		}
		stock.SyncPending = false

		var rec *domain.ReservationRecord
		if token != "" {
			rec = &domain.ReservationRecord{
				Token: token, ProductID: productID, Op: op,
				Amount: amount, NewQuantity: newQuantity, AppliedAt: time.Now(),
			}
		}

		err = s.repo.UpdateWithVersion(ctx, stock, expectedVersion, rec)
		if err == nil {
			return newQuantity, false, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return 0, false, err
		}
		metrics.ReservationConflicts.Inc()
		if attempt+1 >= maxCASAttempts {
			return 0, false, err
		}
	}
}

// propagate 把新数量推给商品服务。失败时落下 SyncPending 标记并进修复队列，
// 不向调用方报错：账本是权威，目录副本允许短暂落后。
func (s *StockApplicationService) propagate(ctx context.Context, productID, newQuantity int) {
	ctx, span := s.tracer.Start(ctx, "stock.SyncQuantity")
	defer span.End()

	if err := s.products.SyncQuantity(ctx, productID, newQuantity); err != nil {
		metrics.StockSyncFailures.Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "propagation to product registry failed")
		logger.Ctx(ctx).Warn().Err(err).Int("productId", productID).Int("quantity", newQuantity).
			Msg("quantity propagation failed, marking SyncPending")

		if err := s.repo.MarkSyncPending(ctx, productID, true); err != nil {
			logger.Ctx(ctx).Error().Err(err).Int("productId", productID).
				Msg("failed to mark stock row as SyncPending")
		}
		if err := s.repair.EnqueueRepair(ctx, productID, newQuantity); err != nil {
			// SyncPending 标记已落库，扫表修复仍然可以兜底
			logger.Ctx(ctx).Warn().Err(err).Int("productId", productID).
				Msg("failed to enqueue sync repair event")
		}
	}
}

// RepairSync 重新推送一行的数量，由修复消费者或扫表任务驱动。
func (s *StockApplicationService) RepairSync(ctx context.Context, productID int) error {
	ctx, span := s.tracer.Start(ctx, "stock.RepairSync")
	defer span.End()

	stock, err := s.repo.FindByProductID(ctx, productID)
	if err != nil {
		return err
	}
	if !stock.SyncPending {
		return nil
	}
	if err := s.products.SyncQuantity(ctx, productID, stock.Quantity); err != nil {
		metrics.StockSyncFailures.Inc()
		return err
	}
	return s.repo.MarkSyncPending(ctx, productID, false)
}

// GetStockByProductID 返回单行库存。
func (s *StockApplicationService) GetStockByProductID(ctx context.Context, productID int) (*domain.Stock, error) {
	return s.repo.FindByProductID(ctx, productID)
}

// GetLowStockItems 返回所有命中低库存规则的行。纯读操作，没有一致性要求。
func (s *StockApplicationService) GetLowStockItems(ctx context.Context) ([]*domain.Stock, error) {
	ctx, span := s.tracer.Start(ctx, "stock.GetLowStockItems")
	defer span.End()

	stocks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	low := make([]*domain.Stock, 0)
	for _, st := range stocks {
		hit, err := s.rule.IsLow(st.Quantity, st.ReorderLevel)
		if err != nil {
			return nil, fmt.Errorf("low-stock rule evaluation failed: %w", err)
		}
		if hit {
			low = append(low, st)
		}
	}
	return low, nil
}

// SaveStock 创建或覆盖一行库存，商品服务播种新商品时调用。
func (s *StockApplicationService) SaveStock(ctx context.Context, row domain.ImportRow) error {
	if row.Quantity < 0 {
		return domain.ErrInvalidAmount
	}
	stock := &domain.Stock{
		ProductID:    row.ProductID,
		Name:         row.Name,
		Quantity:     row.Quantity,
		ReorderLevel: s.defaultReorderLevel,
	}
	return s.repo.Save(ctx, stock)
}

// ImportFromProducts 从商品服务拉取全量视图并批量建立影子库存行。
func (s *StockApplicationService) ImportFromProducts(ctx context.Context) (int, error) {
	ctx, span := s.tracer.Start(ctx, "stock.ImportFromProducts")
	defer span.End()

	rows, err := s.products.FetchOverallStocks(ctx)
	if err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := s.SaveStock(ctx, row); err != nil {
			return 0, fmt.Errorf("import stock row for product %d: %w", row.ProductID, err)
		}
	}
	return len(rows), nil
}
