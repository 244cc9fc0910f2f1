// internal/service/stock/domain/repository.go
package domain

import "context"

// StockRepository 定义库存账本的持久化接口。
type StockRepository interface {
	FindByProductID(ctx context.Context, productID int) (*Stock, error)
	// Save 无条件写入（创建或覆盖），用于播种与批量导入。
	Save(ctx context.Context, stock *Stock) error
	// UpdateWithVersion 以乐观锁语义写入：只有当行的当前版本等于
	// expectedVersion 时才生效并把版本加一，否则返回 ErrVersionConflict。
	// record 非 nil 时在同一事务里保存幂等记录，账本变更与令牌记录
	// 要么一起生效、要么一起回滚，超时重试绝不二次扣减。
	UpdateWithVersion(ctx context.Context, stock *Stock, expectedVersion uint64, record *ReservationRecord) error
	FindAll(ctx context.Context) ([]*Stock, error)
	// MarkSyncPending 设置或清除传播失败标记。
	MarkSyncPending(ctx context.Context, productID int, pending bool) error
	// FindSyncPending 返回所有等待修复的库存行，供后台修复流程使用。
	FindSyncPending(ctx context.Context) ([]*Stock, error)
}

// ReservationRepository 定义幂等令牌记录的读取接口。
// 记录的写入跟随账本变更走 StockRepository.UpdateWithVersion 的事务。
type ReservationRepository interface {
	// FindByToken 查找令牌对应的生效记录，不存在时返回 ErrReservationNotFound。
	FindByToken(ctx context.Context, token string) (*ReservationRecord, error)
}
