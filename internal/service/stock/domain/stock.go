// internal/service/stock/domain/stock.go
package domain

import (
	"errors"
	"time"
)

var (
	// ErrStockNotFound 表示该商品没有库存行。
	ErrStockNotFound = errors.New("stock not found")
	// ErrInsufficientStock 表示现有数量不足以完成预留。
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidAmount 表示变更数量必须为正数。
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrVersionConflict 表示乐观锁版本冲突，调用方应重读后重试。
	ErrVersionConflict = errors.New("stock version conflict")
	// ErrTokenReused 表示同一幂等令牌被用于不同的请求参数。
	ErrTokenReused = errors.New("idempotency token reused with different arguments")
	// ErrReservationNotFound 表示幂等令牌没有对应的已生效记录。
	ErrReservationNotFound = errors.New("reservation record not found")
)

// Stock 是库存账本的聚合根。Quantity 是预留决策的权威计数；
// 商品服务的 stockLevel 只是它的同步副本。
// SyncPending 在本地变更已落库、但向商品服务传播失败时置位，
// 等待后台修复流程重新推送。
type Stock struct {
	ProductID    int
	Name         string
	Quantity     int
	ReorderLevel int
	SyncPending  bool
	// Version 是乐观并发控制的版本号，每次数量变更加一。
	Version uint64
}

// OpKind 标识一次账本变更的类型。
type OpKind string

const (
	OpReserve OpKind = "RESERVE"
	OpRelease OpKind = "RELEASE"
	OpRestock OpKind = "RESTOCK"
)

// Apply 在内存副本上执行一次变更并返回新数量。
// 读-校验-写的并发保护由仓储层的版本号与调用方的锁共同承担。
func (s *Stock) Apply(op OpKind, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	switch op {
	case OpReserve:
		if s.Quantity < amount {
			return 0, ErrInsufficientStock
		}
		s.Quantity -= amount
	case OpRelease, OpRestock:
		s.Quantity += amount
	default:
		return 0, errors.New("unknown stock operation: " + string(op))
	}
	return s.Quantity, nil
}

// ReservationRecord 是幂等令牌的生效记录。
// 相同令牌的重试直接返回记录里的结果，不再变更账本。
type ReservationRecord struct {
	Token       string
	ProductID   int
	Op          OpKind
	Amount      int
	NewQuantity int
	AppliedAt   time.Time
}

// Matches 判断一次请求与已生效记录是否为同一操作。
func (r *ReservationRecord) Matches(productID int, op OpKind, amount int) bool {
	return r.ProductID == productID && r.Op == op && r.Amount == amount
}

// ImportRow 是从商品服务批量导入库存行时的条目。
type ImportRow struct {
	ProductID int    `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}
