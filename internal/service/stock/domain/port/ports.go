// internal/service/stock/domain/port/ports.go
package port

import (
	"context"

	"github.com/Adhilc/InventoryManagementSystem/internal/service/stock/domain"
)

// ProductRegistry 是库存服务的出站端口：把账本数量同步回商品目录，
// 以及批量导入时拉取商品全量视图。
type ProductRegistry interface {
	SyncQuantity(ctx context.Context, productID, newQuantity int) error
	FetchOverallStocks(ctx context.Context) ([]domain.ImportRow, error)
}

// RepairQueue 是传播失败后的修复队列。入队失败只记录日志：
// SyncPending 标记还在库存行上，修复流程总能通过扫表兜底。
type RepairQueue interface {
	EnqueueRepair(ctx context.Context, productID, quantity int) error
}

// Locker 对同一商品的数量变更做互斥。
// 单实例部署用进程内的按键互斥锁即可，多实例部署换成 ZooKeeper 实现。
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// ReorderRule 判定一条库存行是否处于低库存状态。
type ReorderRule interface {
	IsLow(quantity, reorderLevel int) (bool, error)
}
