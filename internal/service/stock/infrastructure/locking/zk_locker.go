// internal/service/stock/infrastructure/locking/zk_locker.go
package locking

import (
	"context"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/zookeeper"
)

// ZkLocker 用 ZooKeeper 分布式锁实现 port.Locker。
// 库存服务多实例共用一张表时启用，保证跨实例的按商品串行化。
type ZkLocker struct {
	conn *zookeeper.Conn
}

func NewZkLocker(conn *zookeeper.Conn) *ZkLocker {
	return &ZkLocker{conn: conn}
}

func (z *ZkLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := zookeeper.NewDistributedLock(z.conn, key)
	if err != nil {
		return nil, err
	}
	if err := lock.Lock(); err != nil {
		return nil, err
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to release zookeeper lock")
		}
	}, nil
}
