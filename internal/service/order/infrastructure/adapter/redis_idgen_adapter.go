// internal/service/order/infrastructure/adapter/redis_idgen_adapter.go
package adapter

import (
	"context"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/redis"
)

// customerIDKey 是客户编号序列在 Redis 中的 key。
const customerIDKey = "customer_id_seq"

// RedisCustomerIDAdapter 用 Redis 序列签发客户编号，
// 实现 port.CustomerIDGenerator。
type RedisCustomerIDAdapter struct {
	seq *redis.Sequence
}

func NewRedisCustomerIDAdapter(client *redis.Client) *RedisCustomerIDAdapter {
	return &RedisCustomerIDAdapter{seq: redis.NewSequence(client, customerIDKey)}
}

func (a *RedisCustomerIDAdapter) NextCustomerID(ctx context.Context) (int, error) {
	v, err := a.seq.Next(ctx)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}
