// internal/pkg/redis/client.go
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 客户端，平台内只通过这里访问 Redis。
type Client struct {
	rdb *goredis.Client
}

// NewClient 创建客户端并做一次连通性探测。
func NewClient(ctx context.Context, addr string) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Client{rdb: rdb}, nil
}

// Incr 对指定 key 做原子自增并返回新值。
func (c *Client) Incr(ctx context.Context, key string) (int64, error) {
	return c.rdb.Incr(ctx, key).Result()
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Sequence 是基于 Redis INCR 的持久化单调序列。
// 进程内计数器在多实例部署下会产生重复 ID，这里把序列源放到外部存储，
// 所有实例共享同一个计数。
type Sequence struct {
	client *Client
	key    string
}

// NewSequence 创建一个以 key 命名的序列。
func NewSequence(client *Client, key string) *Sequence {
	return &Sequence{client: client, key: key}
}

// Next 返回序列的下一个值。并发调用安全，Redis 侧保证原子性。
func (s *Sequence) Next(ctx context.Context) (int64, error) {
	v, err := s.client.Incr(ctx, s.key)
	if err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", s.key, err)
	}
	return v, nil
}
