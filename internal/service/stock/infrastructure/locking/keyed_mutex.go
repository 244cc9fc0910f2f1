// internal/service/stock/infrastructure/locking/keyed_mutex.go
package locking

import (
	"context"
	"sync"
)

// KeyedMutex 是进程内的按键互斥锁，实现 port.Locker。
// 每个商品一把锁，锁对象只增不减：键空间就是商品数，量级可控。
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Acquire 获取 key 对应的锁。等待锁期间不响应 ctx 取消：
// 临界区内没有阻塞调用，持锁时间有界。
func (m *KeyedMutex) Acquire(_ context.Context, key string) (func(), error) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock, nil
}
