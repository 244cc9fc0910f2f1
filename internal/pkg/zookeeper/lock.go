// internal/pkg/zookeeper/lock.go
package zookeeper

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-zookeeper/zk"
)

const lockRoot = "/inventory_locks"

// DistributedLock 是基于临时顺序节点的分布式互斥锁。
// 库存服务多实例部署时，用它保证同一商品的数量变更串行化。
type DistributedLock struct {
	conn     *Conn
	path     string // 锁目录，例如 /inventory_locks/product-42
	lockNode string // 成功抢锁后自己创建的节点
}

// NewDistributedLock 为给定资源创建一个锁实例。
func NewDistributedLock(conn *Conn, resourceID string) (*DistributedLock, error) {
	if err := conn.EnsurePath(lockRoot); err != nil {
		return nil, fmt.Errorf("failed to create lock root node: %w", err)
	}
	lockPath := lockRoot + "/" + resourceID
	if err := conn.EnsurePath(lockPath); err != nil {
		return nil, fmt.Errorf("failed to create lock path node %s: %w", lockPath, err)
	}
	return &DistributedLock{conn: conn, path: lockPath}, nil
}

// Lock 尝试获取锁，获取不到时阻塞等待，直到轮到自己或会话出错。
func (l *DistributedLock) Lock() error {
	// 1. 创建临时顺序节点
	nodePath, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return fmt.Errorf("failed to create sequential node: %w", err)
	}
	l.lockNode = nodePath

	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return fmt.Errorf("failed to get children nodes: %w", err)
		}
		sort.Strings(children)

		// 2. 自己是最小节点则持有锁
		myNodeName := strings.TrimPrefix(l.lockNode, l.path+"/")
		idx := sort.SearchStrings(children, myNodeName)
		if idx >= len(children) || children[idx] != myNodeName {
			return errors.New("own lock node disappeared, session may have expired")
		}
		if idx == 0 {
			return nil
		}

		// 3. 否则监听前一个节点的删除事件，避免惊群
		prevNode := l.path + "/" + children[idx-1]
		exists, _, ch, err := l.conn.ExistsW(prevNode)
		if err != nil {
			return fmt.Errorf("failed to watch previous node: %w", err)
		}
		if !exists {
			continue // 前驱已释放，重新检查排位
		}
		ev := <-ch
		if ev.Err != nil {
			return fmt.Errorf("watch on previous node failed: %w", ev.Err)
		}
	}
}

// Unlock 释放锁，删除自己创建的节点。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return errors.New("unlock called without holding the lock")
	}
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return fmt.Errorf("failed to delete lock node: %w", err)
	}
	return nil
}
