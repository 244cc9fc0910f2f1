// internal/pkg/zookeeper/conn.go
package zookeeper

import (
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 封装 ZooKeeper 连接，统一会话超时等参数。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。
func Connect(servers []string) (*Conn, error) {
	conn, _, err := zk.Connect(servers, 5*time.Second)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// EnsurePath 确保给定节点存在，已存在时静默返回。
func (c *Conn) EnsurePath(path string) error {
	_, err := c.Create(path, []byte{}, 0, zk.WorldACL(zk.PermAll))
	if err != nil && err != zk.ErrNodeExists {
		return err
	}
	return nil
}
