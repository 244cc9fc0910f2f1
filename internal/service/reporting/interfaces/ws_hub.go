// internal/service/reporting/interfaces/ws_hub.go
package interfaces

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Adhilc/InventoryManagementSystem/internal/pkg/logger"
	"github.com/Adhilc/InventoryManagementSystem/internal/service/reporting/application"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool { // 简化处理，允许所有跨域
		return true
	},
}

// Hub 维护所有活跃的低库存订阅连接，并负责消息广播。
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	lock       sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 16),
	}
}

// Run 驱动 Hub 的注册/注销与广播循环，ctx 取消时退出并关闭所有连接。
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.lock.Lock()
			h.clients[client] = true
			h.lock.Unlock()
		case client := <-h.unregister:
			h.lock.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.lock.Unlock()
		case message := <-h.broadcast:
			h.lock.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// 写入积压的连接直接放弃这条消息
				}
			}
			h.lock.RUnlock()
		case <-ctx.Done():
			h.lock.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
			}
			h.clients = make(map[*Client]bool)
			h.lock.Unlock()
			return
		}
	}
}

// Broadcast 把一条消息推给所有在线连接。
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
	}
}

// Client 是一个 WebSocket 连接的代表。
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump 只负责消费控制帧并感知断连。
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ServeWS 把 HTTP 请求升级为 WebSocket 并注册到 Hub。
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{hub: h, conn: conn, send: make(chan []byte, 256)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// LowStockFeed 周期性拉取低库存报表并广播给所有订阅者。
type LowStockFeed struct {
	service  *application.ReportingApplicationService
	hub      *Hub
	interval time.Duration
}

func NewLowStockFeed(service *application.ReportingApplicationService, hub *Hub, interval time.Duration) *LowStockFeed {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &LowStockFeed{service: service, hub: hub, interval: interval}
}

// Run 阻塞运行直到 ctx 取消。拉取失败只记录，下一个周期重试。
func (f *LowStockFeed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rows, err := f.service.GetLowStocks(ctx)
			if err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("low-stock feed poll failed")
				continue
			}
			payload, err := json.Marshal(rows)
			if err != nil {
				continue
			}
			f.hub.Broadcast(payload)
		case <-ctx.Done():
			return
		}
	}
}
