// Package realtime 将看板变更推送给同一营业日的所有终端，并经 Redis 在多实例间同步
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// 变更涉及的数据表
const (
	TableTurns    = "turns"
	TableClockIns = "clock_ins"
	TableSession  = "session"
	TableUndo     = "undo"
	TableSkips    = "skips"
)

// Event 一次看板变更通知，不携带数据，终端收到后自行刷新
type Event struct {
	SessionID string    `json:"session_id"`
	Table     string    `json:"table"`
	Op        string    `json:"op"`
	At        time.Time `json:"at"`
	Origin    string    `json:"origin"`
}

// Broker 跨实例广播，*redis.Client 实现该接口
type Broker interface {
	PublishChange(ctx context.Context, payload []byte) error
	SubscribeChanges(ctx context.Context, handler func(payload []byte)) error
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 16
)

type client struct {
	conn      *websocket.Conn
	sessionID string
	send      chan []byte
}

// Hub 管理 WebSocket 连接，按营业日分组推送
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	broker   Broker
	origin   string
	onRemote func(Event)
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub 创建 Hub；broker 为 nil 时只在本进程内推送
func NewHub(broker Broker, logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		broker:  broker,
		origin:  uuid.NewString(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// OnRemoteChange 注册其他实例产生变更时的回调（用于使本地快照失效）
func (h *Hub) OnRemoteChange(fn func(Event)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRemote = fn
}

// Notify 广播一次本地变更
func (h *Hub) Notify(ctx context.Context, sessionID, table, op string) {
	ev := Event{SessionID: sessionID, Table: table, Op: op, At: time.Now(), Origin: h.origin}
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("序列化变更通知失败", zap.Error(err))
		return
	}

	h.broadcast(sessionID, payload)

	if h.broker != nil {
		if err := h.broker.PublishChange(ctx, payload); err != nil {
			h.logger.Warn("发布变更通知失败", zap.String("session_id", sessionID), zap.Error(err))
		}
	}
}

// Run 订阅其他实例的变更直到 ctx 取消；未配置 broker 时直接等待 ctx 结束
func (h *Hub) Run(ctx context.Context) error {
	if h.broker == nil {
		<-ctx.Done()
		return nil
	}
	return h.broker.SubscribeChanges(ctx, h.handleRemote)
}

func (h *Hub) handleRemote(payload []byte) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		h.logger.Warn("无法解析变更通知", zap.Error(err))
		return
	}
	if ev.Origin == h.origin {
		return
	}

	h.mu.RLock()
	fn := h.onRemote
	h.mu.RUnlock()
	if fn != nil {
		fn(ev)
	}
	h.broadcast(ev.SessionID, payload)
}

func (h *Hub) broadcast(sessionID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.sessionID != sessionID {
			continue
		}
		select {
		case c.send <- payload:
		default:
			// 慢连接丢弃本次通知，终端下次通知时会整体刷新
			h.logger.Debug("连接发送缓冲已满，丢弃通知", zap.String("session_id", sessionID))
		}
	}
}

// ClientCount 当前连接数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS 升级为 WebSocket 连接并订阅指定营业日的变更，连接断开后返回
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &client{conn: conn, sessionID: sessionID, send: make(chan []byte, sendBuffer)}
	h.register(c)
	defer h.unregister(c)

	go h.writeLoop(c)
	h.readLoop(c)
	return nil
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// readLoop 只处理控制帧，终端不通过 WebSocket 写入
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
