package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Streamer 看板变更推送，realtime.Hub 实现该接口
type Streamer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error
}

// StreamHandler 看板变更 WebSocket 处理器
type StreamHandler struct {
	streamer Streamer
}

// NewStreamHandler 创建 StreamHandler
func NewStreamHandler(streamer Streamer) *StreamHandler {
	return &StreamHandler{streamer: streamer}
}

// Subscribe 升级为 WebSocket 并推送该营业日的变更事件
// GET /api/v1/sessions/:id/ws
func (h *StreamHandler) Subscribe(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	// 升级失败时 upgrader 已写入响应
	if err := h.streamer.ServeWS(c.Writer, c.Request, sessionID); err != nil {
		_ = c.Error(err)
	}
}
