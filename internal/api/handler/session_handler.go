package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// SessionHandler 营业日模块 HTTP 处理器
type SessionHandler struct {
	sessionSvc service.SessionService
}

// NewSessionHandler 创建 SessionHandler
func NewSessionHandler(sessionSvc service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// GetCurrent 获取（必要时创建）指定日期的营业日
// GET /api/v1/sessions/current?date=YYYY-MM-DD
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	var req dto.CurrentSessionRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	session, err := h.sessionSvc.Resolve(c.Request.Context(), req.Date)
	if err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, session)
}

// ClearDay 清空营业日
// POST /api/v1/sessions/:id/clear
func (h *SessionHandler) ClearDay(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	if err := h.sessionSvc.ClearDay(c.Request.Context(), sessionID); err != nil {
		h.handleSessionError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleSessionError 统一处理营业日模块业务错误
func (h *SessionHandler) handleSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20002, "日期格式应为 YYYY-MM-DD")
	default:
		handleCommonError(c, err)
	}
}
