package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// UndoHandler 撤销模块 HTTP 处理器
type UndoHandler struct {
	undoSvc service.UndoService
}

// NewUndoHandler 创建 UndoHandler
func NewUndoHandler(undoSvc service.UndoService) *UndoHandler {
	return &UndoHandler{undoSvc: undoSvc}
}

// ListHistory 获取撤销历史，最新在前
// GET /api/v1/sessions/:id/undo
func (h *UndoHandler) ListHistory(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	history, err := h.undoSvc.List(c.Request.Context(), sessionID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": history})
}

// Perform 执行撤销。
// 被阻止、已失效等情况仍返回结构化结果 {success, blocked, message}
// POST /api/v1/sessions/:id/undo/:actionId
func (h *UndoHandler) Perform(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	actionID, ok := mustGetParam(c, "actionId", "撤销记录ID不能为空")
	if !ok {
		return
	}

	result, err := h.undoSvc.Perform(c.Request.Context(), sessionID, actionID)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	switch {
	case result.Success:
		response.OK(c, result)
	case result.Blocked:
		response.ErrorWithData(c, http.StatusConflict, 24002, result.Message, result)
	case result.Action == nil:
		response.ErrorWithData(c, http.StatusNotFound, 24001, result.Message, result)
	default:
		response.ErrorWithData(c, http.StatusConflict, 24003, result.Message, result)
	}
}
