package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// BoardHandler 看板模块 HTTP 处理器（排队、轮次网格、跳过、刷新）
type BoardHandler struct {
	boardSvc service.BoardService
}

// NewBoardHandler 创建 BoardHandler
func NewBoardHandler(boardSvc service.BoardService) *BoardHandler {
	return &BoardHandler{boardSvc: boardSvc}
}

// GetQueue 获取排队
// GET /api/v1/sessions/:id/queue
func (h *BoardHandler) GetQueue(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	queue, err := h.boardSvc.Queue(c.Request.Context(), sessionID)
	if err != nil {
		h.handleBoardError(c, err)
		return
	}

	response.OK(c, queue)
}

// GetGrid 获取轮次网格
// GET /api/v1/sessions/:id/grid?rows=N
func (h *BoardHandler) GetGrid(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.GridRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	grid, err := h.boardSvc.Grid(c.Request.Context(), sessionID, req.Rows)
	if err != nil {
		h.handleBoardError(c, err)
		return
	}

	response.OK(c, grid)
}

// Skip 将技师设为跳过
// POST /api/v1/sessions/:id/skips/:employeeId
func (h *BoardHandler) Skip(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	employeeID, ok := mustGetParam(c, "employeeId", "技师ID不能为空")
	if !ok {
		return
	}

	// 请求体可省略
	var req dto.SkipRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.boardSvc.Skip(c.Request.Context(), sessionID, employeeID, req.Reason)
	if err != nil {
		h.handleBoardError(c, err)
		return
	}

	response.OK(c, result)
}

// Unskip 取消跳过
// DELETE /api/v1/sessions/:id/skips/:employeeId
func (h *BoardHandler) Unskip(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	employeeID, ok := mustGetParam(c, "employeeId", "技师ID不能为空")
	if !ok {
		return
	}

	result, err := h.boardSvc.Unskip(c.Request.Context(), sessionID, employeeID)
	if err != nil {
		h.handleBoardError(c, err)
		return
	}

	response.OK(c, result)
}

// Refresh 从存储重新加载看板快照
// POST /api/v1/sessions/:id/refresh
func (h *BoardHandler) Refresh(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	if err := h.boardSvc.Refresh(c.Request.Context(), sessionID, req.Aggregate); err != nil {
		h.handleBoardError(c, err)
		return
	}

	response.OK(c, nil)
}

// handleBoardError 统一处理看板模块业务错误
func (h *BoardHandler) handleBoardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 21003, "技师未打卡")
	case errors.Is(err, service.ErrInvalidAggregate):
		response.BadRequest(c, 23001, "刷新范围应为 clock_ins、turns 或 all")
	default:
		handleCommonError(c, err)
	}
}
