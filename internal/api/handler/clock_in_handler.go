package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// ClockInHandler 打卡模块 HTTP 处理器
type ClockInHandler struct {
	clockInSvc service.ClockInService
}

// NewClockInHandler 创建 ClockInHandler
func NewClockInHandler(clockInSvc service.ClockInService) *ClockInHandler {
	return &ClockInHandler{clockInSvc: clockInSvc}
}

// ClockIn 技师打卡
// POST /api/v1/sessions/:id/clock-ins
func (h *ClockInHandler) ClockIn(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.clockInSvc.ClockIn(c.Request.Context(), sessionID, req.EmployeeID)
	if err != nil {
		h.handleClockInError(c, err)
		return
	}

	response.Created(c, result)
}

// ClockOut 技师签退
// POST /api/v1/sessions/:id/clock-outs
func (h *ClockInHandler) ClockOut(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.ClockInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.clockInSvc.ClockOut(c.Request.Context(), sessionID, req.EmployeeID)
	if err != nil {
		h.handleClockInError(c, err)
		return
	}

	response.OK(c, result)
}

// handleClockInError 统一处理打卡模块业务错误
func (h *ClockInHandler) handleClockInError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEmployeeNotFound):
		response.NotFound(c, 21001, "技师不存在")
	case errors.Is(err, service.ErrAlreadyClockedIn):
		response.Conflict(c, 21002, "技师已在岗")
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 21003, "技师未打卡")
	default:
		handleCommonError(c, err)
	}
}
