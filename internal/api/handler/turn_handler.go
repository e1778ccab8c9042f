package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// TurnHandler 轮次模块 HTTP 处理器
type TurnHandler struct {
	turnSvc service.TurnService
}

// NewTurnHandler 创建 TurnHandler
func NewTurnHandler(turnSvc service.TurnService) *TurnHandler {
	return &TurnHandler{turnSvc: turnSvc}
}

// Assign 指定技师派单
// POST /api/v1/sessions/:id/turns
func (h *TurnHandler) Assign(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.AssignTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.turnSvc.Assign(c.Request.Context(), sessionID, req.EmployeeID, req.ServiceID)
	if err != nil {
		h.handleTurnError(c, err)
		return
	}

	response.Created(c, result)
}

// QuickAssign 派给排队中的下一位技师
// POST /api/v1/sessions/:id/turns/quick
func (h *TurnHandler) QuickAssign(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}

	var req dto.QuickAssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.turnSvc.QuickAssign(c.Request.Context(), sessionID, req.ServiceID)
	if err != nil {
		h.handleTurnError(c, err)
		return
	}

	response.Created(c, result)
}

// Complete 完成轮次
// POST /api/v1/sessions/:id/turns/:turnId/complete
func (h *TurnHandler) Complete(c *gin.Context) {
	sessionID, ok := MustGetSessionID(c)
	if !ok {
		return
	}
	turnID, ok := mustGetParam(c, "turnId", "轮次ID不能为空")
	if !ok {
		return
	}

	result, err := h.turnSvc.Complete(c.Request.Context(), sessionID, turnID)
	if err != nil {
		h.handleTurnError(c, err)
		return
	}

	response.OK(c, result)
}

// handleTurnError 统一处理轮次模块业务错误
func (h *TurnHandler) handleTurnError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrServiceNotFound):
		response.NotFound(c, 22001, "服务项目不存在")
	case errors.Is(err, service.ErrTurnNotFound):
		response.NotFound(c, 22002, "轮次记录不存在")
	case errors.Is(err, service.ErrNotClockedIn):
		response.Conflict(c, 21003, "技师未打卡")
	case errors.Is(err, service.ErrTechnicianBusy):
		response.Conflict(c, 22003, "技师正在服务中")
	case errors.Is(err, service.ErrNoAvailableTechnician):
		response.Conflict(c, 22004, "当前没有可接单的技师")
	case errors.Is(err, service.ErrTurnNotInProgress):
		response.Conflict(c, 22005, "该轮次不在进行中")
	default:
		handleCommonError(c, err)
	}
}
