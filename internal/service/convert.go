package service

import (
	"github.com/NotKhoa03/salon-turn-system/internal/dto"
	"github.com/NotKhoa03/salon-turn-system/internal/engine"
	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

func toTurnResponse(t *model.Turn) dto.TurnResponse {
	resp := dto.TurnResponse{
		ID:               t.ID,
		SessionID:        t.SessionID,
		EmployeeID:       t.EmployeeID,
		EmployeeName:     employeeName(t.Employee),
		ServiceID:        t.ServiceID,
		TurnNumber:       t.TurnNumber,
		IsHalfTurn:       t.IsHalfTurn,
		Status:           string(t.Status),
		PairedWithTurnID: t.PairedWithTurnID,
		StartedAt:        formatTime(t.StartedAt),
		CompletedAt:      formatTimePtr(t.CompletedAt),
	}
	if t.Service != nil {
		resp.ServiceName = t.Service.Name
		resp.Price = t.Service.Price
	}
	return resp
}

func toClockInResponse(c *model.ClockIn) dto.ClockInResponse {
	return dto.ClockInResponse{
		ID:           c.ID,
		SessionID:    c.SessionID,
		EmployeeID:   c.EmployeeID,
		EmployeeName: employeeName(c.Employee),
		ClockInTime:  formatTime(c.ClockInTime),
		ClockOutTime: formatTimePtr(c.ClockOutTime),
		Position:     c.Position,
		IsActive:     c.IsActive(),
	}
}

func toUndoActionResponse(a *engine.Action) *dto.UndoActionResponse {
	if a == nil {
		return nil
	}
	return &dto.UndoActionResponse{
		ID:          a.ID,
		Type:        string(a.Type),
		Description: a.Description,
		Timestamp:   formatTime(a.Timestamp),
	}
}

func toSkipResponse(employeeID string, info *engine.SkipInfo) *dto.SkipResponse {
	resp := &dto.SkipResponse{EmployeeID: employeeID}
	if info != nil {
		resp.Skipped = true
		resp.SkippedAt = formatTimePtr(&info.SkippedAt)
		resp.Reason = info.Reason
	}
	return resp
}
