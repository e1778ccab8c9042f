package dto

// ── 打卡模块 DTO ──

// ClockInRequest 打卡 / 签退请求
type ClockInRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
}

// ClockInResponse 打卡记录
type ClockInResponse struct {
	ID           string  `json:"id"`
	SessionID    string  `json:"session_id"`
	EmployeeID   string  `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	ClockInTime  string  `json:"clock_in_time"`
	ClockOutTime *string `json:"clock_out_time"`
	Position     int     `json:"position"`
	IsActive     bool    `json:"is_active"`
}

// ClockInResult 打卡 / 签退结果
type ClockInResult struct {
	ClockIn         ClockInResponse `json:"clock_in"`
	WasReactivation bool            `json:"was_reactivation"`
	UndoActionID    string          `json:"undo_action_id,omitempty"`
}
