package dto

// ── 轮次模块 DTO ──

// AssignTurnRequest 指定技师派单请求
type AssignTurnRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	ServiceID  string `json:"service_id"  binding:"required"`
}

// QuickAssignRequest 按排队顺序自动派单请求
type QuickAssignRequest struct {
	ServiceID string `json:"service_id" binding:"required"`
}

// TurnResponse 轮次记录
type TurnResponse struct {
	ID               string  `json:"id"`
	SessionID        string  `json:"session_id"`
	EmployeeID       string  `json:"employee_id"`
	EmployeeName     string  `json:"employee_name,omitempty"`
	ServiceID        string  `json:"service_id"`
	ServiceName      string  `json:"service_name,omitempty"`
	Price            float64 `json:"price"`
	TurnNumber       int     `json:"turn_number"`
	IsHalfTurn       bool    `json:"is_half_turn"`
	Status           string  `json:"status"`
	PairedWithTurnID *string `json:"paired_with_turn_id"`
	StartedAt        string  `json:"started_at"`
	CompletedAt      *string `json:"completed_at"`
}

// TurnResult 派单 / 完成结果
type TurnResult struct {
	Turn         TurnResponse `json:"turn"`
	UndoActionID string       `json:"undo_action_id,omitempty"`
}
