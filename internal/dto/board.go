package dto

// ── 看板 DTO ──

// QueueEntryResponse 排队条目
type QueueEntryResponse struct {
	EmployeeID     string        `json:"employee_id"`
	EmployeeName   string        `json:"employee_name"`
	Position       int           `json:"position"`
	CompletedTurns int           `json:"completed_turns"`
	HalfTurnCredit float64       `json:"half_turn_credit"`
	Score          float64       `json:"score"`
	InProgress     bool          `json:"in_progress"`
	CurrentTurn    *TurnResponse `json:"current_turn,omitempty"`
	IsNext         bool          `json:"is_next"`
	IsSkipped      bool          `json:"is_skipped"`
	SkippedAt      *string       `json:"skipped_at,omitempty"`
	SkipReason     string        `json:"skip_reason,omitempty"`
}

// QueueResponse 排队视图
type QueueResponse struct {
	SessionID      string               `json:"session_id"`
	NextEmployeeID *string              `json:"next_employee_id"`
	Entries        []QueueEntryResponse `json:"entries"`
}

// GridRequest 网格查询参数
type GridRequest struct {
	Rows int `form:"rows" binding:"omitempty,min=1,max=100"`
}

// GridColumnResponse 网格列
type GridColumnResponse struct {
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	Position     int    `json:"position"`
	IsActive     bool   `json:"is_active"`
}

// GridCellResponse 网格单元格
type GridCellResponse struct {
	EmployeeID   string   `json:"employee_id"`
	TurnNumber   int      `json:"turn_number"`
	State        string   `json:"state"`
	TurnIDs      []string `json:"turn_ids,omitempty"`
	ServiceNames []string `json:"service_names,omitempty"`
	TotalPrice   float64  `json:"total_price"`
	ActiveTurnID string   `json:"active_turn_id,omitempty"`
}

// GridResponse 轮次网格，cells[row][col]，row 0 对应 T1
type GridResponse struct {
	SessionID string               `json:"session_id"`
	Rows      int                  `json:"rows"`
	Columns   []GridColumnResponse `json:"columns"`
	Cells     [][]GridCellResponse `json:"cells"`
}

// SkipRequest 跳过 / 休息请求
type SkipRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=100"`
}

// SkipResponse 跳过状态
type SkipResponse struct {
	EmployeeID string  `json:"employee_id"`
	Skipped    bool    `json:"skipped"`
	SkippedAt  *string `json:"skipped_at,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}
