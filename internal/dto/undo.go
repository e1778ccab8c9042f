package dto

// ── 撤销模块 DTO ──

// UndoActionResponse 可撤销操作
type UndoActionResponse struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// UndoResultResponse 撤销结果；blocked 表示被依赖关系阻止，可按 message 提示用户
type UndoResultResponse struct {
	Success bool                `json:"success"`
	Blocked bool                `json:"blocked"`
	Message string              `json:"message"`
	Action  *UndoActionResponse `json:"action,omitempty"`
}
