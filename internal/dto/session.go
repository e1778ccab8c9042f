package dto

// ── 营业日 DTO ──

// CurrentSessionRequest 获取营业日查询参数，date 为空时取配置时区的当天
type CurrentSessionRequest struct {
	Date string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

// SessionResponse 营业日信息
type SessionResponse struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	CreatedAt string `json:"created_at"`
}

// RefreshRequest 刷新看板快照请求，aggregate 为空时刷新全部
type RefreshRequest struct {
	Aggregate string `json:"aggregate" binding:"omitempty,oneof=clock_ins turns all"`
}
