package model

// DailySession 营业日 — 对应 daily_sessions，每个日历日一条
type DailySession struct {
	BaseModel
	Date string `gorm:"size:10;not null;uniqueIndex" json:"date"` // YYYY-MM-DD
}

// TableName 指定表名
func (DailySession) TableName() string { return "daily_sessions" }

// DateLayout 营业日日期格式
const DateLayout = "2006-01-02"
