package model

import (
	"time"

	"gorm.io/gorm"
)

// ClockIn 打卡记录 — 对应 clock_ins
// Position 为营业日内单调递增序号，打卡与重新上岗时分配，决定排队的平局顺序
type ClockIn struct {
	ID           string     `gorm:"size:36;primaryKey"                       json:"id"`
	SessionID    string     `gorm:"size:36;not null;index:idx_clock_ins_session" json:"session_id"`
	EmployeeID   string     `gorm:"size:36;not null"                         json:"employee_id"`
	ClockInTime  time.Time  `gorm:"not null"                                 json:"clock_in_time"`
	ClockOutTime *time.Time `json:"clock_out_time"`
	Position     int        `gorm:"not null"                                 json:"position"`

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"employee,omitempty"`
}

// TableName 指定表名
func (ClockIn) TableName() string { return "clock_ins" }

// IsActive 未签退即为在岗
func (c *ClockIn) IsActive() bool { return c.ClockOutTime == nil }

// BeforeCreate 补齐主键
func (c *ClockIn) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = NewID()
	}
	return nil
}
