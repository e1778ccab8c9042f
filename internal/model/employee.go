package model

import "time"

// Employee 技师表 — 对应 employees（由后台配置维护，轮牌核心只读）
type Employee struct {
	BaseModel
	FullName     string    `gorm:"size:100;not null"                  json:"full_name"`
	DisplayOrder *int      `json:"display_order,omitempty"`
	IsActive     bool      `gorm:"not null;default:true"              json:"is_active"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Employee) TableName() string { return "employees" }
