package model

import (
	"time"

	"gorm.io/gorm"
)

// TurnStatus 轮次状态
type TurnStatus string

const (
	TurnInProgress TurnStatus = "in_progress"
	TurnCompleted  TurnStatus = "completed"
)

// Turn 轮次记录 — 对应 turns
// TurnNumber 为技师个人序号；PairedWithTurnID 指向本记录补全的半轮，二者共享 TurnNumber。
// TurnNumber 与 PairedWithTurnID 只在创建时写入。
type Turn struct {
	ID               string     `gorm:"size:36;primaryKey"                  json:"id"`
	SessionID        string     `gorm:"size:36;not null;index:idx_turns_session_employee,priority:1" json:"session_id"`
	EmployeeID       string     `gorm:"size:36;not null;index:idx_turns_session_employee,priority:2" json:"employee_id"`
	ServiceID        string     `gorm:"size:36;not null"                    json:"service_id"`
	TurnNumber       int        `gorm:"not null"                            json:"turn_number"`
	IsHalfTurn       bool       `gorm:"not null;default:false"              json:"is_half_turn"`
	Status           TurnStatus `gorm:"size:20;not null;default:'in_progress'" json:"status"`
	PairedWithTurnID *string    `gorm:"size:36;uniqueIndex"                 json:"paired_with_turn_id"`
	StartedAt        time.Time  `gorm:"not null"                            json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at"`
	CreatedAt        time.Time  `gorm:"not null"                            json:"created_at"`

	// 关联
	Employee *Employee `gorm:"foreignKey:EmployeeID;references:ID" json:"employee,omitempty"`
	Service  *Service  `gorm:"foreignKey:ServiceID;references:ID"  json:"service,omitempty"`
}

// TableName 指定表名
func (Turn) TableName() string { return "turns" }

// IsCompleted 是否已完成
func (t *Turn) IsCompleted() bool { return t.Status == TurnCompleted }

// IsPairing 是否为补全半轮的第二条记录
func (t *Turn) IsPairing() bool { return t.PairedWithTurnID != nil }

// BeforeCreate 补齐主键
func (t *Turn) BeforeCreate(_ *gorm.DB) error {
	if t.ID == "" {
		t.ID = NewID()
	}
	return nil
}
