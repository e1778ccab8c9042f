package model

import "time"

// Service 服务项目表 — 对应 services
// IsHalfTurn 以派单时刻的取值为准，写入 Turn 后不再回溯
type Service struct {
	BaseModel
	Name       string    `gorm:"size:100;not null"                  json:"name"`
	Price      float64   `gorm:"not null;default:0"                 json:"price"`
	IsHalfTurn bool      `gorm:"not null;default:false"             json:"is_half_turn"`
	IsActive   bool      `gorm:"not null;default:true"              json:"is_active"`
	Color      string    `gorm:"size:20;not null;default:''"        json:"color"`
	UpdatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (Service) TableName() string { return "services" }
