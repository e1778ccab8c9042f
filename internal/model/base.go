package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel 通用主键与审计字段
type BaseModel struct {
	ID        string    `gorm:"size:36;primaryKey"                 json:"id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// BeforeCreate 在应用层生成 UUID，乐观更新需要在写库前得知主键
func (m *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// NewID 生成实体主键
func NewID() string {
	return uuid.NewString()
}
