package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// SessionRepository 营业日数据访问接口
type SessionRepository interface {
	GetByID(ctx context.Context, id string) (*model.DailySession, error)
	GetByDate(ctx context.Context, date string) (*model.DailySession, error)
	Create(ctx context.Context, session *model.DailySession) error
	// ClearDay 在同一事务内删除营业日全部轮次与打卡记录，营业日本身保留
	ClearDay(ctx context.Context, sessionID string) error
}

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepo(db *gorm.DB) SessionRepository {
	return &sessionRepo{db: db}
}

func (r *sessionRepo) GetByID(ctx context.Context, id string) (*model.DailySession, error) {
	var session model.DailySession
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByDate(ctx context.Context, date string) (*model.DailySession, error) {
	var session model.DailySession
	err := r.db.WithContext(ctx).Where("date = ?", date).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) Create(ctx context.Context, session *model.DailySession) error {
	return translateWriteError(r.db.WithContext(ctx).Create(session).Error)
}

func (r *sessionRepo) ClearDay(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 配对记录引用同表半轮，先删配对记录
		if err := tx.Where("session_id = ? AND paired_with_turn_id IS NOT NULL", sessionID).
			Delete(&model.Turn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&model.Turn{}).Error; err != nil {
			return err
		}
		return tx.Where("session_id = ?", sessionID).Delete(&model.ClockIn{}).Error
	})
}
