package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// TurnRepository 轮次记录数据访问接口
type TurnRepository interface {
	// ListBySession 营业日全部轮次，关联技师与服务，按 turn_number、created_at 排序
	ListBySession(ctx context.Context, sessionID string) ([]model.Turn, error)
	GetByID(ctx context.Context, id string) (*model.Turn, error)
	// GetInProgressByEmployee 技师当前进行中的轮次，没有时返回 gorm.ErrRecordNotFound
	GetInProgressByEmployee(ctx context.Context, sessionID, employeeID string) (*model.Turn, error)
	// LatestCompletedHalf 最新的已完成半轮（自身不是配对记录），没有时返回 nil, nil
	LatestCompletedHalf(ctx context.Context, sessionID, employeeID string) (*model.Turn, error)
	IsPaired(ctx context.Context, turnID string) (bool, error)
	MaxTurnNumber(ctx context.Context, sessionID, employeeID string) (int, error)
	// Create 半轮已被配对时返回 pkgerrors.ErrConflict
	Create(ctx context.Context, turn *model.Turn) error
	// Complete 仅对进行中的轮次生效
	Complete(ctx context.Context, id string, at time.Time) error
	// Revert 将已完成轮次恢复为进行中
	Revert(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type turnRepo struct {
	db *gorm.DB
}

func NewTurnRepo(db *gorm.DB) TurnRepository {
	return &turnRepo{db: db}
}

func (r *turnRepo) ListBySession(ctx context.Context, sessionID string) ([]model.Turn, error) {
	var turns []model.Turn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Service").
		Where("session_id = ?", sessionID).
		Order("turn_number ASC, created_at ASC").
		Find(&turns).Error
	return turns, err
}

func (r *turnRepo) GetByID(ctx context.Context, id string) (*model.Turn, error) {
	var turn model.Turn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Service").
		Where("id = ?", id).
		First(&turn).Error
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func (r *turnRepo) GetInProgressByEmployee(ctx context.Context, sessionID, employeeID string) (*model.Turn, error) {
	var turn model.Turn
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND employee_id = ? AND status = ?", sessionID, employeeID, model.TurnInProgress).
		First(&turn).Error
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func (r *turnRepo) LatestCompletedHalf(ctx context.Context, sessionID, employeeID string) (*model.Turn, error) {
	var turn model.Turn
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND employee_id = ? AND is_half_turn = ? AND status = ? AND paired_with_turn_id IS NULL",
			sessionID, employeeID, true, model.TurnCompleted).
		Order("turn_number DESC").
		First(&turn).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &turn, nil
}

func (r *turnRepo) IsPaired(ctx context.Context, turnID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("paired_with_turn_id = ?", turnID).
		Count(&count).Error
	return count > 0, err
}

func (r *turnRepo) MaxTurnNumber(ctx context.Context, sessionID, employeeID string) (int, error) {
	var maxNumber int
	err := r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("session_id = ? AND employee_id = ?", sessionID, employeeID).
		Select("COALESCE(MAX(turn_number), 0)").
		Scan(&maxNumber).Error
	return maxNumber, err
}

func (r *turnRepo) Create(ctx context.Context, turn *model.Turn) error {
	return translateWriteError(r.db.WithContext(ctx).Omit(clause.Associations).Create(turn).Error)
}

func (r *turnRepo) Complete(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("id = ? AND status = ?", id, model.TurnInProgress).
		Updates(map[string]interface{}{
			"status":       model.TurnCompleted,
			"completed_at": at,
		})
	return affected(result)
}

func (r *turnRepo) Revert(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("id = ? AND status = ?", id, model.TurnCompleted).
		Updates(map[string]interface{}{
			"status":       model.TurnInProgress,
			"completed_at": nil,
		})
	return affected(result)
}

func (r *turnRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Turn{})
	return affected(result)
}
