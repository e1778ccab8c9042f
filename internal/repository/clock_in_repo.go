package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// ClockInRepository 打卡记录数据访问接口
type ClockInRepository interface {
	// ListBySession 营业日全部打卡记录（含已签退），按 position 排序并关联技师
	ListBySession(ctx context.Context, sessionID string) ([]model.ClockIn, error)
	GetByID(ctx context.Context, id string) (*model.ClockIn, error)
	// GetActive 技师当前在岗记录
	GetActive(ctx context.Context, sessionID, employeeID string) (*model.ClockIn, error)
	// GetLatest 技师当日最近一次打卡记录（不论是否签退）
	GetLatest(ctx context.Context, sessionID, employeeID string) (*model.ClockIn, error)
	// MaxPosition 营业日最大 position，没有记录时为 0
	MaxPosition(ctx context.Context, sessionID string) (int, error)
	Create(ctx context.Context, clockIn *model.ClockIn) error
	// SetClockOut 仅对在岗记录生效
	SetClockOut(ctx context.Context, id string, at time.Time) error
	// SetState 覆盖签退时间与 position，用于重新上岗与撤销
	SetState(ctx context.Context, id string, clockOut *time.Time, position int) error
	Delete(ctx context.Context, id string) error
}

type clockInRepo struct {
	db *gorm.DB
}

func NewClockInRepo(db *gorm.DB) ClockInRepository {
	return &clockInRepo{db: db}
}

func (r *clockInRepo) ListBySession(ctx context.Context, sessionID string) ([]model.ClockIn, error) {
	var clockIns []model.ClockIn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("session_id = ?", sessionID).
		Order("position ASC").
		Find(&clockIns).Error
	return clockIns, err
}

func (r *clockInRepo) GetByID(ctx context.Context, id string) (*model.ClockIn, error) {
	var clockIn model.ClockIn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("id = ?", id).
		First(&clockIn).Error
	if err != nil {
		return nil, err
	}
	return &clockIn, nil
}

func (r *clockInRepo) GetActive(ctx context.Context, sessionID, employeeID string) (*model.ClockIn, error) {
	var clockIn model.ClockIn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("session_id = ? AND employee_id = ? AND clock_out_time IS NULL", sessionID, employeeID).
		First(&clockIn).Error
	if err != nil {
		return nil, err
	}
	return &clockIn, nil
}

func (r *clockInRepo) GetLatest(ctx context.Context, sessionID, employeeID string) (*model.ClockIn, error) {
	var clockIn model.ClockIn
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Where("session_id = ? AND employee_id = ?", sessionID, employeeID).
		Order("clock_in_time DESC").
		First(&clockIn).Error
	if err != nil {
		return nil, err
	}
	return &clockIn, nil
}

func (r *clockInRepo) MaxPosition(ctx context.Context, sessionID string) (int, error) {
	var maxPosition int
	err := r.db.WithContext(ctx).
		Model(&model.ClockIn{}).
		Where("session_id = ?", sessionID).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPosition).Error
	return maxPosition, err
}

func (r *clockInRepo) Create(ctx context.Context, clockIn *model.ClockIn) error {
	return translateWriteError(r.db.WithContext(ctx).Omit("Employee").Create(clockIn).Error)
}

func (r *clockInRepo) SetClockOut(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.ClockIn{}).
		Where("id = ? AND clock_out_time IS NULL", id).
		Update("clock_out_time", at)
	return affected(result)
}

func (r *clockInRepo) SetState(ctx context.Context, id string, clockOut *time.Time, position int) error {
	result := r.db.WithContext(ctx).
		Model(&model.ClockIn{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"clock_out_time": clockOut,
			"position":       position,
		})
	return affected(result)
}

func (r *clockInRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.ClockIn{})
	return affected(result)
}
