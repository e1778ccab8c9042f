package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/NotKhoa03/salon-turn-system/pkg/errors"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Employee EmployeeRepository
	Service  ServiceRepository
	Session  SessionRepository
	ClockIn  ClockInRepository
	Turn     TurnRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Employee: NewEmployeeRepo(db),
		Service:  NewServiceRepo(db),
		Session:  NewSessionRepo(db),
		ClockIn:  NewClockInRepo(db),
		Turn:     NewTurnRepo(db),
	}
}

// translateWriteError 唯一约束冲突统一转换为 ErrConflict
func translateWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrConflict
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key") {
		return pkgerrors.ErrConflict
	}
	return err
}

// affected 更新/删除未命中任何行时返回 gorm.ErrRecordNotFound
func affected(result *gorm.DB) error {
	if result.Error != nil {
		return translateWriteError(result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
