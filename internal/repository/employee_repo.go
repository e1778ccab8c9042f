package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// EmployeeRepository 技师数据访问接口（只读）
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (*model.Employee, error)
	ListActive(ctx context.Context) ([]model.Employee, error)
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db: db}
}

func (r *employeeRepo) GetByID(ctx context.Context, id string) (*model.Employee, error) {
	var employee model.Employee
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListActive 按 display_order（空值在后）、姓名排序
func (r *employeeRepo) ListActive(ctx context.Context) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("CASE WHEN display_order IS NULL THEN 1 ELSE 0 END, display_order ASC, full_name ASC").
		Find(&employees).Error
	return employees, err
}
