package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/NotKhoa03/salon-turn-system/internal/model"
)

// ServiceRepository 服务项目数据访问接口（只读）
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*model.Service, error)
	ListActive(ctx context.Context) ([]model.Service, error)
}

type serviceRepo struct {
	db *gorm.DB
}

func NewServiceRepo(db *gorm.DB) ServiceRepository {
	return &serviceRepo{db: db}
}

func (r *serviceRepo) GetByID(ctx context.Context, id string) (*model.Service, error) {
	var svc model.Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *serviceRepo) ListActive(ctx context.Context) ([]model.Service, error) {
	var services []model.Service
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&services).Error
	return services, err
}
