package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/NotKhoa03/salon-turn-system/internal/dto"
)

// CatalogService 技师与服务项目的只读查询
type CatalogService interface {
	ListEmployees(ctx context.Context) ([]dto.EmployeeResponse, error)
	ListServices(ctx context.Context) ([]dto.ServiceResponse, error)
}

type catalogService struct {
	base
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(b base) CatalogService {
	return &catalogService{base: b}
}

func (s *catalogService) ListEmployees(ctx context.Context) ([]dto.EmployeeResponse, error) {
	employees, err := s.repo.Employee.ListActive(ctx)
	if err != nil {
		s.logger.Error("列出技师失败", zap.Error(err))
		return nil, storageErr(err)
	}

	result := make([]dto.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		result = append(result, dto.EmployeeResponse{
			ID:           e.ID,
			FullName:     e.FullName,
			DisplayOrder: e.DisplayOrder,
		})
	}
	return result, nil
}

func (s *catalogService) ListServices(ctx context.Context) ([]dto.ServiceResponse, error) {
	services, err := s.repo.Service.ListActive(ctx)
	if err != nil {
		s.logger.Error("列出服务项目失败", zap.Error(err))
		return nil, storageErr(err)
	}

	result := make([]dto.ServiceResponse, 0, len(services))
	for _, svc := range services {
		result = append(result, dto.ServiceResponse{
			ID:         svc.ID,
			Name:       svc.Name,
			Price:      svc.Price,
			IsHalfTurn: svc.IsHalfTurn,
			Color:      svc.Color,
		})
	}
	return result, nil
}
