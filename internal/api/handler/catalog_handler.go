package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/NotKhoa03/salon-turn-system/internal/service"
	"github.com/NotKhoa03/salon-turn-system/pkg/response"
)

// CatalogHandler 技师与服务项目的只读接口
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListEmployees 在职技师列表
// GET /api/v1/employees
func (h *CatalogHandler) ListEmployees(c *gin.Context) {
	employees, err := h.catalogSvc.ListEmployees(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": employees})
}

// ListServices 在售服务项目列表
// GET /api/v1/services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.catalogSvc.ListServices(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": services})
}
