package dto

// ── 基础数据 DTO ──

// EmployeeResponse 技师信息
type EmployeeResponse struct {
	ID           string `json:"id"`
	FullName     string `json:"full_name"`
	DisplayOrder *int   `json:"display_order,omitempty"`
}

// ServiceResponse 服务项目
type ServiceResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	IsHalfTurn bool    `json:"is_half_turn"`
	Color      string  `json:"color"`
}
