// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ops-portal-api/internal/domain/entity"
)

// EmployeeRepository 社員仓储接口
type EmployeeRepository interface {
	// Create 创建社員
	Create(ctx context.Context, e *entity.Employee) error

	// GetByID 根据社員 ID 获取社員
	GetByID(ctx context.Context, employeeID string) (*entity.Employee, error)

	// Update 更新社員
	Update(ctx context.Context, e *entity.Employee) error
}
