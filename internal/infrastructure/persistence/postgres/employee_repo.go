// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ops-portal-api/internal/domain/entity"
)

// EmployeeRepository 社員仓储实现
type EmployeeRepository struct {
	client *Client
}

// NewEmployeeRepository 创建社員仓储
func NewEmployeeRepository(client *Client) *EmployeeRepository {
	return &EmployeeRepository{client: client}
}

// Create 创建社員
func (r *EmployeeRepository) Create(ctx context.Context, e *entity.Employee) error {
	ctx, span := tracer.Start(ctx, "postgres.EmployeeRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(e).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create employee: %w", err)
	}
	return nil
}

// GetByID 根据社員 ID 获取社員
func (r *EmployeeRepository) GetByID(ctx context.Context, employeeID string) (*entity.Employee, error) {
	ctx, span := tracer.Start(ctx, "postgres.EmployeeRepository.GetByID")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var e entity.Employee
	if err := db.First(&e, "employee_id = ?", employeeID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

// Update 更新社員
func (r *EmployeeRepository) Update(ctx context.Context, e *entity.Employee) error {
	ctx, span := tracer.Start(ctx, "postgres.EmployeeRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(e).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update employee: %w", err)
	}
	return nil
}
