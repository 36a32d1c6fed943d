// Package auth 提供社員認証とトークン発行
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ops-portal-api/internal/domain/entity"
	"ops-portal-api/internal/domain/repository"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
	"ops-portal-api/pkg/utils"
)

// Service 認証サービス。
// 社員の存在有無と認証失敗は区別せず、同じエラーを返す。
type Service struct {
	employees repository.EmployeeRepository
	jwt       *utils.JWTManager
	tokenTTL  time.Duration
}

func NewService(employees repository.EmployeeRepository, jwt *utils.JWTManager, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Service{
		employees: employees,
		jwt:       jwt,
		tokenTTL:  tokenTTL,
	}
}

// LoginResult ログイン結果
type LoginResult struct {
	Token    string
	Employee *entity.Employee
}

// Login 社員IDとパスワードで認証し、JWT を発行する
func (s *Service) Login(ctx context.Context, employeeID, password string) (*LoginResult, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || password == "" {
		return nil, errors.ErrBadCredentials
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil || !emp.CheckPassword(password) {
		return nil, errors.ErrBadCredentials
	}

	token, err := s.jwt.GenerateToken(emp.ID, emp.Name, string(emp.Role), s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	emp.MarkLogin()
	if err := s.employees.Update(ctx, emp); err != nil {
		// 最終ログイン時刻の更新失敗でログイン自体は失敗させない
		logger.FromContext(ctx).Warn("failed to record last login", "employee_id", emp.ID, "error", err)
	}

	return &LoginResult{Token: token, Employee: emp}, nil
}

// Verify トークンを検証し、社員情報を返す
func (s *Service) Verify(ctx context.Context, token string) (*entity.Employee, error) {
	claims, err := s.jwt.ParseToken(token)
	if err != nil {
		return nil, errors.New(errors.CodeTokenInvalid, "Could not validate credentials")
	}

	emp, err := s.employees.GetByID(ctx, claims.EmployeeID())
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return nil, errors.New(errors.CodeTokenInvalid, "Could not validate credentials")
	}
	return emp, nil
}
