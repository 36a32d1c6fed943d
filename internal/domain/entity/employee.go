// Package entity 定义领域实体
package entity

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// EmployeeRole 社員ロール
type EmployeeRole string

const (
	EmployeeRoleAdmin  EmployeeRole = "admin"
	EmployeeRoleMember EmployeeRole = "member"
	EmployeeRoleViewer EmployeeRole = "viewer"
)

// Employee 社員実体（ログイン主体）
type Employee struct {
	ID           string       `json:"employee_id" gorm:"column:employee_id;type:varchar(64);primaryKey"`
	Name         string       `json:"name" gorm:"type:varchar(128);not null"`
	Department   string       `json:"department,omitempty" gorm:"type:varchar(128)"`
	PasswordHash string       `json:"-" gorm:"type:varchar(128);not null"`
	Role         EmployeeRole `json:"role" gorm:"type:varchar(32);default:'member'"`
	LastLoginAt  *time.Time   `json:"last_login_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}

// NewEmployee 创建社員
func NewEmployee(employeeID, name, department string) *Employee {
	now := time.Now()
	return &Employee{
		ID:         employeeID,
		Name:       name,
		Department: department,
		Role:       EmployeeRoleMember,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsAdmin 是否为管理员
func (e *Employee) IsAdmin() bool {
	return e.Role == EmployeeRoleAdmin
}

// SetPassword 设置并散列密码
func (e *Employee) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	e.PasswordHash = string(hash)
	return nil
}

// CheckPassword 校验密码
func (e *Employee) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(e.PasswordHash), []byte(password))
	return err == nil
}

// MarkLogin 记录登录时间
func (e *Employee) MarkLogin() {
	now := time.Now()
	e.LastLoginAt = &now
}
