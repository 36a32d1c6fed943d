// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ops-portal-api/internal/domain/entity"
)

// LoginRequest ログイン要求
type LoginRequest struct {
	EmployeeID string `json:"employee_id" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// UserDTO 応答中の社員情報
type UserDTO struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

// LoginResponse ログイン応答
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// ToUserDTO 社員エンティティを応答用に変換する
func ToUserDTO(emp *entity.Employee) UserDTO {
	if emp == nil {
		return UserDTO{}
	}
	return UserDTO{
		EmployeeID: emp.ID,
		Name:       emp.Name,
	}
}
