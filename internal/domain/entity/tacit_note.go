// Package entity 定义领域实体
package entity

import "time"

// TacitNoteStatus 暗黙知ノートの審査状态
type TacitNoteStatus string

const (
	TacitNoteStatusPending  TacitNoteStatus = "pending"
	TacitNoteStatusApproved TacitNoteStatus = "approved"
)

// TacitNote 暗黙知ノート実体。
// 現場担当者が事例に紐づけて投稿し、承認後に事例本文へマージされる。
type TacitNote struct {
	ID         int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	CaseID     string          `json:"case_id" gorm:"type:varchar(64);index;not null"`
	Note       string          `json:"note" gorm:"type:text;not null"`
	Category   string          `json:"category,omitempty" gorm:"type:varchar(64)"`
	Author     string          `json:"author,omitempty" gorm:"type:varchar(128)"`
	Approver   string          `json:"approver,omitempty" gorm:"type:varchar(128)"`
	Status     TacitNoteStatus `json:"status" gorm:"type:varchar(32);default:'pending';index"`
	Merged     bool            `json:"merged" gorm:"default:false;index"`
	CreatedAt  time.Time       `json:"timestamp" gorm:"column:created_at;autoCreateTime"`
	ApprovedAt *time.Time      `json:"approved_at,omitempty"`
}

// TableName 指定表名
func (TacitNote) TableName() string {
	return "tacit_notes"
}

// NewTacitNote 创建待承認ノート
func NewTacitNote(caseID, note, category, author string) *TacitNote {
	return &TacitNote{
		CaseID:    caseID,
		Note:      note,
		Category:  category,
		Author:    author,
		Status:    TacitNoteStatusPending,
		CreatedAt: time.Now(),
	}
}

// IsPending 是否待承認
func (n *TacitNote) IsPending() bool {
	return n.Status == TacitNoteStatusPending
}

// Approve 承認ノート。重复承認は approver を更新するだけで冪等。
func (n *TacitNote) Approve(approver string) {
	now := time.Now()
	n.Status = TacitNoteStatusApproved
	n.Approver = approver
	n.ApprovedAt = &now
}

// MarkMerged 标记已合并到事例本文
func (n *TacitNote) MarkMerged() {
	n.Merged = true
}
