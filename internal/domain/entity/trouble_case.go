// Package entity 定义领域实体
package entity

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

// severityLabels 文字ラベルから数値レベルへの対応表
var severityLabels = map[string]float64{
	"低":        1,
	"中":        2,
	"高":        3,
	"critical": 4,
	"重大":       5,
}

// ParseSeverity 将重大度值解析为数值等级。
// 支持文字ラベル（低/中/高/critical/重大）与数值字符串，
// 无法解析时返回 ok=false（検索フィルタでは不明値を通过させる）。
func ParseSeverity(val string) (float64, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return 0, false
	}
	if lv, exists := severityLabels[s]; exists {
		return lv, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseCaseDate 解析发生日期。日付欄は自由記入のため
// 解析できない値もあり、その場合 ok=false を返す。
func ParseCaseDate(val string) (time.Time, bool) {
	s := strings.TrimSpace(val)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006/01/02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// SplitTags 将逗号区切りのタグ文字列分割为トリム済み要素
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// TroubleCase トラブル事例実体。
// OccurredAt / SeverityLevel は検索フィルタ用の派生列で、
// Normalize で原文（date / severity）から再計算される。
type TroubleCase struct {
	ID             string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	OccurredOn     string         `json:"date" gorm:"column:occurred_on;type:varchar(32)"`
	OccurredAt     *time.Time     `json:"-" gorm:"type:date;index"`
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	Summary        string         `json:"summary,omitempty" gorm:"type:text"`
	RootCause      string         `json:"root_cause,omitempty" gorm:"type:text"`
	Countermeasure string         `json:"countermeasure,omitempty" gorm:"type:text"`
	Product        string         `json:"product,omitempty" gorm:"type:varchar(128);index"`
	Client         string         `json:"client,omitempty" gorm:"type:varchar(128)"`
	Tags           pq.StringArray `json:"tags" gorm:"type:text[]"`
	Severity       string         `json:"severity,omitempty" gorm:"type:varchar(32)"`
	SeverityLevel  *float64       `json:"-" gorm:"index"`
	Owner          string         `json:"owner,omitempty" gorm:"type:varchar(128)"`
	LeadTimeHours  float64        `json:"lead_time_hours,omitempty"`
	TacitNotes     string         `json:"tacit_notes,omitempty" gorm:"type:text"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (TroubleCase) TableName() string {
	return "trouble_cases"
}

// Normalize 重新计算派生列
func (c *TroubleCase) Normalize() {
	if t, ok := ParseCaseDate(c.OccurredOn); ok {
		c.OccurredAt = &t
	} else {
		c.OccurredAt = nil
	}
	if lv, ok := ParseSeverity(c.Severity); ok {
		c.SeverityLevel = &lv
	} else {
		c.SeverityLevel = nil
	}
}

// HasAnyTag 判断是否包含任一指定タグ（完全一致）
func (c *TroubleCase) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if s := strings.TrimSpace(t); s != "" {
			want[s] = struct{}{}
		}
	}
	for _, t := range c.Tags {
		if _, hit := want[strings.TrimSpace(t)]; hit {
			return true
		}
	}
	return false
}

// EmbeddingText 拼接向量化対象テキスト
func (c *TroubleCase) EmbeddingText() string {
	parts := make([]string, 0, 5)
	for _, s := range []string{c.Title, c.Summary, c.RootCause, c.Countermeasure, c.TacitNotes} {
		if v := strings.TrimSpace(s); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " \n")
}

// MergeTacitNotes 将承認済み暗黙知合并进事例。
// 既存ノートがある場合は区切り線で追記する。
func (c *TroubleCase) MergeTacitNotes(merged string) {
	merged = strings.TrimSpace(merged)
	if merged == "" {
		return
	}
	if existing := strings.TrimSpace(c.TacitNotes); existing != "" {
		c.TacitNotes = existing + "\n\n---\n\n" + merged
	} else {
		c.TacitNotes = merged
	}
	c.UpdatedAt = time.Now()
}
