// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"ops-portal-api/internal/application/license"
)

// LicenseSummaryRequest ライセンス要約要求。
// license_text が空のときは software_name から本文取得を試みる。
type LicenseSummaryRequest struct {
	SoftwareName string `json:"software_name"`
	LicenseText  string `json:"license_text"`
}

// LicenseJudgeRequest 商用利用可否の判定要求
type LicenseJudgeRequest struct {
	SoftwareName string           `json:"software_name"`
	UsageType    string           `json:"usage_type" binding:"required"`
	Summary      *license.Summary `json:"license_summary" binding:"required"`
}
