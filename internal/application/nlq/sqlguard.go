package nlq

import (
	"fmt"
	"regexp"
	"strings"

	"ops-portal-api/pkg/errors"
)

// LLM 生成 SQL のガード。SELECT/WITH の単一文のみ許可し、
// FROM は設定された 1 ビューに固定する。

var (
	fenceOpenRe   = regexp.MustCompile("(?i)^```(?:sql)?\\s*")
	fenceCloseRe  = regexp.MustCompile("\\s*```$")
	sqlLabelRe    = regexp.MustCompile(`(?i)^\s*SQL\s*:\s*`)
	selectStartRe = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	forbiddenRe   = regexp.MustCompile(`(?i)\b(INSERT|UPDATE|DELETE|MERGE|ALTER|DROP|CREATE|TRUNCATE|GRANT|REVOKE|EXEC|EXECUTE|BEGIN|DECLARE|COMMIT|ROLLBACK)\b`)
	joinRe        = regexp.MustCompile(`(?i)\bJOIN\b`)
	offsetRe      = regexp.MustCompile(`(?i)\bOFFSET\b`)
	fetchNextRe   = regexp.MustCompile(`(?i)\bFETCH\s+NEXT\b`)
	limitWordRe   = regexp.MustCompile(`(?i)\bLIMIT\b`)
	fetchAnyRe    = regexp.MustCompile(`(?i)\bFETCH\b`)
	fromTargetRe  = regexp.MustCompile(`(?i)\bFROM\s+(\S+)`)
)

// sanitizeSQL 除去 LLM が付けがちな ```sql フェンス、"SQL:" ラベル、末尾の ;
func sanitizeSQL(text string) string {
	s := strings.TrimSpace(text)
	s = fenceOpenRe.ReplaceAllString(s, "")
	s = fenceCloseRe.ReplaceAllString(s, "")
	s = sqlLabelRe.ReplaceAllString(s, "")
	return strings.TrimRight(strings.TrimSpace(s), ";")
}

// validateSQL 禁止キーワードとページング構文を拒否する
func validateSQL(s string) error {
	if !selectStartRe.MatchString(s) {
		return rejected("SELECT/WITH 以外で始まっています")
	}
	if forbiddenRe.MatchString(s) {
		return rejected("禁止キーワード（更新/定義/PLSQL）が含まれています")
	}
	if joinRe.MatchString(s) {
		return rejected("JOIN は禁止です（1ビュー固定）")
	}
	if offsetRe.MatchString(s) {
		return rejected("OFFSET は禁止です（ページング不可）")
	}
	if fetchNextRe.MatchString(s) {
		return rejected("FETCH NEXT は禁止です（ページング不可）")
	}
	if limitWordRe.MatchString(s) {
		return rejected("LIMIT はOracleで使用できません（FETCH FIRST を使用してください）")
	}
	return nil
}

func rejected(reason string) error {
	return errors.New(errors.CodeSQLRejected, "SQL rejected: "+reason)
}

// extractFromTarget FROM 直後のオブジェクト名を返す。別名や末尾カンマは落とす。
func extractFromTarget(s string) string {
	compact := strings.Join(strings.Fields(s), " ")
	m := fromTargetRe.FindStringSubmatch(compact)
	if m == nil {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(m[1]), ",")
}

// checkViewOnly FROM が許可された owner.view と完全一致することを確認する。
// スキーマ省略も拒否する。
func checkViewOnly(s, allowedView string) error {
	target := extractFromTarget(s)
	if target == "" {
		return errors.New(errors.CodeSQLRejected, "FROM句が見つかりません")
	}
	if !strings.Contains(target, ".") {
		return errors.New(errors.CodeSQLRejected, fmt.Sprintf("Object must be schema-qualified: %s", target))
	}
	if !strings.EqualFold(target, allowedView) {
		return errors.New(errors.CodeSQLRejected, fmt.Sprintf("Unauthorized table/view: %s", target))
	}
	return nil
}

// enforceLimit 件数上限を付与する。既に FETCH がある場合は二重付与しない。
func enforceLimit(s string, limit int) string {
	if fetchAnyRe.MatchString(s) {
		return s
	}
	return fmt.Sprintf("%s\nFETCH FIRST %d ROWS ONLY", s, limit)
}
