package utils

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject モデル出力から最初の完全な JSON 値（オブジェクト/配列）を切り出す。
// モデルはコードフェンスや説明文を JSON の前後に混ぜることがある。
// 切り出せない場合は前後の空白だけ落として返す。
func ExtractJSONObject(s string) string {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return raw
	}

	objStart := strings.Index(raw, "{")
	arrStart := strings.Index(raw, "[")

	start, end := objStart, strings.LastIndex(raw, "}")
	if objStart < 0 || (arrStart >= 0 && arrStart < objStart) {
		start, end = arrStart, strings.LastIndex(raw, "]")
	}
	if start < 0 || end <= start {
		return raw
	}

	if candidate := raw[start : end+1]; json.Valid([]byte(candidate)) {
		return candidate
	}
	return raw
}
