package jsonagent

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"ops-portal-api/pkg/errors"
)

const noDiffText = "(差分なし)"

// UnifiedDiff 2 つの JSON オブジェクトをキー順固定で整形し、unified diff を返す。
// 差分がなければ固定メッセージを返す。
func UnifiedDiff(current, preview map[string]any) (string, error) {
	a, err := jsonLines(current)
	if err != nil {
		return "", err
	}
	b, err := jsonLines(preview)
	if err != nil {
		return "", err
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        a,
		B:        b,
		FromFile: "current.json",
		ToFile:   "preview.json",
		Context:  3,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternalError, "diff failed")
	}

	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return noDiffText, nil
	}
	return text, nil
}

// jsonLines 空オブジェクトは行なし扱いにする
func jsonLines(m map[string]any) ([]string, error) {
	if len(m) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidParam, "JSON encode error")
	}
	return difflib.SplitLines(strings.TrimSuffix(buf.String(), "\n")), nil
}
