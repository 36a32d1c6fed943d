package docparse

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"ops-portal-api/pkg/errors"
)

const defaultPreviewRunes = 5000

// PreviewResult /files/preview 応答
type PreviewResult struct {
	Name       string `json:"name"`
	Ext        string `json:"ext"`
	PreviewCSV string `json:"preview_csv"`
	Truncated  bool   `json:"truncated"`
}

// Preview CSV/Excel を CSV 文字列へ変換し、先頭 limit 文字だけ返す。
// 対応外の拡張子は 415 相当のエラー。
func Preview(filename string, raw []byte, limit int) (*PreviewResult, error) {
	if limit <= 0 {
		limit = defaultPreviewRunes
	}
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		csvText string
		err     error
	)
	switch ext {
	case ".csv":
		csvText, err = normalizeCSV(raw)
	case ".xlsx", ".xls":
		csvText, err = excelToMergedCSV(raw)
	default:
		return nil, errors.New(errors.CodeUnsupportedMedia, fmt.Sprintf("unsupported type: %s", ext))
	}
	if err != nil {
		return nil, err
	}

	runes := []rune(csvText)
	head := runes
	if len(head) > limit {
		head = head[:limit]
	}
	return &PreviewResult{
		Name:       filename,
		Ext:        ext,
		PreviewCSV: string(head),
		Truncated:  len(runes) > len(head),
	}, nil
}

// excelToMergedCSV 全シートを縦連結し、先頭列に __sheet__ を付ける。
// 1 シートが壊れても他のシートは読む。
func excelToMergedCSV(raw []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("Excel open error: %v", err))
	}
	defer f.Close()

	var (
		out         [][]string
		firstHeader []string
	)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			out = append(out, []string{sheet, fmt.Sprintf("__error__: %v", err)})
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if firstHeader == nil {
			firstHeader = rows[0]
			out = append(out, append([]string{"__sheet__"}, rows[0]...))
			rows = rows[1:]
		} else if sameRow(rows[0], firstHeader) {
			rows = rows[1:]
		}
		for _, row := range rows {
			out = append(out, append([]string{sheet}, row...))
		}
	}
	if len(out) == 0 {
		return "", errors.New(errors.CodeParseFailed, "No sheets found")
	}
	return rowsToCSV(out)
}

func sameRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
