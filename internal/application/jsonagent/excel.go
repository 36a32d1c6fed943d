package jsonagent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"ops-portal-api/pkg/errors"
)

const detailSheetName = "別紙"

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

var itemSheetHeaders = []string{"品名", "数量", "単価", "金額", "備考"}

// RenderExcel 見積 JSON をテンプレートに流し込み、明細シートを付けて xlsx を返す。
// テンプレート中の {{key}} / {{a.b.c}} プレースホルダを置換する。
func RenderExcel(data map[string]any, templatePath string) ([]byte, error) {
	f, err := excelize.OpenFile(templatePath)
	if err != nil {
		return nil, errors.New(errors.CodeRenderFailed, fmt.Sprintf("Excel template open error: %v", err))
	}
	defer f.Close()

	ctx := flattenContext(data)
	for _, sheet := range f.GetSheetList() {
		if err := replacePlaceholders(f, sheet, ctx); err != nil {
			return nil, err
		}
	}

	if err := insertItemsSheet(f, detectItems(data)); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeRenderFailed, "Excel write error")
	}
	return buf.Bytes(), nil
}

// flattenContext トップレベルに加え purchase_order とその配下、
// non_exemption_certificate のキーを直接参照できるようにする。先勝ちで重複は潰さない。
func flattenContext(data map[string]any) map[string]any {
	ctx := make(map[string]any, len(data))
	for k, v := range data {
		ctx[k] = v
	}

	if po, ok := data["purchase_order"].(map[string]any); ok {
		shallowMerge(ctx, po)
		for _, subkey := range []string{"order_details", "buyer", "seller"} {
			if sub, ok := po[subkey].(map[string]any); ok {
				shallowMerge(ctx, sub)
			}
		}
	}
	if nec, ok := data["non_exemption_certificate"].(map[string]any); ok {
		shallowMerge(ctx, nec)
	}
	return ctx
}

func shallowMerge(dst, src map[string]any) {
	for k, v := range src {
		if _, exists := dst[k]; !exists {
			dst[k] = v
		}
	}
}

func pick(ctx map[string]any, dotted string) (any, bool) {
	var cur any = ctx
	for _, k := range strings.Split(dotted, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[k]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// stringifyValue 真偽値は 有/無、_date で終わるキーは日付表記にそろえる
func stringifyValue(key string, v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "有"
		}
		return "無"
	case string:
		if strings.HasSuffix(key, "_date") {
			if t, ok := parseISODate(x); ok {
				return t.Format("2006-01-02")
			}
		}
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func parseISODate(s string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02", "2006-01-02T15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func replacePlaceholders(f *excelize.File, sheet string, ctx map[string]any) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return errors.Wrap(err, errors.CodeRenderFailed, "Excel read error")
	}
	for ri, row := range rows {
		for ci, v := range row {
			if !strings.Contains(v, "{{") {
				continue
			}
			replaced := placeholderPattern.ReplaceAllStringFunc(v, func(m string) string {
				key := strings.TrimSpace(placeholderPattern.FindStringSubmatch(m)[1])
				raw, ok := pick(ctx, key)
				if !ok || raw == nil {
					return ""
				}
				return stringifyValue(key, raw)
			})
			if replaced == v {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+1)
			if err != nil {
				return errors.Wrap(err, errors.CodeRenderFailed, "Excel cell error")
			}
			if err := f.SetCellValue(sheet, cell, replaced); err != nil {
				return errors.Wrap(err, errors.CodeRenderFailed, "Excel write error")
			}
		}
	}
	return nil
}

// lineItem スキーマ差異を吸収した明細 1 行
type lineItem struct {
	description string
	qty         float64
	unitPrice   float64
	notes       string
}

// normalizeItem 文字列だけの明細や別名キーの明細を 1 つの形にそろえる。
// 解釈できない要素は nil。
func normalizeItem(raw any) *lineItem {
	if s, ok := raw.(string); ok {
		return &lineItem{description: s}
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	desc := asString(m["description"])
	if desc == "" {
		dev := asString(m["device_name"])
		lay := asString(m["layer_name"])
		desc = strings.Trim(dev+" / "+lay, " /")
	}

	qty := m["qty"]
	if qty == nil {
		qty = m["quantity"]
	}
	unit := m["unit_price"]
	if unit == nil {
		unit = m["unit_price_jpy"]
	}

	notes := asString(m["notes"])
	if notes == "" {
		if rids, ok := m["reticle_ids"].([]any); ok {
			parts := make([]string, 0, len(rids))
			for _, r := range rids {
				parts = append(parts, asString(r))
			}
			notes = strings.Join(parts, ", ")
		}
	}
	if notes == "" {
		notes = asString(m["sec_invoice_no"])
	}

	return &lineItem{
		description: desc,
		qty:         toNumber(qty),
		unitPrice:   toNumber(unit),
		notes:       notes,
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toNumber(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// detectItems items / purchase_order.items / non_exemption_certificate.items の順で探す
func detectItems(data map[string]any) []any {
	for _, path := range [][]string{
		{"items"},
		{"purchase_order", "items"},
		{"non_exemption_certificate", "items"},
	} {
		var cur any = data
		found := true
		for _, k := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				found = false
				break
			}
			v, ok := m[k]
			if !ok {
				found = false
				break
			}
			cur = v
		}
		if !found {
			continue
		}
		if list, ok := cur.([]any); ok {
			return list
		}
	}
	return nil
}

func insertItemsSheet(f *excelize.File, items []any) error {
	if err := f.DeleteSheet(detailSheetName); err != nil {
		return errors.Wrap(err, errors.CodeRenderFailed, "Excel sheet error")
	}
	if _, err := f.NewSheet(detailSheetName); err != nil {
		return errors.Wrap(err, errors.CodeRenderFailed, "Excel sheet error")
	}

	centerStyle, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Horizontal: "center"}})
	if err != nil {
		return errors.Wrap(err, errors.CodeRenderFailed, "Excel style error")
	}
	numFmt := "#,##0"
	numStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return errors.Wrap(err, errors.CodeRenderFailed, "Excel style error")
	}

	widths := make([]int, len(itemSheetHeaders))
	track := func(col int, text string) {
		if n := utf8.RuneCountInString(text); n > widths[col-1] {
			widths[col-1] = n
		}
	}
	setCell := func(row, col int, value any, style int, text string) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(detailSheetName, cell, value); err != nil {
			return err
		}
		if style != 0 {
			if err := f.SetCellStyle(detailSheetName, cell, cell, style); err != nil {
				return err
			}
		}
		track(col, text)
		return nil
	}

	for j, h := range itemSheetHeaders {
		if err := setCell(1, j+1, h, centerStyle, h); err != nil {
			return errors.Wrap(err, errors.CodeRenderFailed, "Excel write error")
		}
	}

	row := 2
	for _, raw := range items {
		it := normalizeItem(raw)
		if it == nil {
			continue
		}
		amount := it.qty * it.unitPrice
		cells := []struct {
			col   int
			value any
			style int
			text  string
		}{
			{1, it.description, 0, it.description},
			{2, it.qty, numStyle, formatNumber(it.qty)},
			{3, it.unitPrice, numStyle, formatNumber(it.unitPrice)},
			{4, amount, numStyle, formatNumber(amount)},
			{5, it.notes, 0, it.notes},
		}
		for _, c := range cells {
			if err := setCell(row, c.col, c.value, c.style, c.text); err != nil {
				return errors.Wrap(err, errors.CodeRenderFailed, "Excel write error")
			}
		}
		row++
	}

	n := row - 2
	if n > 0 {
		if err := setCell(n+2, 3, "小計", 0, "小計"); err != nil {
			return errors.Wrap(err, errors.CodeRenderFailed, "Excel write error")
		}
		formula := fmt.Sprintf("SUM(D2:D%d)", n+1)
		cell := fmt.Sprintf("D%d", n+2)
		if err := f.SetCellFormula(detailSheetName, cell, formula); err != nil {
			return errors.Wrap(err, errors.CodeRenderFailed, "Excel formula error")
		}
		if err := f.SetCellStyle(detailSheetName, cell, cell, numStyle); err != nil {
			return errors.Wrap(err, errors.CodeRenderFailed, "Excel style error")
		}
		track(4, "="+formula)
	}

	for col := 1; col <= len(itemSheetHeaders); col++ {
		letter, err := excelize.ColumnNumberToName(col)
		if err != nil {
			continue
		}
		width := float64(widths[col-1] + 2)
		if width > 24 {
			width = 24
		}
		if err := f.SetColWidth(detailSheetName, letter, letter, width); err != nil {
			return errors.Wrap(err, errors.CodeRenderFailed, "Excel width error")
		}
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
