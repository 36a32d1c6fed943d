package jsonagent

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeTemplate(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "見積番号: {{ estimate_no }}"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "納期: {{order_details.delivery_date}}"))
	require.NoError(t, f.SetCellValue("Sheet1", "C3", "{{purchase_order.buyer.name}} 御中"))
	require.NoError(t, f.SetCellValue("Sheet1", "D4", "{{missing_key}}"))
	require.NoError(t, f.SetCellValue("Sheet1", "E5", "輸出許可: {{export_permitted}}"))

	path := filepath.Join(t.TempDir(), "template.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func renderFixture(t *testing.T) *excelize.File {
	t.Helper()
	data := map[string]any{
		"estimate_no":      "Q-2025-001",
		"export_permitted": true,
		"purchase_order": map[string]any{
			"order_details": map[string]any{"delivery_date": "2025-09-30T00:00:00"},
			"buyer":         map[string]any{"name": "株式会社アクミ"},
			"items": []any{
				map[string]any{
					"description": "レチクル A",
					"qty":         "2",
					"unit_price":  "150,000",
				},
				map[string]any{
					"device_name":    "DEV-1",
					"layer_name":     "L2",
					"quantity":       float64(1),
					"unit_price_jpy": float64(80000),
					"reticle_ids":    []any{"R-1", "R-2"},
				},
				"調整費",
			},
		},
	}

	out, err := RenderExcel(data, writeTemplate(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRenderExcel_ReplacesPlaceholders(t *testing.T) {
	f := renderFixture(t)

	cell := func(ref string) string {
		v, err := f.GetCellValue("Sheet1", ref)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "見積番号: Q-2025-001", cell("A1"))
	assert.Equal(t, "納期: 2025-09-30", cell("B2"))
	assert.Equal(t, "株式会社アクミ 御中", cell("C3"))
	assert.Equal(t, "", cell("D4"))
	assert.Equal(t, "輸出許可: 有", cell("E5"))
}

func TestRenderExcel_BuildsItemsSheet(t *testing.T) {
	f := renderFixture(t)

	raw := func(ref string) string {
		v, err := f.GetCellValue(detailSheetName, ref, excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "品名", raw("A1"))
	assert.Equal(t, "備考", raw("E1"))

	assert.Equal(t, "レチクル A", raw("A2"))
	assert.Equal(t, "2", raw("B2"))
	assert.Equal(t, "150000", raw("C2"))
	assert.Equal(t, "300000", raw("D2"))

	assert.Equal(t, "DEV-1 / L2", raw("A3"))
	assert.Equal(t, "80000", raw("D3"))
	assert.Equal(t, "R-1, R-2", raw("E3"))

	assert.Equal(t, "調整費", raw("A4"))
	assert.Equal(t, "0", raw("D4"))

	assert.Equal(t, "小計", raw("C5"))
	formula, err := f.GetCellFormula(detailSheetName, "D5")
	require.NoError(t, err)
	assert.Equal(t, "SUM(D2:D4)", formula)
}

func TestRenderExcel_ColumnWidths(t *testing.T) {
	f := renderFixture(t)

	width, err := f.GetColWidth(detailSheetName, "A")
	require.NoError(t, err)
	assert.InDelta(t, 12, width, 0.01)

	width, err = f.GetColWidth(detailSheetName, "D")
	require.NoError(t, err)
	assert.InDelta(t, 13, width, 0.01)
}

func TestRenderExcel_MissingTemplate(t *testing.T) {
	_, err := RenderExcel(map[string]any{}, filepath.Join(t.TempDir(), "no-such.xlsx"))
	require.Error(t, err)
}

func TestNormalizeItem(t *testing.T) {
	t.Run("plain string", func(t *testing.T) {
		it := normalizeItem("調整費")
		require.NotNil(t, it)
		assert.Equal(t, "調整費", it.description)
		assert.Zero(t, it.qty)
	})

	t.Run("alias keys", func(t *testing.T) {
		it := normalizeItem(map[string]any{
			"device_name":    "DEV-9",
			"layer_name":     "",
			"quantity":       "3",
			"unit_price_jpy": "1,200",
			"sec_invoice_no": "INV-7",
		})
		require.NotNil(t, it)
		assert.Equal(t, "DEV-9", it.description)
		assert.InDelta(t, 3, it.qty, 1e-9)
		assert.InDelta(t, 1200, it.unitPrice, 1e-9)
		assert.Equal(t, "INV-7", it.notes)
	})

	t.Run("unusable element", func(t *testing.T) {
		assert.Nil(t, normalizeItem(float64(42)))
	})
}

func TestDetectItems(t *testing.T) {
	topLevel := map[string]any{"items": []any{"a"}}
	assert.Len(t, detectItems(topLevel), 1)

	nested := map[string]any{
		"purchase_order": map[string]any{"items": []any{"a", "b"}},
	}
	assert.Len(t, detectItems(nested), 2)

	assert.Nil(t, detectItems(map[string]any{"items": "not a list"}))
}
