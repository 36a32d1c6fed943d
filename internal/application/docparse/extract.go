// Package docparse アップロードファイルのテキスト抽出と CSV プレビュー
package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/utils"
)

// ExtractText 拡張子に応じてテキストを抽出する。
// 未知の拡張子はプレーンテキストとして読む。
func ExtractText(filename string, raw []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDF(raw)
	case ".docx":
		return extractDOCX(raw)
	case ".xlsx", ".xls":
		return extractExcelBlocks(raw)
	case ".csv":
		return normalizeCSV(raw)
	default:
		return utils.DecodeJapaneseText(raw), nil
	}
}

func extractPDF(raw []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("Cannot open PDF: %v", err))
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// 壊れたページは飛ばして残りを読む
			continue
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\n"), nil
}

// docxPart word/document.xml 内の w:t 要素だけを拾う
func extractDOCX(raw []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("Cannot open DOCX: %v", err))
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New(errors.CodeParseFailed, "word/document.xml not found")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("Cannot read DOCX: %v", err))
	}
	defer rc.Close()

	return docxParagraphs(rc)
}

func docxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		paragraphs []string
		current    strings.Builder
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("DOCX parse error: %v", err))
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return strings.Join(paragraphs, "\n"), nil
}

// extractExcelBlocks 各シートを「## シート: 名前」見出し付きの CSV ブロックにする
func extractExcelBlocks(raw []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("Excel open error: %v", err))
	}
	defer f.Close()

	blocks := make([]string, 0, len(f.GetSheetList()))
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		text, err := rowsToCSV(rows)
		if err != nil {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("## シート: %s\n%s", sheet, text))
	}
	return strings.Join(blocks, "\n\n"), nil
}

// normalizeCSV 文字コードを吸収して CSV を読み直し、正規化して返す
func normalizeCSV(raw []byte) (string, error) {
	records, err := parseCSV(raw)
	if err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("CSV parse error: %v", err))
	}
	return rowsToCSV(records)
}

func parseCSV(raw []byte) ([][]string, error) {
	text := utils.DecodeJapaneseText(raw)
	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func rowsToCSV(rows [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		return "", errors.New(errors.CodeParseFailed, fmt.Sprintf("CSV encode error: %v", err))
	}
	w.Flush()
	return buf.String(), nil
}

