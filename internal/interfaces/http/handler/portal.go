// Package handler 提供 HTTP 请求处理器
package handler

import (
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/interfaces/http/dto"
	"ops-portal-api/pkg/errors"
)

// PortalHandler ポータル共通エンドポイント処理器
type PortalHandler struct {
	files *config.FilesConfig
}

// NewPortalHandler 创建ポータル処理器
func NewPortalHandler(files *config.FilesConfig) *PortalHandler {
	return &PortalHandler{files: files}
}

// Hello 疎通確認用の挨拶
// @Summary 挨拶メッセージ
// @Tags Portal
// @Produce json
// @Success 200 {object} dto.MessageResponse
// @Router /api/hello [get]
func (h *PortalHandler) Hello(c *gin.Context) {
	c.JSON(http.StatusOK, dto.MessageResponse{
		Message: "ようこそ！社内ポータル API のサンプルです。",
	})
}

// Scenario デモ用の会話シナリオを返す
// @Summary デモシナリオ取得
// @Tags Portal
// @Produce json
// @Success 200 {object} dto.ScenarioResponse
// @Router /api/scenario [get]
func (h *PortalHandler) Scenario(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ScenarioResponse{Scenario: demoScenario()})
}

// DataFile データディレクトリ内のファイルをダウンロードさせる
// @Summary 添付ファイルダウンロード
// @Tags Portal
// @Produce octet-stream
// @Param file_name path string true "ファイル名"
// @Success 200 "file content"
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/data/{file_name} [get]
func (h *PortalHandler) DataFile(c *gin.Context) {
	// パス区切りを含む名前は最終要素だけ使う
	name := filepath.Base(c.Param("file_name"))
	path := filepath.Join(h.files.DataDir, name)

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		dto.Fail(c, errors.New(errors.CodeFileNotFound, "File not found"))
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.FileAttachment(path, name)
}

// demoScenario トップ画面のデモ会話。file_url は /api/data 配下を指す。
func demoScenario() []dto.ScenarioItem {
	items := []dto.ScenarioItem{
		{
			Role: "user",
			Text: "下請法が改正されて取引法になりました。\n下記の公正取引委員会のガイドブックから\nURL:https://www.jftc.go.jp/file/toriteki002.pdf\n発注担当者に周知するための1時間の勉強会での説明資料とQ&Aをつくって。",
		},
		{
			Role: "assistant",
			Text: "承知しました。\n10ページの教育資料とQ&Aを作成します。",
		},
		{
			Role:     "assistant",
			Text:     "教育資料です。内容をご確認ください。",
			FileName: "取適法改正ガイドライン講義.pptx",
		},
		{
			Role: "user",
			Text: "ありがとう。\nメールでの案内用に、2ページの短縮版もつくってくれるかな。",
		},
		{
			Role:     "assistant",
			Text:     "もちろんです。2ページの短縮版の資料です。",
			FileName: "法改正勉強会案内_ショート版.pptx",
		},
		{
			Role:     "assistant",
			Text:     "外注発注マニュアルにも変更点を反映させますか？\n関連するマニュアルは下記です。",
			FileName: "QMS-8.4-WI-012 Rev.3（外部提供者管理手順）.docx",
		},
		{
			Role: "user",
			Text: "ありがとう。変更点を反映させて",
		},
		{
			Role: "assistant",
			Text: "変更点を反映させました。",
		},
	}
	for i := range items {
		if items[i].FileName != "" {
			items[i].FileURL = "/api/data/" + url.PathEscape(items[i].FileName)
		}
	}
	return items
}
