// Package github ソフトウェア名からライセンス本文（またはライセンス表記）を取得する。
// "owner/repo" 形式なら GitHub の License API を優先し、
// それ以外は npm / PyPI のレジストリメタデータを順に試す。
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v56/github"
	"golang.org/x/oauth2"

	"ops-portal-api/internal/config"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

const (
	npmRegistryURL  = "https://registry.npmjs.org"
	pypiRegistryURL = "https://pypi.org/pypi"

	fetchTimeout = 10 * time.Second
)

// LicenseFetcher 外部レジストリからのライセンス取得クライアント
type LicenseFetcher struct {
	gh         *gogithub.Client
	httpClient *http.Client

	npmBaseURL  string
	pypiBaseURL string
}

// NewLicenseFetcher 创建 LicenseFetcher。Token はレートリミット緩和用で任意。
func NewLicenseFetcher(cfg *config.GitHubConfig) *LicenseFetcher {
	httpClient := &http.Client{Timeout: fetchTimeout}

	var gh *gogithub.Client
	if cfg != nil && cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		gh = gogithub.NewClient(oauth2.NewClient(context.Background(), ts))
	} else {
		gh = gogithub.NewClient(httpClient)
	}

	return &LicenseFetcher{
		gh:          gh,
		httpClient:  httpClient,
		npmBaseURL:  npmRegistryURL,
		pypiBaseURL: pypiRegistryURL,
	}
}

// Fetch ソフトウェア名からライセンステキストを解決する。
// どの経路でも取得できなければ CodeLicenseNotFound を返す。
func (f *LicenseFetcher) Fetch(ctx context.Context, softwareName string) (string, error) {
	name := strings.TrimSpace(softwareName)
	if name == "" {
		return "", errors.New(errors.CodeInvalidParam, "ライセンステキストが空の場合は、ソフトウェア名の指定が必要です。")
	}

	if strings.Contains(name, "/") {
		if text := f.fromGitHub(ctx, name); text != "" {
			return text, nil
		}
	}
	if text := f.fromNPM(ctx, name); text != "" {
		return text, nil
	}
	if text := f.fromPyPI(ctx, name); text != "" {
		return text, nil
	}

	return "", errors.New(errors.CodeLicenseNotFound,
		fmt.Sprintf("ソフトウェア名 '%s' からライセンス情報を取得できませんでした。", softwareName))
}

// fromGitHub "owner/repo" のリポジトリから LICENSE 本文を取る
func (f *LicenseFetcher) fromGitHub(ctx context.Context, repo string) string {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return ""
	}

	lic, _, err := f.gh.Repositories.License(ctx, owner, name)
	if err != nil {
		logger.Warn(ctx, "github license lookup failed", "repo", repo, "error", err.Error())
		return ""
	}
	content := lic.GetContent()
	if content == "" {
		return ""
	}
	if lic.GetEncoding() == "base64" {
		decoded, decErr := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
		if decErr != nil {
			logger.Warn(ctx, "github license decode failed", "repo", repo, "error", decErr.Error())
			return ""
		}
		return strings.ToValidUTF8(string(decoded), "")
	}
	return content
}

// fromNPM npm のメタ情報から license フィールドを取る。
// 本文ではなく SPDX 名称になることが多い。
func (f *LicenseFetcher) fromNPM(ctx context.Context, name string) string {
	var meta struct {
		DistTags map[string]string          `json:"dist-tags"`
		Versions map[string]json.RawMessage `json:"versions"`
	}
	if !f.getJSON(ctx, f.npmBaseURL+"/"+name, &meta) {
		return ""
	}

	latest := meta.DistTags["latest"]
	if latest == "" {
		return ""
	}
	var info struct {
		License  any `json:"license"`
		Licenses any `json:"licenses"`
	}
	if err := json.Unmarshal(meta.Versions[latest], &info); err != nil {
		return ""
	}

	field := info.License
	if field == nil {
		field = info.Licenses
	}
	switch v := field.(type) {
	case string:
		return "License: " + v
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, " / ")
	default:
		return ""
	}
}

// fromPyPI PyPI のメタ情報から license ないし分類子を取る
func (f *LicenseFetcher) fromPyPI(ctx context.Context, name string) string {
	var meta struct {
		Info struct {
			License     string   `json:"license"`
			Classifiers []string `json:"classifiers"`
		} `json:"info"`
	}
	if !f.getJSON(ctx, f.pypiBaseURL+"/"+name+"/json", &meta) {
		return ""
	}

	if meta.Info.License != "" {
		return "License: " + meta.Info.License
	}
	var licenseClassifiers []string
	for _, c := range meta.Info.Classifiers {
		if strings.HasPrefix(c, "License ::") {
			licenseClassifiers = append(licenseClassifiers, c)
		}
	}
	return strings.Join(licenseClassifiers, "\n")
}

func (f *LicenseFetcher) getJSON(ctx context.Context, url string, out any) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		logger.Warn(ctx, "registry lookup failed", "url", url, "error", err.Error())
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	return json.NewDecoder(resp.Body).Decode(out) == nil
}
