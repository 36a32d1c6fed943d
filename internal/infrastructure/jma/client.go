// Package jma 気象庁の防災情報 JSON（area / forecast）を取得するクライアント
package jma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ops-portal-api/internal/config"
	"ops-portal-api/internal/infrastructure/persistence/redis"
	"ops-portal-api/pkg/errors"
	"ops-portal-api/pkg/logger"
)

const areaCacheKey = "cache:weather:area"

// Office area.json の offices エントリ
type Office struct {
	Name   string `json:"name"`
	EnName string `json:"enName"`
	Parent string `json:"parent"`
}

// ForecastEntry forecast/{office}.json の配列要素。
// 先頭要素が短期予報で、その timeSeries だけを使う。
type ForecastEntry struct {
	PublishingOffice string       `json:"publishingOffice"`
	ReportDatetime   string       `json:"reportDatetime"`
	TimeSeries       []TimeSeries `json:"timeSeries"`
}

type TimeSeries struct {
	TimeDefines []string       `json:"timeDefines"`
	Areas       []ForecastArea `json:"areas"`
}

// ForecastArea 発表区域ごとの系列。系列によって入る配列が異なる。
type ForecastArea struct {
	Area          AreaRef  `json:"area"`
	Weathers      []string `json:"weathers"`
	WeatherCodes  []string `json:"weatherCodes"`
	Pops          []string `json:"pops"`
	Temps         []string `json:"temps"`
	Winds         []string `json:"winds"`
	Waves         []string `json:"waves"`
	Reliabilities []string `json:"reliabilities"`
}

type AreaRef struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Client JMA API クライアント。cache は任意で、無ければ毎回取得する。
type Client struct {
	cfg        *config.WeatherConfig
	httpClient *http.Client
	cache      *redis.Cache
}

// NewClient 创建 JMA 客户端
func NewClient(cfg *config.WeatherConfig, cache *redis.Cache) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
	}
}

// Offices area.json の offices マップを返す。変更が稀なため Redis にキャッシュする。
func (c *Client) Offices(ctx context.Context) (map[string]Office, error) {
	if c.cache == nil {
		return c.fetchOffices(ctx)
	}

	ttl := c.cfg.AreaCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	raw, err := c.cache.GetOrLoadSafe(ctx, areaCacheKey, ttl, func() (interface{}, error) {
		return c.fetchOffices(ctx)
	})
	if err != nil {
		return nil, err
	}

	var offices map[string]Office
	if err := json.Unmarshal(raw, &offices); err != nil {
		// キャッシュ破損時は取り直す
		logger.Warn(ctx, "cached area json is broken, refetching", "error", err.Error())
		return c.fetchOffices(ctx)
	}
	return offices, nil
}

func (c *Client) fetchOffices(ctx context.Context) (map[string]Office, error) {
	var area struct {
		Offices map[string]Office `json:"offices"`
	}
	if err := c.getJSON(ctx, c.cfg.AreaURL, &area); err != nil {
		return nil, err
	}
	if len(area.Offices) == 0 {
		return nil, errors.New(errors.CodeUpstreamFailed, "JMA area.json has no offices")
	}
	return area.Offices, nil
}

// Forecast 指定 office の予報 JSON を取得する
func (c *Client) Forecast(ctx context.Context, officeCode string) ([]ForecastEntry, error) {
	var entries []ForecastEntry
	url := fmt.Sprintf(c.cfg.ForecastURL, officeCode)
	if err := c.getJSON(ctx, url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// IconURL 天気コードに対応するアイコン画像 URL
func (c *Client) IconURL(weatherCode string) string {
	if weatherCode == "" {
		return ""
	}
	return c.cfg.IconBaseURL + weatherCode + ".svg"
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternalError, "failed to build JMA request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CodeUpstreamFailed, "JMA fetch failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.CodeUpstreamFailed, fmt.Sprintf("JMA fetch failed: status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.CodeUpstreamFailed, "failed to decode JMA response")
	}
	return nil
}
