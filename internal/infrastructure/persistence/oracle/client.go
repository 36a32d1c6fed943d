// Package oracle 提供 NLQ 用の読み取り専用 Oracle 接続
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	go_ora "github.com/sijms/go-ora/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ops-portal-api/internal/config"
)

var tracer = otel.Tracer("oracle")

// Client Oracle 连接客户端。
// SELECT のみを想定し、更新系はサービス層のガードで拒否される。
type Client struct {
	db  *sql.DB
	cfg *config.OracleConfig
}

// NewClient 创建 Oracle 客户端。未設定時は nil を返す。
func NewClient(cfg *config.OracleConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	port := cfg.Port
	if port <= 0 {
		port = 1521
	}
	connStr := go_ora.BuildUrl(cfg.Host, port, cfg.Service, cfg.User, cfg.Password, nil)
	db, err := sql.Open("oracle", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open oracle connection: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	db.SetConnMaxLifetime(time.Hour)

	return &Client{db: db, cfg: cfg}, nil
}

// Close 关闭连接
func (c *Client) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.db == nil {
		return fmt.Errorf("oracle client not configured")
	}
	return c.db.PingContext(ctx)
}

// QueryResult 検索結果。Columns は SELECT 句の出現順（小文字）。
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// RunSelect 読み取りクエリを実行し、列名を小文字に揃えて返す
func (c *Client) RunSelect(ctx context.Context, query string, args ...any) (*QueryResult, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("oracle client not configured")
	}

	ctx, span := tracer.Start(ctx, "oracle.RunSelect",
		trace.WithAttributes(attribute.Int("query.length", len(query))))
	defer span.End()

	if c.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.QueryTimeout)
		defer cancel()
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = strings.ToLower(col)
	}

	out := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		row := make(map[string]any, len(names))
		for i, name := range names {
			row[name] = normalizeValue(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	span.SetAttributes(attribute.Int("rows.count", len(out)))
	return &QueryResult{Columns: names, Rows: out}, nil
}

// normalizeValue JSON 化しやすい形へ揃える
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	default:
		return v
	}
}
