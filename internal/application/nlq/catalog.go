package nlq

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ops-portal-api/internal/infrastructure/persistence/oracle"
	"ops-portal-api/pkg/logger"
)

// 列カタログは ALL_TAB_COLUMNS から一度だけ読む。ビュー定義は滅多に変わらない。
const columnCatalogSQL = `SELECT column_name, data_type
FROM all_tab_columns
WHERE owner = :1 AND table_name = :2
ORDER BY column_id`

// Catalog 許可ビューの列一覧を LLM 向けのスキーマ文脈に整形する
type Catalog struct {
	client *oracle.Client
	view   string

	mu     sync.RWMutex
	cached string
}

// NewCatalog 创建列カタログ。allowedView は owner.view 形式。
func NewCatalog(client *oracle.Client, allowedView string) *Catalog {
	return &Catalog{
		client: client,
		view:   strings.TrimSpace(allowedView),
	}
}

// AllowedView 返回許可された owner.view
func (c *Catalog) AllowedView() string {
	return c.view
}

// SchemaContext 返回キャッシュ済みのスキーマ文脈。初回のみ Oracle を引く。
func (c *Catalog) SchemaContext(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.cached != "" {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached != "" {
		return c.cached, nil
	}

	built, err := c.build(ctx)
	if err != nil {
		return "", err
	}
	c.cached = built
	return built, nil
}

func (c *Catalog) build(ctx context.Context) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("oracle client not configured")
	}
	owner, view, ok := strings.Cut(c.view, ".")
	if !ok {
		return "", fmt.Errorf("allowed view must be schema-qualified (owner.view): %s", c.view)
	}

	res, err := c.client.RunSelect(ctx, columnCatalogSQL, strings.ToUpper(owner), strings.ToUpper(view))
	if err != nil {
		return "", fmt.Errorf("failed to read column catalog: %w", err)
	}
	if len(res.Rows) == 0 {
		logger.Warn(ctx, "column catalog is empty", "view", c.view)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Allowed view: %s\n", c.view)
	b.WriteString("Columns:")
	for _, row := range res.Rows {
		name, _ := row["column_name"].(string)
		dataType, _ := row["data_type"].(string)
		fmt.Fprintf(&b, "\n- %s (%s)", name, dataType)
	}
	return b.String(), nil
}
