package jsonagent

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ops-portal-api/internal/config"
	"ops-portal-api/pkg/errors"
)

const treeFileName = "tree.txt"

// Store 該非判定書テキストと tree.txt を files.data_dir 配下で管理する
type Store struct {
	hiteiDir string
	treePath string
}

// NewStore 创建报价资料存储
func NewStore(cfg *config.FilesConfig) (*Store, error) {
	s := &Store{
		hiteiDir: filepath.Join(cfg.DataDir, cfg.HiteiSubdir),
		treePath: filepath.Join(cfg.DataDir, treeFileName),
	}
	if err := os.MkdirAll(s.hiteiDir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.CodeStorageError, "failed to create hitei directory")
	}
	return s, nil
}

// Tree tree.txt の内容。未作成なら固定メッセージを返す。
func (s *Store) Tree() string {
	data, err := os.ReadFile(s.treePath)
	if err != nil {
		return "(tree.txt は作成されていません)"
	}
	return strings.ToValidUTF8(string(data), "")
}

// DedupeAndSave 抽出済みテキストを内容の MD5 で保存する。
// 同じ内容が既に保存されていれば保存済みテキストを再利用する。
func (s *Store) DedupeAndSave(text string) (string, string, error) {
	sum := md5.Sum([]byte(text))
	name := hex.EncodeToString(sum[:]) + ".txt"
	path := filepath.Join(s.hiteiDir, name)

	if stored, err := os.ReadFile(path); err == nil {
		return string(stored), fmt.Sprintf("既存ファイル（%s）を再利用します。", name), nil
	}

	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", "", errors.Wrap(err, errors.CodeStorageError, fmt.Sprintf("保存に失敗しました: %v", err))
	}
	return text, fmt.Sprintf("新規ファイル（%s）として保存しました。", name), nil
}
