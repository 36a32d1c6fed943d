package jsonagent

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/config"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(&config.FilesConfig{DataDir: dir, HiteiSubdir: "hitei_files"})
	require.NoError(t, err)
	return store, dir
}

func TestTree_MissingFile(t *testing.T) {
	store, _ := newTestStore(t)
	assert.Equal(t, "(tree.txt は作成されていません)", store.Tree())
}

func TestTree_ReadsFile(t *testing.T) {
	store, dir := newTestStore(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tree.txt"), []byte("backend/\n  app/\n"), 0o644))

	assert.Equal(t, "backend/\n  app/\n", store.Tree())
}

func TestDedupeAndSave_NewThenReuse(t *testing.T) {
	store, dir := newTestStore(t)

	text := "該非判定書 本文"
	sum := md5.Sum([]byte(text))
	name := hex.EncodeToString(sum[:]) + ".txt"

	got, msg, err := store.DedupeAndSave(text)
	require.NoError(t, err)
	assert.Equal(t, text, got)
	assert.Equal(t, fmt.Sprintf("新規ファイル（%s）として保存しました。", name), msg)

	stored, err := os.ReadFile(filepath.Join(dir, "hitei_files", name))
	require.NoError(t, err)
	assert.Equal(t, text, string(stored))

	got, msg, err = store.DedupeAndSave(text)
	require.NoError(t, err)
	assert.Equal(t, text, got)
	assert.Equal(t, fmt.Sprintf("既存ファイル（%s）を再利用します。", name), msg)
}

func TestDedupeAndSave_DifferentContent(t *testing.T) {
	store, dir := newTestStore(t)

	_, _, err := store.DedupeAndSave("ひとつめ")
	require.NoError(t, err)
	_, _, err = store.DedupeAndSave("ふたつめ")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "hitei_files"))
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
