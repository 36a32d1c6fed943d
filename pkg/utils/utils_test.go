package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", "ops-portal")

	token, err := m.GenerateToken("E001", "山田太郎", "admin", time.Hour)
	require.NoError(t, err)

	claims, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "E001", claims.EmployeeID())
	assert.Equal(t, "山田太郎", claims.Name)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "ops-portal", claims.Issuer)
}

func TestJWTParse_WrongSecret(t *testing.T) {
	token, err := NewJWTManager("secret-a", "ops-portal").GenerateToken("E001", "", "member", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTManager("secret-b", "ops-portal").ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTParse_Expired(t *testing.T) {
	m := NewJWTManager("secret", "ops-portal")
	token, err := m.GenerateToken("E001", "", "member", -time.Minute)
	require.NoError(t, err)

	_, err = m.ParseToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestExtractJSONObject(t *testing.T) {
	raw := "以下が抽出結果です。\n```json\n{\"name\": \"値\"}\n```\nご確認ください。"
	assert.Equal(t, `{"name": "値"}`, ExtractJSONObject(raw))
}

func TestExtractJSONObject_Array(t *testing.T) {
	assert.Equal(t, `[1, 2, 3]`, ExtractJSONObject("結果: [1, 2, 3] 以上"))
}

func TestExtractJSONObject_PlainText(t *testing.T) {
	// JSON が見つからなければトリムだけして返す
	assert.Equal(t, "JSON なし", ExtractJSONObject("  JSON なし  "))
}

func TestExtractJSONObject_BrokenJSON(t *testing.T) {
	raw := "{not json at all}"
	assert.Equal(t, raw, ExtractJSONObject(raw))
}

func TestDecodeJapaneseText_UTF8(t *testing.T) {
	assert.Equal(t, "日本語テキスト", DecodeJapaneseText([]byte("日本語テキスト")))
}

func TestDecodeJapaneseText_BOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("先頭 BOM 付き")...)
	assert.Equal(t, "先頭 BOM 付き", DecodeJapaneseText(raw))
}

func TestDecodeJapaneseText_ShiftJIS(t *testing.T) {
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), "社内帳票データ")
	require.NoError(t, err)

	assert.Equal(t, "社内帳票データ", DecodeJapaneseText([]byte(encoded)))
}
