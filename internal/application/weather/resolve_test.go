package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/internal/infrastructure/jma"
)

func testOffices() map[string]jma.Office {
	return map[string]jma.Office{
		"130000": {Name: "東京都"},
		"270000": {Name: "大阪府"},
		"230000": {Name: "愛知県"},
		"016000": {Name: "石狩・空知・後志地方"},
		"471000": {Name: "沖縄本島地方"},
	}
}

func TestResolveOffice(t *testing.T) {
	offices := testOffices()

	t.Run("exact name", func(t *testing.T) {
		m := resolveOffice("東京都", offices)
		require.NotNil(t, m)
		assert.Equal(t, "130000", m.Code)
	})

	t.Run("suffix dropped", func(t *testing.T) {
		m := resolveOffice("大阪", offices)
		require.NotNil(t, m)
		assert.Equal(t, "大阪府", m.Name)
		assert.Equal(t, "270000", m.Code)
	})

	t.Run("destination containing office name", func(t *testing.T) {
		m := resolveOffice("大阪市北区", offices)
		require.NotNil(t, m)
		assert.Equal(t, "270000", m.Code)
	})

	t.Run("city alias", func(t *testing.T) {
		m := resolveOffice("名古屋", offices)
		require.NotNil(t, m)
		assert.Equal(t, "愛知県", m.Name)
		assert.Equal(t, "230000", m.Code)
	})

	t.Run("alias to regional office", func(t *testing.T) {
		m := resolveOffice("札幌出張", offices)
		require.NotNil(t, m)
		assert.Equal(t, "016000", m.Code)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, resolveOffice("ロンドン", offices))
	})

	t.Run("suffix only input", func(t *testing.T) {
		assert.Nil(t, resolveOffice("県", offices))
	})
}

func TestNormalizeDestination(t *testing.T) {
	assert.Equal(t, "東京", normalizeDestination(" 東京都 "))
	assert.Equal(t, "石狩・空知・後志地方", normalizeDestination("石狩・空知・後志地方"))
	assert.Equal(t, "京", normalizeDestination("京都府"))
}
