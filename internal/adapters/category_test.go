package adapters

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contas/internal/core"
)

func TestCategoryDecoding(t *testing.T) {
	raw := `{"id":4,"name":"Food","description":"Groceries and eating out","userId":7,"updatedAt":"2024-02-01T08:00:00Z"}`

	cat, err := NewCategoryAdapter().One([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, int64(4), cat.ID)
	assert.Equal(t, "Food", cat.Name)
	assert.Equal(t, "Groceries and eating out", cat.Description)
	assert.Equal(t, int64(7), cat.UserID)
	assert.Equal(t, 2024, cat.UpdatedAt.Year())
}

func TestCategoryListDecoding(t *testing.T) {
	raw := `[{"id":1,"name":"Food"},{"id":2,"name":"Transport"}]`

	cats, err := NewCategoryAdapter().List([]byte(raw))
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Transport", cats[1].Name)
}

func TestCategoryEncodeOmitsEmptyDescription(t *testing.T) {
	body, err := json.Marshal(NewCategoryAdapter().Encode(core.Category{Name: "Food"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Food"}`, string(body))

	body, err = json.Marshal(NewCategoryAdapter().Encode(core.Category{Name: "Food", Description: "Groceries"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Food","description":"Groceries"}`, string(body))
}
