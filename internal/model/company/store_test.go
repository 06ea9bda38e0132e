package company

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveToken(t *testing.T) {
	store := NewMemoryStore(Seed())

	id, ok := store.ResolveToken("dev-globex-chen")
	require.True(t, ok)
	assert.Equal(t, "u-chen", id.UserID)
	assert.Equal(t, "globex", id.CompanyID)
	assert.Equal(t, "Globex Staffing", id.CompanyName)

	_, ok = store.ResolveToken("")
	assert.False(t, ok)
	_, ok = store.ResolveToken("nope")
	assert.False(t, ok)
}

func TestListReturnsCopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Name = "changed"

	got, ok := store.FindByID(list[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "changed", got.Name)
}
