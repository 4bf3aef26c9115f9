package catcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestKey(t *testing.T) {
	base := Key("AwsDataCatalog", "us-east-1", "", "")

	assert.Len(t, base, 64)
	assert.Equal(t, base, Key("AwsDataCatalog", "us-east-1", "", ""))
	assert.NotEqual(t, base, Key("AwsDataCatalog", "us-west-2", "", ""))
	assert.NotEqual(t, base, Key("AwsDataCatalog", "us-east-1", "primary", ""))
	assert.NotEqual(t, base, Key("AwsDataCatalog", "us-east-1", "", "default"))
	assert.NotEqual(t,
		Key("AwsDataCatalog", "us-east-1", "primary", ""),
		Key("AwsDataCatalog", "us-east-1", "", "primary"),
	)
}

func TestCache_SaveLoad(t *testing.T) {
	cache, err := NewAt(t.TempDir())
	require.NoError(t, err)

	key := Key("AwsDataCatalog", "us-east-1", "", "")

	var missing payload
	ok, err := cache.Load(key, &missing)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Save(key, payload{Name: "orders", Count: 3}))

	var got payload
	ok, err = cache.Load(key, &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{Name: "orders", Count: 3}, got)
}

func TestCache_LoadCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewAt(dir)
	require.NoError(t, err)

	key := Key("AwsDataCatalog", "us-east-1", "", "")
	path := filepath.Join(dir, "catalog_"+key+".json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got payload
	ok, err := cache.Load(key, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCache_Invalidate(t *testing.T) {
	cache, err := NewAt(t.TempDir())
	require.NoError(t, err)

	key := Key("AwsDataCatalog", "us-east-1", "primary", "default")
	require.NoError(t, cache.Save(key, payload{Name: "x"}))
	require.NoError(t, cache.Invalidate(key))

	var got payload
	ok, err := cache.Load(key, &got)
	require.NoError(t, err)
	assert.False(t, ok)

	// invalidating a missing entry is not an error
	require.NoError(t, cache.Invalidate(key))
}
