// Package catcache persists catalog trees between sessions so the sidebar
// can populate without waiting on Athena's metadata queries.
package catcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const cacheDirName = "harlequin-athena"

// Cache stores JSON documents keyed by connection identity in a single
// directory.
type Cache struct {
	dir string
}

// New returns a cache rooted in the user's cache directory, creating it if
// needed.
func New() (*Cache, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return nil, errors.Wrap(err, "resolving user cache dir")
	}
	return NewAt(filepath.Join(base, cacheDirName))
}

// NewAt returns a cache rooted at dir, creating it if needed.
func NewAt(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "creating cache dir")
	}
	return &Cache{dir: dir}, nil
}

// Key derives a stable cache key from the connection identity. Work group
// and schema only contribute when set, so connections that omit them share
// an entry with ones that pass the same effective values.
func Key(catalog, region, workGroup, schema string) string {
	parts := []string{catalog, region}
	if workGroup != "" {
		parts = append(parts, "wg:"+workGroup)
	}
	if schema != "" {
		parts = append(parts, "schema:"+schema)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("catalog_%s.json", key))
}

// Load reads the entry for key into v. It reports false when no entry
// exists. A corrupt entry is removed and treated as missing.
func (c *Cache) Load(key string, v interface{}) (bool, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrap(err, "reading cache entry")
	}

	if err := json.Unmarshal(data, v); err != nil {
		os.Remove(c.path(key))
		return false, nil
	}
	return true, nil
}

// Save writes v as the entry for key.
func (c *Cache) Save(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding cache entry")
	}
	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		return errors.Wrap(err, "writing cache entry")
	}
	return nil
}

// Invalidate removes the entry for key, if any.
func (c *Cache) Invalidate(key string) error {
	err := os.Remove(c.path(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "removing cache entry")
	}
	return nil
}
