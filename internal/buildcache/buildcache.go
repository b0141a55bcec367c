// Package buildcache memoizes compiled AURA containers on disk, keyed by a
// digest of the source file and the build parameters that affect codegen
// output (currently the data-segment base). It is an optional accelerator
// for repeated `aura build` invocations over unchanged sources, not part of
// the compiler's required behavior.
package buildcache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var containersBucket = []byte("containers")

// Cache wraps a bbolt database holding one bucket of digest -> container
// bytes entries.
type Cache struct {
	db *bbolt.DB
}

// Open creates or opens the cache file at path, creating the containers
// bucket if this is a fresh database.
func Open(path string) (*Cache, error) {
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("buildcache: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(containersBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("buildcache: init %s: %w", path, err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying database file.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Key derives a cache key from the source bytes and the data-segment base,
// the only codegen parameter that can change the emitted container for an
// otherwise identical source.
func Key(source []byte, dataBase uint64) string {
	h := sha256.New()
	h.Write(source)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], dataBase)
	h.Write(buf[:])
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached container bytes for key, if present.
func (c *Cache) Get(key string) ([]byte, bool, error) {
	var out []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(containersBucket).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("buildcache: get: %w", err)
	}
	return out, out != nil, nil
}

// Put stores container bytes under key, overwriting any prior entry.
func (c *Cache) Put(key string, container []byte) error {
	err := c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(containersBucket).Put([]byte(key), container)
	})
	if err != nil {
		return fmt.Errorf("buildcache: put: %w", err)
	}
	return nil
}
