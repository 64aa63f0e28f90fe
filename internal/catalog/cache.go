package catalog

import (
	"encoding/binary"
	"log/slog"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes source contents. Each part is length-prefixed so that
// moving bytes between parts changes the digest.
func Fingerprint(parts ...[]byte) uint64 {
	d := xxhash.New()
	var size [8]byte
	for _, p := range parts {
		binary.LittleEndian.PutUint64(size[:], uint64(len(p)))
		_, _ = d.Write(size[:])
		_, _ = d.Write(p)
	}
	return d.Sum64()
}

// Cache keeps the last catalog built together with the fingerprint of the
// sources it came from. It is owned by the caller and not safe for
// concurrent use.
type Cache struct {
	fingerprint uint64
	catalog     *Catalog
	builds      int
}

func NewCache() *Cache {
	return &Cache{}
}

// GetOrBuild returns the cached catalog when fingerprint matches, otherwise
// runs build and stores its result. A failed build leaves the cache as it was.
func (c *Cache) GetOrBuild(fingerprint uint64, build func() (*Catalog, error)) (*Catalog, error) {
	if c.catalog != nil && c.fingerprint == fingerprint {
		return c.catalog, nil
	}
	cat, err := build()
	if err != nil {
		return nil, err
	}
	if c.catalog != nil {
		slog.Info("sources changed, catalog rebuilt", "entries", cat.Len())
	}
	c.fingerprint = fingerprint
	c.catalog = cat
	c.builds++
	return cat, nil
}

func (c *Cache) Get(fingerprint uint64) (*Catalog, bool) {
	if c.catalog == nil || c.fingerprint != fingerprint {
		return nil, false
	}
	return c.catalog, true
}

// Invalidate drops the cached catalog so the next GetOrBuild rebuilds.
func (c *Cache) Invalidate() {
	c.catalog = nil
	c.fingerprint = 0
}

// Builds counts successful builds.
func (c *Cache) Builds() int { return c.builds }
