package sheet

import (
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/fuelplan-etl/internal/adapter/file"
	"github.com/couchcryptid/fuelplan-etl/internal/domain"
)

// FileCache stores the last good snapshot as a CSV file.
// It implements source.Cache.
type FileCache struct {
	path string
}

// NewFileCache creates a cache backed by the file at path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the cache file location.
func (c *FileCache) Path() string { return c.path }

// Read decodes the cached snapshot. A missing file yields an error wrapping
// fs.ErrNotExist.
func (c *FileCache) Read() (domain.RawTable, error) {
	f, err := os.Open(c.path)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("open cache: %w", err)
	}
	defer f.Close()

	table, err := DecodeTable(f)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("decode cache %s: %w", c.path, err)
	}
	return table, nil
}

// Write replaces the cached snapshot atomically.
func (c *FileCache) Write(t domain.RawTable) error {
	return file.WriteAtomic(c.path, func(w io.Writer) error {
		return EncodeTable(w, t)
	})
}
