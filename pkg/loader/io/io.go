package io

import (
	"context"
	"os"

	"github.com/OFFIS-RIT/kiwi/kgraph/pkg/loader"
)

// IOLoader loads documents directly from the local filesystem with caching.
type IOLoader struct {
	cache *loader.Cache
}

// NewIOLoader creates a new filesystem-based loader.
func NewIOLoader() *IOLoader {
	return &IOLoader{cache: loader.NewCache()}
}

// GetFileText reads the document from the filesystem. Results are cached.
func (l *IOLoader) GetFileText(ctx context.Context, doc loader.Document) ([]byte, error) {
	return l.cache.Get(loader.CacheKey(doc), func() ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(doc.Path)
	})
}
