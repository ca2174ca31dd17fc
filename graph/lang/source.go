package lang

import (
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// sourceCacheSize bounds the in-memory source cache. Parsing and import
// extraction both read file contents; the cache keeps one read per file on
// large projects without holding every file forever.
const sourceCacheSize = 512

var sourceCache, _ = lru.New[string, []byte](sourceCacheSize)

// ReadSource returns a file's contents, cached.
func ReadSource(path string) ([]byte, error) {
	if src, ok := sourceCache.Get(path); ok {
		return src, nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	sourceCache.Add(path, src)
	return src, nil
}
