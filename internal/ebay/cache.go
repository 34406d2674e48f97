package ebay

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache call kinds
const (
	KindFind = "find"
	KindShop = "shop"
)

const cacheTTL = time.Hour

// FileCache persists raw provider responses, one JSON file per
// (product slug, page, call kind). Entries expire by age only;
// freshness comes from the timestamp the provider embeds in every
// response. Concurrent writers may race on the same key; last writer
// wins and entries are idempotent.
type FileCache struct {
	dir    string
	logger *logrus.Logger
}

func NewFileCache(dir string, logger *logrus.Logger) *FileCache {
	return &FileCache{dir: dir, logger: logger}
}

func (c *FileCache) path(slug string, page int, kind string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s-%d-%s.json", slug, page, kind))
}

// Get returns the cached raw response if it is less than an hour old.
// Missing files, unreadable JSON and missing or stale timestamps are
// all treated as a miss.
func (c *FileCache) Get(slug string, page int, kind string) []byte {
	path := c.path(slug, page, kind)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	// Finding responses carry "timestamp", Shopping "Timestamp";
	// the case-insensitive match covers both.
	var probe struct {
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		c.logger.WithError(err).WithField("path", path).Debug("Unparseable cache entry, refetching")
		return nil
	}

	stamped, err := time.Parse(time.RFC3339Nano, probe.Timestamp)
	if err != nil {
		return nil
	}

	if time.Now().UTC().Sub(stamped.UTC()) >= cacheTTL {
		return nil
	}

	c.logger.WithFields(logrus.Fields{
		"slug": slug,
		"page": page,
		"kind": kind,
	}).Debug("Provider response served from cache")

	return data
}

// Put stores a raw response. Failures are logged and swallowed; a
// broken cache must never fail the request.
func (c *FileCache) Put(slug string, page int, kind string, data []byte) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		c.logger.WithError(err).Warn("Failed to create cache directory")
		return
	}

	path := c.path(slug, page, kind)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.logger.WithError(err).WithField("path", path).Warn("Failed to write cache entry")
	}
}
