package intent

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nexmind-one/nexmind/pkg/models"
)

// Cache memoizes classification results in SQLite with a TTL, so repeated
// inputs skip the classification call entirely.
type Cache struct {
	db     *sql.DB
	ttl    time.Duration
	hits   atomic.Int64
	misses atomic.Int64
}

const createCacheTable = `
CREATE TABLE IF NOT EXISTS intent_cache (
	input_hash TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	ttl_seconds INTEGER NOT NULL
);
`

// NewCache opens the cache database and creates the schema.
func NewCache(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open intent cache db: %w", err)
	}

	if _, err := db.Exec(createCacheTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate intent cache db: %w", err)
	}

	return &Cache{db: db, ttl: ttl}, nil
}

// hashInput normalizes and hashes user input for use as a cache key.
func hashInput(text string) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(text))))
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Get retrieves a cached category. Returns false if not found or expired.
func (c *Cache) Get(text string) (models.TaskCategory, bool) {
	var category string
	var createdAt time.Time
	var ttlSeconds int64

	err := c.db.QueryRow(
		`SELECT category, created_at, ttl_seconds FROM intent_cache WHERE input_hash = ?`,
		hashInput(text),
	).Scan(&category, &createdAt, &ttlSeconds)

	if err != nil {
		c.misses.Add(1)
		return "", false
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if time.Since(createdAt) > ttl {
		c.misses.Add(1)
		return "", false
	}

	c.hits.Add(1)
	return models.ParseCategory(category), true
}

// Put stores a classification result.
func (c *Cache) Put(text string, category models.TaskCategory) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO intent_cache (input_hash, category, created_at, ttl_seconds)
		 VALUES (?, ?, ?, ?)`,
		hashInput(text), string(category), time.Now().UTC(), int64(c.ttl.Seconds()),
	)
	if err != nil {
		return fmt.Errorf("intent cache put: %w", err)
	}
	return nil
}

// Stats returns cache performance metrics.
func (c *Cache) Stats() (models.CacheStats, error) {
	var count int64
	err := c.db.QueryRow(`SELECT COUNT(*) FROM intent_cache`).Scan(&count)
	if err != nil {
		return models.CacheStats{}, fmt.Errorf("intent cache stats: %w", err)
	}
	return models.CacheStats{
		Entries: count,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}, nil
}

// Clear removes cache entries. If expiredOnly is true, only expired entries
// are removed.
func (c *Cache) Clear(expiredOnly bool) error {
	var query string
	if expiredOnly {
		query = `DELETE FROM intent_cache WHERE (julianday('now') - julianday(created_at)) * 86400 > ttl_seconds`
	} else {
		query = `DELETE FROM intent_cache`
	}
	if _, err := c.db.Exec(query); err != nil {
		return fmt.Errorf("intent cache clear: %w", err)
	}
	return nil
}

// Close releases the database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}
